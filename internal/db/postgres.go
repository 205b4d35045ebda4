package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres() *pgxpool.Pool {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatal(err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal("Postgres connection failed:", err)
	}

	log.Println("connected to PostgreSQL")

	if err := initSchema(db); err != nil {
		log.Fatal("Failed to initialize schema:", err)
	}

	return db
}

// initSchema creates the ordering tables if they do not exist.
func initSchema(db *pgxpool.Pool) error {
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS lineuser (
			id SERIAL PRIMARY KEY,
			userid VARCHAR(64) NOT NULL,
			customerno INTEGER NOT NULL DEFAULT 0,
			managekey VARCHAR(16) NOT NULL DEFAULT '',
			transactionkey VARCHAR(16),
			disabled SMALLINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS product (
			id SERIAL PRIMARY KEY,
			productid INTEGER NOT NULL,
			categoryid INTEGER NOT NULL,
			categoryname VARCHAR(255) NOT NULL DEFAULT '',
			price INTEGER NOT NULL DEFAULT 0,
			amount INTEGER NOT NULL DEFAULT 0,
			disabled SMALLINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS draftorder (
			id SERIAL PRIMARY KEY,
			userid VARCHAR(64) NOT NULL,
			customerno INTEGER NOT NULL DEFAULT 0,
			userkey VARCHAR(32) NOT NULL,
			tmpcategoryid INTEGER NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			product_id INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			disabled SMALLINT NOT NULL DEFAULT 0,
			transaction_id INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id SERIAL PRIMARY KEY,
			userid VARCHAR(64) NOT NULL,
			customerno INTEGER NOT NULL DEFAULT 0,
			userkey VARCHAR(32) NOT NULL,
			transactionkey VARCHAR(32) NOT NULL,
			totalprice INTEGER NOT NULL DEFAULT 0,
			totalquantity INTEGER NOT NULL DEFAULT 0,
			payment_id INTEGER NOT NULL DEFAULT 0,
			completed SMALLINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orderhistory (
			id SERIAL PRIMARY KEY,
			customerno INTEGER NOT NULL,
			categoryid INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS soleil (
			id SERIAL PRIMARY KEY,
			customerno INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_draftorder_userkey ON draftorder (userkey)`,
		`CREATE INDEX IF NOT EXISTS idx_product_categoryid ON product (categoryid)`,
		`CREATE INDEX IF NOT EXISTS idx_orderhistory_customerno ON orderhistory (customerno)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	log.Println("schema initialized")
	return nil
}
