package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ebs-uchimura/lineorder/internal/cardlink"
	"github.com/ebs-uchimura/lineorder/internal/conversation"
	"github.com/ebs-uchimura/lineorder/internal/db"
	"github.com/ebs-uchimura/lineorder/internal/line"
	"github.com/ebs-uchimura/lineorder/internal/order"
	"github.com/ebs-uchimura/lineorder/internal/router"
)

const defaultCardBaseURL = "https://card.suijinclub.com"

func main() {

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	required := []string{
		"LINE_ACCESS_TOKEN",
		"LINE_CHANNEL_SECRET",
		"DATABASE_URL",
		"CARD_LINK_SECRET",
	}
	for _, k := range required {
		if os.Getenv(k) == "" {
			log.Fatalf("Missing env var: %s", k)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	cardBaseURL := os.Getenv("CARD_BASE_URL")
	if cardBaseURL == "" {
		cardBaseURL = defaultCardBaseURL
	}

	// ───────────────────────── DB ─────────────────────────
	pgDB := db.ConnectPostgres()
	defer pgDB.Close()

	// ───────────────────────── REPOSITORIES ─────────────────────────
	userRepo := order.NewPostgresUserRepository(pgDB)
	productRepo := order.NewPostgresProductRepository(pgDB)
	historyRepo := order.NewPostgresHistoryRepository(pgDB)
	soleilRepo := order.NewPostgresSoleilRepository(pgDB)
	draftRepo := order.NewPostgresDraftRepository(pgDB)
	txRepo := order.NewPostgresTransactionRepository(pgDB)

	assembler := order.NewAssembler(userRepo, productRepo, historyRepo, soleilRepo, draftRepo, txRepo)

	// ───────────────────────── SESSIONS ─────────────────────────
	var sessions conversation.SessionStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		sessions = conversation.NewRedisSessionStore(client)
		log.Println("sessions stored in redis at", addr)
	} else {
		sessions = conversation.NewMemorySessionStore()
	}

	// ───────────────────────── MESSAGING ─────────────────────────
	lineClient := line.NewClient(os.Getenv("LINE_ACCESS_TOKEN"))
	dispatcher := line.NewDispatcher(lineClient, 128)
	dispatcher.Start()
	defer dispatcher.Close()

	// ───────────────────────── STATE MACHINE ─────────────────────────
	links := cardlink.NewSigner(os.Getenv("CARD_LINK_SECRET"), cardBaseURL)
	machine := conversation.NewMachine(sessions, assembler, userRepo, productRepo, draftRepo, txRepo, links)
	handler := conversation.NewHandler(machine, dispatcher)

	// ───────────────────────── START ─────────────────────────
	r := router.NewRouter(handler, os.Getenv("LINE_CHANNEL_SECRET"))
	log.Printf("webhook server listening at http://localhost:%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
