package order

import "context"

// Repositories define the data-access contract. The assembly engine and the
// conversation state machine depend ONLY on these interfaces, never on a
// query dialect.
//
// "Active" reads restrict to draft rows created within the last 24 hours that
// are neither disabled nor already committed.

type UserRepository interface {
	Exists(ctx context.Context, lineUserID string) (bool, error)
	FindByLineID(ctx context.Context, lineUserID string) (*User, error)
	Create(ctx context.Context, user *User) error
	SetTransactionKey(ctx context.Context, lineUserID, key string) error
}

type ProductRepository interface {
	// TiersByCategory returns all priced tier rows of a category.
	TiersByCategory(ctx context.Context, categoryID int) ([]*Product, error)
	ByProductID(ctx context.Context, productID int) (*Product, error)
	ByCategoryAndAmount(ctx context.Context, categoryID, amount int) (*Product, error)
}

type HistoryRepository interface {
	// CategoriesByCustomer returns the category ids the customer has ordered before.
	CategoriesByCustomer(ctx context.Context, customerNo int) ([]int, error)
}

type SoleilRepository interface {
	IsMember(ctx context.Context, customerNo int) (bool, error)
}

type DraftRepository interface {
	ActiveBySession(ctx context.Context, userKey string) ([]*DraftLine, error)
	ActiveBySessionCategory(ctx context.Context, userKey string, categoryID int) ([]*DraftLine, error)
	Insert(ctx context.Context, line *DraftLine) error
	Disable(ctx context.Context, id int) error
	DisableBySession(ctx context.Context, userKey string) error
	SetQuantity(ctx context.Context, userKey string, categoryID, quantity int) error
	SetPricing(ctx context.Context, id, productID, total int) error
	LinkTransaction(ctx context.Context, id, transactionID int) error
}

type TransactionRepository interface {
	// Insert stores a new transaction and returns its id.
	Insert(ctx context.Context, tx *Transaction) (int, error)
	KeyBySession(ctx context.Context, userKey string) (string, error)
	// Complete records the payment method and marks the transaction done.
	Complete(ctx context.Context, userKey string, paymentID int) error
}
