package order

import "time"

// ShipmentFee is the flat shipping charge added to every completed order, in yen.
const ShipmentFee = 550

// Soleil is sold under two category ids at different price points.
// Which one a customer sees depends on the soleil allow-list.
const (
	CategorySoleilMember = 239
	CategorySoleilFixed  = 999
)

// Payment method ids recorded on a completed transaction.
const (
	PaymentCOD  = 1
	PaymentCard = 2
)

// User is a messaging-platform user known to the shop.
type User struct {
	ID             int
	LineUserID     string
	CustomerNo     int
	ManageKey      string
	TransactionKey string
	Disabled       bool
	CreatedAt      time.Time
}

// Product is one priced quantity tier of a category. A category usually has
// several rows, one per valid order amount.
type Product struct {
	ID           int
	ProductID    int
	CategoryID   int
	CategoryName string
	Price        int
	Amount       int
	Disabled     bool
}

// DraftLine is an uncommitted per-category selection inside one order session.
// Session membership is keyed by UserKey, not by the LINE user id.
type DraftLine struct {
	ID            int
	LineUserID    string
	CustomerNo    int
	UserKey       string
	TmpCategoryID int
	Quantity      int
	ProductID     int
	Total         int
	Disabled      bool
	TransactionID int
	CreatedAt     time.Time
}

// Transaction is one finalized order.
type Transaction struct {
	ID             int
	LineUserID     string
	CustomerNo     int
	UserKey        string
	TransactionKey string
	TotalPrice     int
	TotalQuantity  int
	PaymentID      int
	Completed      bool
	CreatedAt      time.Time
}
