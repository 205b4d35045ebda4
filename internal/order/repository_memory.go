package order

import (
	"context"
	"sync"
	"time"
)

// In-memory repositories. Used by the unit tests and by local runs without a
// database; they implement the same contracts as the Postgres repositories.

type MemoryUserRepository struct {
	mu     sync.Mutex
	users  map[string]*User
	nextID int
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*User), nextID: 1}
}

func (r *MemoryUserRepository) Exists(ctx context.Context, lineUserID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[lineUserID]
	return ok, nil
}

func (r *MemoryUserRepository) FindByLineID(ctx context.Context, lineUserID string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[lineUserID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.LineUserID] = &cp
	return nil
}

func (r *MemoryUserRepository) SetTransactionKey(ctx context.Context, lineUserID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[lineUserID]
	if !ok {
		return ErrWrite
	}
	u.TransactionKey = key
	return nil
}

type MemoryProductRepository struct {
	mu       sync.Mutex
	products []*Product
}

func NewMemoryProductRepository(products ...*Product) *MemoryProductRepository {
	return &MemoryProductRepository{products: products}
}

func (r *MemoryProductRepository) TiersByCategory(ctx context.Context, categoryID int) ([]*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Product
	for _, p := range r.products {
		if p.CategoryID == categoryID && !p.Disabled {
			cp := *p
			out = append(out, &cp)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (r *MemoryProductRepository) ByProductID(ctx context.Context, productID int) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ProductID == productID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryProductRepository) ByCategoryAndAmount(ctx context.Context, categoryID, amount int) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.CategoryID == categoryID && p.Amount == amount {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

type MemoryHistoryRepository struct {
	mu         sync.Mutex
	categories map[int][]int
}

func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{categories: make(map[int][]int)}
}

func (r *MemoryHistoryRepository) Add(customerNo, categoryID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[customerNo] = append(r.categories[customerNo], categoryID)
}

func (r *MemoryHistoryRepository) CategoriesByCustomer(ctx context.Context, customerNo int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.categories[customerNo]...), nil
}

type MemorySoleilRepository struct {
	mu      sync.Mutex
	members map[int]bool
}

func NewMemorySoleilRepository(customerNos ...int) *MemorySoleilRepository {
	m := make(map[int]bool)
	for _, no := range customerNos {
		m[no] = true
	}
	return &MemorySoleilRepository{members: m}
}

func (r *MemorySoleilRepository) IsMember(ctx context.Context, customerNo int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[customerNo], nil
}

type MemoryDraftRepository struct {
	mu     sync.Mutex
	lines  []*DraftLine
	nextID int
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{nextID: 1}
}

func (r *MemoryDraftRepository) active(line *DraftLine) bool {
	return !line.Disabled && line.TransactionID == 0 &&
		line.CreatedAt.After(time.Now().Add(-24*time.Hour))
}

func (r *MemoryDraftRepository) ActiveBySession(ctx context.Context, userKey string) ([]*DraftLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*DraftLine
	for _, l := range r.lines {
		if l.UserKey == userKey && r.active(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryDraftRepository) ActiveBySessionCategory(ctx context.Context, userKey string, categoryID int) ([]*DraftLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*DraftLine
	for _, l := range r.lines {
		if l.UserKey == userKey && l.TmpCategoryID == categoryID && r.active(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryDraftRepository) Insert(ctx context.Context, line *DraftLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	line.ID = r.nextID
	r.nextID++
	line.CreatedAt = time.Now()
	cp := *line
	r.lines = append(r.lines, &cp)
	return nil
}

func (r *MemoryDraftRepository) Disable(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.ID == id {
			l.Disabled = true
			return nil
		}
	}
	return ErrWrite
}

func (r *MemoryDraftRepository) DisableBySession(ctx context.Context, userKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.UserKey == userKey {
			l.Disabled = true
		}
	}
	return nil
}

func (r *MemoryDraftRepository) SetQuantity(ctx context.Context, userKey string, categoryID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.UserKey == userKey && l.TmpCategoryID == categoryID {
			l.Quantity = quantity
		}
	}
	return nil
}

func (r *MemoryDraftRepository) SetPricing(ctx context.Context, id, productID, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.ID == id {
			l.ProductID = productID
			l.Total = total
			return nil
		}
	}
	return ErrWrite
}

func (r *MemoryDraftRepository) LinkTransaction(ctx context.Context, id, transactionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.ID == id {
			l.TransactionID = transactionID
			return nil
		}
	}
	return ErrWrite
}

// Lines exposes a snapshot of all stored draft lines, for assertions in tests.
func (r *MemoryDraftRepository) Lines() []*DraftLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*DraftLine, 0, len(r.lines))
	for _, l := range r.lines {
		cp := *l
		out = append(out, &cp)
	}
	return out
}

type MemoryTransactionRepository struct {
	mu     sync.Mutex
	txs    []*Transaction
	nextID int
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{nextID: 1}
}

func (r *MemoryTransactionRepository) Insert(ctx context.Context, tx *Transaction) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx.ID = r.nextID
	r.nextID++
	tx.CreatedAt = time.Now()
	cp := *tx
	r.txs = append(r.txs, &cp)
	return tx.ID, nil
}

func (r *MemoryTransactionRepository) KeyBySession(ctx context.Context, userKey string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.UserKey == userKey {
			return tx.TransactionKey, nil
		}
	}
	return "", ErrNotFound
}

func (r *MemoryTransactionRepository) Complete(ctx context.Context, userKey string, paymentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.UserKey == userKey {
			tx.PaymentID = paymentID
			tx.Completed = true
		}
	}
	return nil
}

// Transactions exposes a snapshot of stored transactions, for tests.
func (r *MemoryTransactionRepository) Transactions() []*Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Transaction, 0, len(r.txs))
	for _, tx := range r.txs {
		cp := *tx
		out = append(out, &cp)
	}
	return out
}
