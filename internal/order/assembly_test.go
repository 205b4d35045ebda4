package order

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// Two categories, both offering 6 and 12 tiers. Prices are per-bottle at the
// given tier.
func testAssembler() (*Assembler, *MemoryUserRepository, *MemoryHistoryRepository, *MemorySoleilRepository, *MemoryDraftRepository, *MemoryTransactionRepository) {
	products := NewMemoryProductRepository(
		&Product{ID: 1, ProductID: 701, CategoryID: 7, CategoryName: "純米大吟醸", Price: 520, Amount: 6},
		&Product{ID: 2, ProductID: 702, CategoryID: 7, CategoryName: "純米大吟醸", Price: 500, Amount: 12},
		&Product{ID: 3, ProductID: 801, CategoryID: 8, CategoryName: "特別純米", Price: 320, Amount: 6},
		&Product{ID: 4, ProductID: 802, CategoryID: 8, CategoryName: "特別純米", Price: 300, Amount: 12},
	)
	users := NewMemoryUserRepository()
	history := NewMemoryHistoryRepository()
	soleil := NewMemorySoleilRepository()
	drafts := NewMemoryDraftRepository()
	txs := NewMemoryTransactionRepository()
	asm := NewAssembler(users, products, history, soleil, drafts, txs)
	return asm, users, history, soleil, drafts, txs
}

func seedDrafts(t *testing.T, drafts *MemoryDraftRepository) {
	t.Helper()
	ctx := context.Background()
	for _, l := range []*DraftLine{
		{LineUserID: "U1", CustomerNo: 100, UserKey: "sess1", TmpCategoryID: 7},
		{LineUserID: "U1", CustomerNo: 100, UserKey: "sess1", TmpCategoryID: 8},
	} {
		if err := drafts.Insert(ctx, l); err != nil {
			t.Fatalf("insert draft: %v", err)
		}
	}
	if err := drafts.SetQuantity(ctx, "sess1", 7, 6); err != nil {
		t.Fatal(err)
	}
	if err := drafts.SetQuantity(ctx, "sess1", 8, 6); err != nil {
		t.Fatal(err)
	}
}

func TestFinalizeTiersBlendedQuantity(t *testing.T) {
	asm, _, _, _, drafts, _ := testAssembler()
	seedDrafts(t, drafts)

	// 6 + 6 bottles blend to the 12 tier for both categories.
	if err := asm.FinalizeTiers(context.Background(), "sess1"); err != nil {
		t.Fatalf("FinalizeTiers: %v", err)
	}

	for _, l := range drafts.Lines() {
		switch l.TmpCategoryID {
		case 7:
			if l.ProductID != 702 || l.Total != 6*500 {
				t.Fatalf("category 7 line resolved to product %d total %d", l.ProductID, l.Total)
			}
		case 8:
			if l.ProductID != 802 || l.Total != 6*300 {
				t.Fatalf("category 8 line resolved to product %d total %d", l.ProductID, l.Total)
			}
		}
	}
}

func TestCommitTotals(t *testing.T) {
	asm, _, _, _, drafts, txs := testAssembler()
	seedDrafts(t, drafts)
	ctx := context.Background()

	if err := asm.FinalizeTiers(ctx, "sess1"); err != nil {
		t.Fatalf("FinalizeTiers: %v", err)
	}
	if err := asm.Commit(ctx, "sess1"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	all := txs.Transactions()
	if len(all) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(all))
	}
	tx := all[0]
	if tx.TotalPrice != 6*500+6*300+ShipmentFee {
		t.Fatalf("total price = %d, want %d", tx.TotalPrice, 6*500+6*300+ShipmentFee)
	}
	if tx.TotalQuantity != 12 {
		t.Fatalf("total quantity = %d, want 12", tx.TotalQuantity)
	}
	if len(tx.TransactionKey) != TransactionKeyLen {
		t.Fatalf("transaction key length = %d", len(tx.TransactionKey))
	}

	// Every consumed draft line is back-linked and drops out of the
	// active set.
	for _, l := range drafts.Lines() {
		if l.TransactionID != tx.ID {
			t.Fatalf("draft %d not linked to transaction", l.ID)
		}
	}
	active, err := drafts.ActiveBySession(ctx, "sess1")
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active drafts after commit, got %d", len(active))
	}
}

func TestCommitEmptySession(t *testing.T) {
	asm, _, _, _, _, _ := testAssembler()
	if err := asm.Commit(context.Background(), "nothing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSummaryFinal(t *testing.T) {
	asm, _, _, _, drafts, _ := testAssembler()
	seedDrafts(t, drafts)
	ctx := context.Background()

	if err := asm.FinalizeTiers(ctx, "sess1"); err != nil {
		t.Fatal(err)
	}
	text, err := asm.Summary(ctx, "sess1", true)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	for _, want := range []string{
		"純米大吟醸x6本:3,000円",
		"特別純米x6本:1,800円",
		"送料: 550円",
		"合計金額: 5,350円",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("final summary missing %q:\n%s", want, text)
		}
	}
}

func TestSummaryPreFinalOmitsPricing(t *testing.T) {
	asm, _, _, _, drafts, _ := testAssembler()
	seedDrafts(t, drafts)

	text, err := asm.Summary(context.Background(), "sess1", false)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !strings.Contains(text, "純米大吟醸:6本") {
		t.Fatalf("pre-final summary missing line: %s", text)
	}
	if strings.Contains(text, "円") {
		t.Fatalf("pre-final summary should not mention prices: %s", text)
	}
}

func TestProductOptionsSoleilSubstitution(t *testing.T) {
	products := NewMemoryProductRepository(
		&Product{ID: 1, ProductID: 901, CategoryID: 239, CategoryName: "ソレイユ", Price: 400, Amount: 6},
		&Product{ID: 2, ProductID: 902, CategoryID: 999, CategoryName: "ソレイユ", Price: 450, Amount: 6},
	)
	users := NewMemoryUserRepository()
	history := NewMemoryHistoryRepository()
	soleil := NewMemorySoleilRepository(100)
	drafts := NewMemoryDraftRepository()
	txs := NewMemoryTransactionRepository()
	asm := NewAssembler(users, products, history, soleil, drafts, txs)
	ctx := context.Background()

	if err := users.Create(ctx, &User{LineUserID: "U-member", CustomerNo: 100}); err != nil {
		t.Fatal(err)
	}
	if err := users.Create(ctx, &User{LineUserID: "U-other", CustomerNo: 200}); err != nil {
		t.Fatal(err)
	}
	history.Add(100, 239)
	history.Add(200, 999)

	got, err := asm.ProductOptions(ctx, "U-member")
	if err != nil {
		t.Fatalf("ProductOptions member: %v", err)
	}
	if len(got) != 1 || got[0].CategoryID != CategorySoleilMember {
		t.Fatalf("member should see category 239, got %+v", got)
	}

	got, err = asm.ProductOptions(ctx, "U-other")
	if err != nil {
		t.Fatalf("ProductOptions non-member: %v", err)
	}
	if len(got) != 1 || got[0].CategoryID != CategorySoleilFixed {
		t.Fatalf("non-member should see category 999, got %+v", got)
	}
}

func TestProductOptionsCapAndFallback(t *testing.T) {
	products := NewMemoryProductRepository(
		&Product{ID: 1, ProductID: 101, CategoryID: 1, CategoryName: "一", Price: 100, Amount: 6},
		&Product{ID: 2, ProductID: 102, CategoryID: 2, CategoryName: "二", Price: 100, Amount: 6},
		&Product{ID: 3, ProductID: 103, CategoryID: 3, CategoryName: "三", Price: 100, Amount: 6},
		&Product{ID: 4, ProductID: 104, CategoryID: 4, CategoryName: "四", Price: 100, Amount: 6},
		&Product{ID: 5, ProductID: 105, CategoryID: 5, CategoryName: "五", Price: 100, Amount: 6},
	)
	users := NewMemoryUserRepository()
	history := NewMemoryHistoryRepository()
	asm := NewAssembler(users, products, history, NewMemorySoleilRepository(), NewMemoryDraftRepository(), NewMemoryTransactionRepository())
	ctx := context.Background()

	if err := users.Create(ctx, &User{LineUserID: "U1", CustomerNo: 100}); err != nil {
		t.Fatal(err)
	}
	for cat := 1; cat <= 5; cat++ {
		history.Add(100, cat)
	}

	got, err := asm.ProductOptions(ctx, "U1")
	if err != nil {
		t.Fatalf("ProductOptions: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("menu capped at 4, got %d entries", len(got))
	}

	// No history at all means operator fallback.
	if err := users.Create(ctx, &User{LineUserID: "U2", CustomerNo: 300}); err != nil {
		t.Fatal(err)
	}
	if _, err := asm.ProductOptions(ctx, "U2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty history, got %v", err)
	}
}
