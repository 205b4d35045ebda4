package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Option is one selectable entry of the product menu.
type Option struct {
	CategoryID int
	Label      string
}

// Assembler builds draft line items, resolves volume-tier pricing, renders
// order summaries and commits finished transactions.
type Assembler struct {
	users    UserRepository
	products ProductRepository
	history  HistoryRepository
	soleil   SoleilRepository
	drafts   DraftRepository
	txs      TransactionRepository
}

func NewAssembler(
	users UserRepository,
	products ProductRepository,
	history HistoryRepository,
	soleil SoleilRepository,
	drafts DraftRepository,
	txs TransactionRepository,
) *Assembler {
	return &Assembler{
		users:    users,
		products: products,
		history:  history,
		soleil:   soleil,
		drafts:   drafts,
		txs:      txs,
	}
}

var yen = message.NewPrinter(language.Japanese)

// FinalizeTiers resolves the priced tier of every active draft line in the
// session. The blended quantity across all lines picks the nominal tier; each
// category is then clamped to the tiers it actually offers, and the matching
// product row's price and product id are written back onto the line.
func (a *Assembler) FinalizeTiers(ctx context.Context, userKey string) error {
	lines, err := a.drafts.ActiveBySession(ctx, userKey)
	if err != nil {
		return fmt.Errorf("load drafts: %w", err)
	}
	if len(lines) == 0 {
		return ErrNotFound
	}

	blended := 0
	for _, l := range lines {
		blended += l.Quantity
	}
	nominal := NominalTier(blended)

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range lines {
		l := l
		g.Go(func() error {
			tiers, err := a.products.TiersByCategory(gctx, l.TmpCategoryID)
			if err != nil {
				return fmt.Errorf("tiers for category %d: %w", l.TmpCategoryID, err)
			}
			offered := make([]int, 0, len(tiers))
			for _, t := range tiers {
				offered = append(offered, t.Amount)
			}
			amount, err := ResolveTier(offered, nominal)
			if err != nil {
				return fmt.Errorf("resolve tier for category %d: %w", l.TmpCategoryID, err)
			}
			p, err := a.products.ByCategoryAndAmount(gctx, l.TmpCategoryID, amount)
			if err != nil {
				return fmt.Errorf("price row for category %d amount %d: %w", l.TmpCategoryID, amount, err)
			}
			return a.drafts.SetPricing(gctx, l.ID, p.ProductID, p.Price*l.Quantity)
		})
	}
	return g.Wait()
}

// Summary renders the session's draft lines as reply text. The final variant
// joins each line to its resolved price and appends the shipment fee and
// grand total; the pre-final variant shows only name and quantity.
func (a *Assembler) Summary(ctx context.Context, userKey string, final bool) (string, error) {
	lines, err := a.drafts.ActiveBySession(ctx, userKey)
	if err != nil {
		return "", fmt.Errorf("load drafts: %w", err)
	}

	var parts []string
	grandTotal := 0

	for _, l := range lines {
		if final {
			p, err := a.products.ByProductID(ctx, l.ProductID)
			if err != nil {
				return "", fmt.Errorf("product %d: %w", l.ProductID, err)
			}
			if p.CategoryName == "" {
				continue
			}
			total := p.Price * l.Quantity
			grandTotal += total
			parts = append(parts, fmt.Sprintf("%sx%d%s:%s円",
				TruncateName(p.CategoryName, 11), l.Quantity, UnitLabel(p.CategoryID), yen.Sprintf("%d", total)))
		} else {
			tiers, err := a.products.TiersByCategory(ctx, l.TmpCategoryID)
			if err != nil {
				return "", fmt.Errorf("category %d: %w", l.TmpCategoryID, err)
			}
			p := tiers[0]
			if p.CategoryName == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s:%d%s",
				TruncateName(p.CategoryName, 11), l.Quantity, UnitLabel(p.CategoryID)))
		}
	}

	text := strings.Join(parts, "\n")
	if final {
		text = fmt.Sprintf("%s\n送料: %d円\n合計金額: %s円",
			text, ShipmentFee, yen.Sprintf("%d", grandTotal+ShipmentFee))
	}
	return text, nil
}

// Commit creates the transaction record for the session: line totals plus the
// shipment fee, a fresh transaction key, and a back-link from every consumed
// draft line.
func (a *Assembler) Commit(ctx context.Context, userKey string) error {
	lines, err := a.drafts.ActiveBySession(ctx, userKey)
	if err != nil {
		return fmt.Errorf("load drafts: %w", err)
	}
	if len(lines) == 0 {
		return ErrNotFound
	}

	totalPrice, totalQuantity := 0, 0
	for _, l := range lines {
		totalPrice += l.Total
		totalQuantity += l.Quantity
	}

	tx := &Transaction{
		LineUserID:     lines[0].LineUserID,
		CustomerNo:     lines[0].CustomerNo,
		UserKey:        userKey,
		TransactionKey: SecureKey(TransactionKeyLen),
		TotalPrice:     totalPrice + ShipmentFee,
		TotalQuantity:  totalQuantity,
	}
	id, err := a.txs.Insert(ctx, tx)
	if err != nil {
		return err
	}

	for _, l := range lines {
		if err := a.drafts.LinkTransaction(ctx, l.ID, id); err != nil {
			return err
		}
	}
	return nil
}

// ProductOptions builds the selection menu from the customer's order history.
// Soleil categories are substituted by allow-list membership before they ever
// reach a draft line. At most four options are returned; an empty history
// yields ErrNotFound so the caller can fall back to operator handling.
func (a *Assembler) ProductOptions(ctx context.Context, lineUserID string) ([]Option, error) {
	u, err := a.users.FindByLineID(ctx, lineUserID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", lineUserID, err)
	}

	categories, err := a.history.CategoriesByCustomer(ctx, u.CustomerNo)
	if err != nil {
		return nil, fmt.Errorf("history for customer %d: %w", u.CustomerNo, err)
	}
	if len(categories) == 0 {
		return nil, ErrNotFound
	}

	options := make([]Option, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range categories {
		i, cat := i, cat
		g.Go(func() error {
			tiers, err := a.products.TiersByCategory(gctx, cat)
			if errors.Is(err, ErrNotFound) {
				// discontinued category, drop it from the menu
				return nil
			}
			if err != nil {
				return fmt.Errorf("category %d: %w", cat, err)
			}
			p := tiers[0]

			resolved := p.CategoryID
			if resolved == CategorySoleilMember || resolved == CategorySoleilFixed {
				member, err := a.soleil.IsMember(gctx, u.CustomerNo)
				if err != nil {
					return fmt.Errorf("soleil lookup for customer %d: %w", u.CustomerNo, err)
				}
				if member {
					resolved = CategorySoleilMember
				} else {
					resolved = CategorySoleilFixed
				}
			}
			options[i] = Option{CategoryID: resolved, Label: p.CategoryName}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Option, 0, len(options))
	for _, o := range options {
		if o.CategoryID != 0 {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	if len(out) > 4 {
		out = out[:4]
	}
	return out, nil
}
