package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ebs-uchimura/lineorder/internal/cardlink"
	"github.com/ebs-uchimura/lineorder/internal/line"
	"github.com/ebs-uchimura/lineorder/internal/order"
)

// Fixed reply texts.
const (
	operatorText         = "オペレータが対応いたします。アプリを閉じてお待ち下さい。"
	firstOrderText       = "初回のご注文です。オペレータが対応します。\nアプリを閉じてお待ち下さい。"
	invalidOperationText = "不正な操作です。最初からやり直してください。"
	thanksText           = "ご注文ありがとうございました。"
	editLinkText         = "下記URLをタップしてカード編集画面に移動して下さい。\n%s"
	payLinkText          = "下記URLをタップして決済画面に移動して下さい。\n%s"
	registeredText       = "オペレータが対応いたします。営業時間（平日9:00-16:00）内であれば3時間を目安にご対応します。アプリを閉じてお待ち下さい。(管理ID: %s)"

	menuAltText     = "前回の注文商品から選択してください。"
	menuTitle       = "前同注文"
	menuText        = "前回の注文商品から選択してください。商品名以外をタップすると最初に戻ります。"
	addingMenuTitle = "現在の注文内容\n(※確定→メッセージに「ok」）"
	menuThumbnail   = "https://www.bodies.jp/wbodiesp/wp-content/uploads/2022/04/img_kiwako_column_photo_220407_01.png"
)

// Admitted stage windows for the forward commands. A command outside its
// window is a replay or an out-of-order tap and forces a restart.
const (
	maxStageOrderOK = 4
	maxStageFinal   = 6
)

var quantityTiers = []int{6, 12, 24, 36}

// Event is one decoded inbound webhook event.
type Event struct {
	UserID     string
	ReplyToken string
	Text       string
}

// Machine advances a user's conversation one command at a time. Transitions
// for the same user are serialized by a per-user mutex; different users run
// concurrently.
type Machine struct {
	sessions SessionStore
	asm      *order.Assembler
	users    order.UserRepository
	products order.ProductRepository
	drafts   order.DraftRepository
	txs      order.TransactionRepository
	links    *cardlink.Signer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMachine(
	sessions SessionStore,
	asm *order.Assembler,
	users order.UserRepository,
	products order.ProductRepository,
	drafts order.DraftRepository,
	txs order.TransactionRepository,
	links *cardlink.Signer,
) *Machine {
	return &Machine{
		sessions: sessions,
		asm:      asm,
		users:    users,
		products: products,
		drafts:   drafts,
		txs:      txs,
		links:    links,
		locks:    make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing one user's transitions. Entries are
// never evicted: one mutex per user id seen since boot.
func (m *Machine) userLock(lineUserID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[lineUserID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[lineUserID] = l
	}
	return l
}

// Handle interprets one inbound message against the user's current stage and
// returns the reply payloads to dispatch. An empty slice means no reply.
func (m *Machine) Handle(ctx context.Context, ev Event) ([]line.Message, error) {
	cmd, err := Parse(ev.Text)
	if err != nil {
		log.Printf("ignoring malformed command from %s: %v", ev.UserID, err)
		return nil, nil
	}
	if cmd.Kind == CmdUnknown {
		return nil, nil
	}

	l := m.userLock(ev.UserID)
	l.Lock()
	defer l.Unlock()

	sess, err := m.sessions.Get(ctx, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("load session for %s: %w", ev.UserID, err)
	}

	var msgs []line.Message
	switch cmd.Kind {
	case CmdBreak:
		sess.Stage = StageIdle
		sess.OrderInProgress = false
	case CmdEdit:
		msgs, err = m.handleEdit(ctx, ev, &sess)
	case CmdRepeat:
		msgs, err = m.handleRepeat(ctx, ev, &sess)
	case CmdConfirmYes:
		msgs, err = m.handleConfirmYes(ctx, ev, &sess)
	case CmdConfirmNo:
		sess.Stage = StageIdle
		sess.OrderInProgress = false
		msgs = []line.Message{line.NewText(operatorText)}
	case CmdReturn:
		msgs, err = m.handleReturn(ctx, ev, &sess)
	case CmdOrderOK:
		msgs, err = m.handleOrderOK(ctx, ev, &sess)
	case CmdFinal:
		msgs, err = m.handleFinal(ctx, ev, &sess)
	case CmdCOD:
		msgs, err = m.handleCOD(ctx, ev, &sess)
	case CmdCard:
		msgs, err = m.handleCard(ctx, ev, &sess)
	case CmdSelectProduct:
		msgs, err = m.handleSelectProduct(ctx, ev, &sess, cmd.CategoryID)
	case CmdChooseQuantity:
		msgs, err = m.handleChooseQuantity(ctx, ev, &sess, cmd.CategoryID, cmd.Quantity)
	}
	if err != nil {
		return nil, err
	}

	if err := m.sessions.Put(ctx, ev.UserID, sess); err != nil {
		return nil, fmt.Errorf("save session for %s: %w", ev.UserID, err)
	}
	return msgs, nil
}

// restart marks the session invalid and builds the double reply: the
// invalid-operation text plus the return-to-top product list. No order data
// is touched.
func (m *Machine) restart(ctx context.Context, ev Event, sess *Session) []line.Message {
	sess.Stage = StageInvalid
	sess.OrderInProgress = false

	list, err := m.productListMessage(ctx, ev.UserID, "", false)
	if err != nil {
		log.Printf("restart list for %s: %v", ev.UserID, err)
		list = line.NewText(operatorText)
	}
	return []line.Message{line.NewText(invalidOperationText), list}
}

func (m *Machine) handleEdit(ctx context.Context, ev Event, sess *Session) ([]line.Message, error) {
	sess.Stage = StageIdle
	sess.OrderInProgress = false

	key := order.SecureKey(order.EditKeyLen)
	if err := m.users.SetTransactionKey(ctx, ev.UserID, key); err != nil {
		return nil, err
	}
	url, err := m.links.EditLink(key)
	if err != nil {
		return nil, fmt.Errorf("edit link: %w", err)
	}
	return []line.Message{line.NewText(fmt.Sprintf(editLinkText, url))}, nil
}

func (m *Machine) handleRepeat(ctx context.Context, ev Event, sess *Session) ([]line.Message, error) {
	sess.Stage = StageConfirmRepeat
	sess.OrderInProgress = false

	exists, err := m.users.Exists(ctx, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("user lookup for %s: %w", ev.UserID, err)
	}

	if !exists {
		manageKey := order.SecureKey(order.ManageKeyLen)
		if err := m.users.Create(ctx, &order.User{
			LineUserID: ev.UserID,
			ManageKey:  manageKey,
		}); err != nil {
			return nil, err
		}
		log.Printf("registered new user %s", ev.UserID)
		return []line.Message{line.NewText(fmt.Sprintf(registeredText, manageKey))}, nil
	}

	sess.UserKey = order.SecureKey(order.SessionKeyLen)
	return []line.Message{line.NewConfirm(
		"お届け先・ラベル",
		"お届け先とラベルは前回と同じでよろしいですか？",
		"はい", "いいえ", "yes", "no",
	)}, nil
}

func (m *Machine) handleConfirmYes(ctx context.Context, ev Event, sess *Session) ([]line.Message, error) {
	if sess.Stage > StageConfirmRepeat {
		return m.restart(ctx, ev, sess), nil
	}
	sess.Stage = StageSelecting
	if sess.UserKey == "" {
		sess.UserKey = order.SecureKey(order.SessionKeyLen)
	}

	list, err := m.productListMessage(ctx, ev.UserID, "", false)
	if err != nil {
		return nil, err
	}
	return []line.Message{list}, nil
}

// handleReturn abandons the current draft lines and re-opens product
// selection under the same session key.
func (m *Machine) handleReturn(ctx context.Context, ev Event, sess *Session) ([]line.Message, error) {
	sess.Stage = StageSelecting
	sess.OrderInProgress = false

	if sess.UserKey != "" {
		if err := m.drafts.DisableBySession(ctx, sess.UserKey); err != nil {
			return nil, err
		}
	}
	list, err := m.productListMessage(ctx, ev.UserID, "", false)
	if err != nil {
		return nil, err
	}
	return []line.Message{list}, nil
}

func (m *Machine) handleOrderOK(ctx context.Context, ev Event, sess *Session) ([]line.Message, error) {
	if sess.Stage < StageSelecting || sess.Stage > maxStageOrderOK {
		return m.restart(ctx, ev, sess), nil
	}
	sess.Stage = StageReview
	sess.OrderInProgress = false

	if err := m.asm.FinalizeTiers(ctx, sess.UserKey); err != nil {
		return nil, fmt.Errorf("finalize tiers: %w", err)
	}
	summary, err := m.asm.Summary(ctx, sess.UserKey, true)
	if err != nil {
		return nil, fmt.Errorf("final summary: %w", err)
	}
	return []line.Message{line.NewConfirm(
		"注文確認",
		fmt.Sprintf("こちらの内容でよろしいですか？\n%s", summary),
		"はい", "いいえ", "final", "return",
	)}, nil
}

func (m *Machine) handleFinal(ctx context.Context, ev Event, sess *Session) ([]line.Message, error) {
	if sess.Stage < StageReview || sess.Stage > maxStageFinal {
		return m.restart(ctx, ev, sess), nil
	}
	sess.Stage = StagePayment

	if err := m.asm.Commit(ctx, sess.UserKey); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return []line.Message{line.NewConfirm(
		"決済方法",
		"お支払い方法を選択してください",
		"代金引換", "クレジットカード", "cod", "card",
	)}, nil
}

func (m *Machine) handleCOD(ctx context.Context, ev Event, sess *Session) ([]line.Message, error) {
	if sess.Stage != StagePayment {
		return m.restart(ctx, ev, sess), nil
	}
	sess.Stage = StageDone

	if err := m.txs.Complete(ctx, sess.UserKey, order.PaymentCOD); err != nil {
		return nil, err
	}
	return []line.Message{line.NewText(thanksText)}, nil
}

func (m *Machine) handleCard(ctx context.Context, ev Event, sess *Session) ([]line.Message, error) {
	if sess.Stage != StagePayment {
		return m.restart(ctx, ev, sess), nil
	}
	sess.Stage = StageDone

	key, err := m.txs.KeyBySession(ctx, sess.UserKey)
	if err != nil {
		return nil, fmt.Errorf("transaction key for session: %w", err)
	}
	url, err := m.links.PayLink(key)
	if err != nil {
		return nil, fmt.Errorf("pay link: %w", err)
	}
	return []line.Message{line.NewText(fmt.Sprintf(payLinkText, url))}, nil
}

func (m *Machine) handleSelectProduct(ctx context.Context, ev Event, sess *Session, categoryID int) ([]line.Message, error) {
	if sess.Stage < StageSelecting || sess.Stage > StageAdding || sess.OrderInProgress {
		return m.restart(ctx, ev, sess), nil
	}
	sess.Stage = StageAdding
	sess.OrderInProgress = true

	u, err := m.users.FindByLineID(ctx, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", ev.UserID, err)
	}

	// A second selection of the same category replaces the first: stale
	// enabled lines go disabled before the new insert.
	stale, err := m.drafts.ActiveBySessionCategory(ctx, sess.UserKey, categoryID)
	if err != nil {
		return nil, err
	}
	for _, s := range stale {
		log.Printf("duplicate draft for session %s category %d, disabling line %d", sess.UserKey, categoryID, s.ID)
		if err := m.drafts.Disable(ctx, s.ID); err != nil {
			return nil, err
		}
	}

	if err := m.drafts.Insert(ctx, &order.DraftLine{
		LineUserID:    ev.UserID,
		CustomerNo:    u.CustomerNo,
		UserKey:       sess.UserKey,
		TmpCategoryID: categoryID,
	}); err != nil {
		return nil, err
	}

	return []line.Message{m.quantityMessage(ctx, categoryID)}, nil
}

func (m *Machine) quantityMessage(ctx context.Context, categoryID int) line.Message {
	name := ""
	if tiers, err := m.products.TiersByCategory(ctx, categoryID); err == nil && len(tiers) > 0 {
		name = tiers[0].CategoryName
	}

	unit := order.UnitLabel(categoryID)
	actions := make([]line.Action, 0, len(quantityTiers))
	for _, n := range quantityTiers {
		actions = append(actions, line.Action{
			Type:  "message",
			Label: fmt.Sprintf("%d%s", n, unit),
			Text:  fmt.Sprintf("注文数:%d:%d", categoryID, n),
		})
	}
	return line.NewButtons(
		"注文数を選んでください。",
		"注文数を選んでください。",
		fmt.Sprintf("注文商品:%s", name),
		actions, nil, "",
	)
}

func (m *Machine) handleChooseQuantity(ctx context.Context, ev Event, sess *Session, categoryID, quantity int) ([]line.Message, error) {
	if sess.Stage < StageSelecting || sess.Stage > StageAdding || !sess.OrderInProgress {
		return m.restart(ctx, ev, sess), nil
	}
	sess.Stage = StageAdding
	sess.OrderInProgress = false

	if err := m.drafts.SetQuantity(ctx, sess.UserKey, categoryID, quantity); err != nil {
		return nil, err
	}
	summary, err := m.asm.Summary(ctx, sess.UserKey, false)
	if err != nil {
		return nil, fmt.Errorf("running summary: %w", err)
	}

	list, err := m.productListMessage(ctx, ev.UserID, summary, true)
	if err != nil {
		return nil, err
	}
	return []line.Message{list}, nil
}

// productListMessage renders the history-driven product menu. When the
// customer has no usable history the operator fallback text comes back
// instead of a button list.
func (m *Machine) productListMessage(ctx context.Context, lineUserID, runningSummary string, adding bool) (line.Message, error) {
	options, err := m.asm.ProductOptions(ctx, lineUserID)
	if errors.Is(err, order.ErrNotFound) {
		return line.NewText(firstOrderText), nil
	}
	if err != nil {
		return line.Message{}, err
	}

	actions := make([]line.Action, 0, len(options))
	for _, o := range options {
		actions = append(actions, line.Action{
			Type:  "message",
			Label: o.Label,
			Text:  fmt.Sprintf("商品ID:%d", o.CategoryID),
		})
	}

	title, text := menuTitle, menuText
	if adding {
		title, text = addingMenuTitle, runningSummary
	}
	return line.NewButtons(
		menuAltText, title, text, actions,
		&line.Action{Type: "message", Label: "はじめに戻る", Text: "same"},
		menuThumbnail,
	), nil
}
