// Package conversation owns the per-user ordering dialogue: command parsing,
// session state and the stage machine that turns inbound messages into reply
// payloads.
package conversation

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// ErrBadCommand means a marker command had a malformed shape.
var ErrBadCommand = errors.New("malformed command")

type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdBreak
	CmdEdit
	CmdRepeat
	CmdConfirmYes
	CmdConfirmNo
	CmdReturn
	CmdOrderOK
	CmdFinal
	CmdCOD
	CmdCard
	CmdSelectProduct
	CmdChooseQuantity
)

// Markers embedded in button-generated messages.
const (
	markerProduct  = "商品ID"
	markerQuantity = "注文数"
)

// Command is one decoded inbound message.
type Command struct {
	Kind       CommandKind
	CategoryID int
	Quantity   int
}

// Parse decodes a raw message text into a Command. Matching is exact-string
// after folding full-width characters to half-width and lower-casing; free
// text is inspected for the product/quantity markers and split on ":".
func Parse(text string) (Command, error) {
	folded := strings.ToLower(strings.TrimSpace(width.Narrow.String(text)))

	switch folded {
	case "break":
		return Command{Kind: CmdBreak}, nil
	case "edit":
		return Command{Kind: CmdEdit}, nil
	case "same":
		return Command{Kind: CmdRepeat}, nil
	case "yes":
		return Command{Kind: CmdConfirmYes}, nil
	case "no", "others":
		return Command{Kind: CmdConfirmNo}, nil
	case "return":
		return Command{Kind: CmdReturn}, nil
	case "ok":
		return Command{Kind: CmdOrderOK}, nil
	case "final":
		return Command{Kind: CmdFinal}, nil
	case "cod":
		return Command{Kind: CmdCOD}, nil
	case "card":
		return Command{Kind: CmdCard}, nil
	}

	narrowed := width.Narrow.String(text)

	if strings.Contains(narrowed, markerProduct) {
		parts := strings.Split(narrowed, ":")
		if len(parts) < 2 {
			return Command{}, ErrBadCommand
		}
		cat, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Command{}, ErrBadCommand
		}
		return Command{Kind: CmdSelectProduct, CategoryID: cat}, nil
	}

	if strings.Contains(narrowed, markerQuantity) {
		parts := strings.Split(narrowed, ":")
		if len(parts) < 3 {
			return Command{}, ErrBadCommand
		}
		cat, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Command{}, ErrBadCommand
		}
		qty, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return Command{}, ErrBadCommand
		}
		return Command{Kind: CmdChooseQuantity, CategoryID: cat, Quantity: qty}, nil
	}

	return Command{Kind: CmdUnknown}, nil
}
