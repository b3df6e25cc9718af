// Message types passed between till tasks through single slot mailboxes.
package types

import (
	"fmt"

	"github.com/temoto/till/currency"
)

// Item is identity of produce button, also name of its receipt icon.
type Item string

type InputKind uint8

const (
	InputInvalid InputKind = iota
	InputProduce
	InputVoid
	InputTotal
)

func (k InputKind) String() string {
	switch k {
	case InputProduce:
		return "Produce"
	case InputVoid:
		return "Void"
	case InputTotal:
		return "Total"
	}
	return fmt.Sprintf("InputKind(%d)", uint8(k))
}

// InputEvent is produced by button watcher, consumed by transaction state machine.
// Item and Price are only meaningful for InputProduce.
type InputEvent struct {
	Kind  InputKind
	Item  Item
	Price currency.Amount
}

func (e InputEvent) String() string {
	if e.Kind == InputProduce {
		return fmt.Sprintf("Input(%s item=%s price=%s)", e.Kind.String(), e.Item, e.Price.Format())
	}
	return fmt.Sprintf("Input(%s)", e.Kind.String())
}

type PrintKind uint8

const (
	PrintInvalid PrintKind = iota
	PrintHeader
	PrintLine
	PrintTotal
	PrintVoid
)

func (k PrintKind) String() string {
	switch k {
	case PrintHeader:
		return "Header"
	case PrintLine:
		return "Line"
	case PrintTotal:
		return "Total"
	case PrintVoid:
		return "Void"
	}
	return fmt.Sprintf("PrintKind(%d)", uint8(k))
}

// PrintIntent is produced by state machine, consumed by receipt driver.
type PrintIntent struct {
	Kind  PrintKind
	Item  Item            // PrintLine
	Price currency.Amount // PrintLine, PrintTotal
}

func (p PrintIntent) String() string {
	switch p.Kind {
	case PrintLine:
		return fmt.Sprintf("Print(%s item=%s price=%s)", p.Kind.String(), p.Item, p.Price.Format())
	case PrintTotal:
		return fmt.Sprintf("Print(%s price=%s)", p.Kind.String(), p.Price.Format())
	}
	return fmt.Sprintf("Print(%s)", p.Kind.String())
}

type LedKind uint8

const (
	LedNoop LedKind = iota
	LedSetColor
	LedDefault
	LedOff
)

func (k LedKind) String() string {
	switch k {
	case LedNoop:
		return "Noop"
	case LedSetColor:
		return "SetColor"
	case LedDefault:
		return "Default"
	case LedOff:
		return "Off"
	}
	return fmt.Sprintf("LedKind(%d)", uint8(k))
}

// RGBW is 8 bit per channel color request, wire encoding belongs to LED driver.
type RGBW struct{ R, G, B, W uint8 }

// LedState is consumed exactly once by LED driver.
// Zero value is LedNoop: driver does nothing.
type LedState struct {
	Kind  LedKind
	Color RGBW // LedSetColor
}

func LedColor(c RGBW) LedState { return LedState{Kind: LedSetColor, Color: c} }

func (s LedState) String() string {
	if s.Kind == LedSetColor {
		return fmt.Sprintf("Led(%s r=%d g=%d b=%d w=%d)", s.Kind.String(), s.Color.R, s.Color.G, s.Color.B, s.Color.W)
	}
	return fmt.Sprintf("Led(%s)", s.Kind.String())
}
