package lattice

import (
	"github.com/cs-au-dk/golisa/utils"

	"github.com/fatih/color"
)

// Colorize exposes the color scheme used when printing abstract values, so
// that domains outside this package print consistently.
var Colorize = struct {
	Lattice func(...interface{}) string
	Element func(...interface{}) string
	Const   func(...interface{}) string
	Key     func(...interface{}) string
	Attr    func(...interface{}) string
}{
	Lattice: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiBlue).SprintFunc())(is...)
	},
	Element: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
	Const: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
	Key: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
	Attr: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
}

const (
	topString = "⊤"
	botString = "⊥"
)

// TopString and BotString are the colorized representations of the
// extremes, shared by every domain.
func TopString() string { return Colorize.Const(topString) }

func BotString() string { return Colorize.Const(botString) }
