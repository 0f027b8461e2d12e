package tui

import (
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit          key.Binding
	Equals        key.Binding
	Delete        key.Binding
	Clear         key.Binding
	ToggleHistory key.Binding
	Up            key.Binding
	Down          key.Binding
	ClearHistory  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Equals: key.NewBinding(
			key.WithKeys("enter", "="),
			key.WithHelp("enter", "equals"),
		),
		Delete: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "delete"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc", "C"),
			key.WithHelp("esc", "clear"),
		),
		ToggleHistory: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "newer"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "older"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear history"),
		),
	}
}

// functionKeys maps single letters to function buttons, since the keyboard has no √ or x².
var functionKeys = map[string]string{
	"s": domain.FuncSin,
	"c": domain.FuncCos,
	"t": domain.FuncTan,
	"r": domain.FuncSqrt,
	"^": domain.FuncSquare,
	"%": domain.FuncPercent,
	"p": domain.FuncPi,
}

// keypadKey maps a terminal key to a calculator key: digits, '.', operators,
// parentheses and the function letters.
func keypadKey(s string) (domain.Key, bool) {
	if name, ok := functionKeys[s]; ok {
		return domain.Key{Kind: domain.KeyFunction, Value: name}, true
	}
	switch s {
	case "+", "-", "*", "/", ".", ",", "(", ")",
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		k, err := domain.ParseKey(s)
		return k, err == nil
	}
	return domain.Key{}, false
}
