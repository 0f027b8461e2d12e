package domain

import "errors"

// ErrorSentinel is the display text shown when a calculation cannot be completed.
const ErrorSentinel = "Error"

// ErrInvalidExpression is returned when an expression contains characters outside the
// arithmetic alphabet or does not match the arithmetic grammar.
var ErrInvalidExpression = errors.New("invalid expression")

// ErrInvalidResult is returned when an evaluation produces a non-finite number.
var ErrInvalidResult = errors.New("invalid result")

// ErrDomain is returned when a function is undefined for its operand (e.g. sqrt(-1)).
var ErrDomain = errors.New("domain error")

// ErrInvalidOperand is returned when a function receives a non-numeric or non-finite operand.
var ErrInvalidOperand = errors.New("invalid operand")

// ErrUnknownFunction is returned when a function name is not registered.
var ErrUnknownFunction = errors.New("unknown function")

// ErrUnknownKey is returned when a button label cannot be mapped to a key.
var ErrUnknownKey = errors.New("unknown key")

// ErrHistoryIndex is returned when a history selection is out of range.
var ErrHistoryIndex = errors.New("history index out of range")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
