package tradein

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientAmount is reported when the amount exceeds the sender's balance
	ErrInsufficientAmount = errors.New("insufficient amount")
	// ErrInvalidNumberAmount is reported when the amount can not be parsed as a number
	ErrInvalidNumberAmount = errors.New("invalid number amount")
)

// RouteError wraps a failure of the route optimizer
type RouteError struct {
	TokenInDenom  string
	TokenOutDenom string
	Err           error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("failed to route %s -> %s: %v", e.TokenInDenom, e.TokenOutDenom, e.Err)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}
