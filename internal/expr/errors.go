package expr

import (
	"fmt"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Error reports where and why an expression was rejected. Pos is a
// zero-based byte offset into Source.
type Error struct {
	Source string
	Pos    int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s at position %d in %q", dynamo.ErrExpression, e.Msg, e.Pos, e.Source)
}

func (e *Error) Unwrap() error {
	return dynamo.ErrExpression
}
