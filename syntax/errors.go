package syntax

import (
	"fmt"

	"github.com/gosh-lang/gosh/token"
)

// ParseError is returned by Parse whenever the source cannot be turned into
// a complete AST. Per spec §4.1, a ParseError always aborts the entire
// input unit; Parse never returns a partial *File alongside a non-nil
// error.
type ParseError struct {
	Position token.Position
	Msg      string
	// Expected names the set of token/word spellings that would have let
	// parsing continue, when known. May be empty.
	Expected []string
}

func (e *ParseError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("%s: %s", e.Position, e.Msg)
	}
	return fmt.Sprintf("%s: %s (expected %v)", e.Position, e.Msg, e.Expected)
}
