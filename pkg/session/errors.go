package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/mallet/pkg/part"
)

// ErrKindNotOffered is returned when adding a kind users cannot create
// directly (custom, the legacy wedge, or an unknown name).
var ErrKindNotOffered = errors.New("kind cannot be added")

// IndexOutOfRangeError reports an index outside the part collection.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("part index %d out of range [0, %d)", e.Index, e.Len)
}

// LoadError reports a collection rejected by validation.
type LoadError struct {
	Findings []part.ValidationError
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Findings))
	for i, f := range e.Findings {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("invalid part collection: %s", strings.Join(msgs, "; "))
}
