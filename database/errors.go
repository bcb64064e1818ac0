package database

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

// UnknownOptionsError reports option ids a survey referenced that do not exist.
type UnknownOptionsError struct {
	IDs []int64
}

func (e *UnknownOptionsError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return "unknown options: " + strings.Join(ids, ", ")
}
