package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOrderNumberTaken reports that an insert hit the unique constraint on
// orders.order_number. The service retries once with a fresh number before
// giving up.
var ErrOrderNumberTaken = errors.New("order number already taken")

// ValidationError carries per-field problems with a create request.
// Keys follow the wire field names, with items addressed as items[i].field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
