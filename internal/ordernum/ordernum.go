// Package ordernum issues the public order identifiers printed on
// confirmation emails and used for tracking lookups.
package ordernum

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const prefix = "ORD-"

// New returns an identifier of the form ORD-XXXXXXXX where the suffix is
// eight uppercase hex characters taken from a random UUID. Collisions are
// possible in theory; the unique constraint on orders.order_number is the
// authority, and callers retry on a constraint violation.
func New() string {
	u := uuid.New()
	return prefix + strings.ToUpper(hex.EncodeToString(u[:4]))
}
