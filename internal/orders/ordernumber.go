package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const orderNumberPrefix = "ORD"

// generateOrderNumber builds a human-readable order number from the current
// timestamp plus a random 3-digit suffix. Two orders placed in the same
// second can collide; callers retry on the unique index.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s%s%03d", orderNumberPrefix, now.UTC().Format("20060102150405"), rand.IntN(1000))
}
