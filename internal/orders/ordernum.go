package orders

import (
	"fmt"
	"math/rand"
	"time"
)

const orderNumberAttempts = 5

// OrderNumber formats the human-facing order reference: ORD-YYYYMMDD-RRRR.
// The random suffix keeps references unguessable enough for support flows;
// uniqueness is enforced by the database index with a retry on collision.
func OrderNumber(now time.Time, suffix int) string {
	return fmt.Sprintf("ORD-%s-%04d", now.UTC().Format("20060102"), suffix%10000)
}

func randomSuffix() int {
	return rand.Intn(10000)
}
