package booking

import (
	"fmt"
	"math/rand"
	"time"
)

// newBookingNumber builds a booking number of the form YYMMDD-RRRTTTT:
// the creation date, three random digits and the last four digits of the
// current unix millisecond clock. Uniqueness is ultimately enforced by the
// database; callers regenerate on collision.
func newBookingNumber(now time.Time, randInt func(n int) int) string {
	return fmt.Sprintf("%s-%03d%04d",
		now.Format("060102"),
		randInt(1000),
		now.UnixMilli()%10000,
	)
}

// defaultRandInt is the production random source for booking numbers.
func defaultRandInt(n int) int {
	return rand.Intn(n)
}
