package clock

import "time"

// Clock abstracts time so coupon validity windows and order transitions can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
