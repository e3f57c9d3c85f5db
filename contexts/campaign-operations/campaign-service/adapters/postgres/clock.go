package postgresadapter

import "time"

// SystemClock stamps every lifecycle write in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
