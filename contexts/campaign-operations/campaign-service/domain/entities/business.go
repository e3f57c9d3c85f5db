package entities

import (
	"strings"
	"time"
)

type Business struct {
	BusinessID  string
	Name        string
	Slug        string
	Description string
	Website     string
	BrandColors []string
	Settings    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Slugify lowercases value, collapses every run of non [a-z0-9] characters to
// a single "-" and trims leading/trailing dashes: "Joe's Diner!!" -> "joe-s-diner".
func Slugify(value string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
