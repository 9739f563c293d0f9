package core

import (
	"fmt"
	"strings"
	"unicode"
)

// SafeFilename derives a stable, filesystem-safe file stem from the registry
// title and id, e.g. "Test Trip!" with id 1 becomes "test_trip__1".
func SafeFilename(r Registry) string {
	safe := strings.Map(func(c rune) rune {
		if unicode.IsLetter(c) || unicode.IsNumber(c) || c == ' ' || c == '-' || c == '_' {
			return c
		}
		return '_'
	}, r.Title)
	safe = strings.TrimSpace(safe)
	safe = strings.ReplaceAll(safe, " ", "_")
	return fmt.Sprintf("%s_%d", strings.ToLower(safe), r.ID)
}
