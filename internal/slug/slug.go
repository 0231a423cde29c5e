// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives URL-friendly category slugs from display names.
package slug

import (
	"regexp"
	"strings"
)

// separators matches every run of characters that is not a letter, digit,
// or combining mark. Thai vowel and tone marks are combining marks, so Thai
// names keep all their characters.
var separators = regexp.MustCompile(`[^\p{L}\p{N}\p{M}]+`)

// Generate creates a slug from the given name.
// Example: "Round Frames 2026!" → "round-frames-2026"
func Generate(s string) string {
	result := strings.ToLower(s)
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
