package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// NormalizeTags trims and lower-cases tags, drops empties and duplicates
// (keeping first occurrence order) and enforces the count and length limits.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLen {
			return nil, &ValidationError{Field: "tags", Message: fmt.Sprintf("Tag %q must be %d characters or less.", tag, MaxTagLen)}
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, &ValidationError{Field: "tags", Message: fmt.Sprintf("A maximum of %d tags is allowed.", MaxTags)}
	}
	return out, nil
}
