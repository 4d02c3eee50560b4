package authkit

import (
	"strings"
)

// Resource identifiers are hierarchical, path-like strings ("docs/readme").
// The engine never parses them into a tree; the only structural operation it
// supports is string prefix comparison, which powers prefix aggregation and
// cascading prefix deletion.

// HasResourcePrefix reports whether a resource id falls under a prefix.
// The empty prefix matches every resource.
func HasResourcePrefix(resourceID, prefix string) bool {
	return strings.HasPrefix(resourceID, prefix)
}

// likePrefixPattern builds a SQL LIKE pattern matching ids that start with
// prefix, escaping the LIKE metacharacters so they match literally.
func likePrefixPattern(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 1)
	for _, r := range prefix {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')
	return b.String()
}

const maxIDLength = 512

// ValidateID checks a caller-assigned identifier (tenant, user, role, or
// resource id). Resource ids may use '/' to express hierarchy.
func ValidateID(id string) error {
	if id == "" {
		return NewError(ErrValidation, "identifier cannot be empty")
	}
	if len(id) > maxIDLength {
		return NewError(ErrValidation, "identifier exceeds maximum length")
	}
	for _, r := range id {
		if !isValidIDChar(r) {
			return NewError(ErrValidation, "identifier contains invalid character")
		}
	}
	return nil
}

// ValidateAction checks a grant action. Actions are flat names like "read"
// or "edit"; they carry no hierarchy and no wildcards.
func ValidateAction(action string) error {
	if action == "" {
		return NewError(ErrValidation, "action cannot be empty")
	}
	if len(action) > maxIDLength {
		return NewError(ErrValidation, "action exceeds maximum length")
	}
	for _, r := range action {
		if !isValidIDChar(r) || r == '/' {
			return NewError(ErrValidation, "action contains invalid character")
		}
	}
	return nil
}

// ValidateResourcePrefix checks a prefix used for aggregation or bulk
// deletion. The empty prefix is valid for aggregation; bulk deletion guards
// it separately through the safety key.
func ValidateResourcePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	return ValidateID(prefix)
}

func isValidIDChar(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return true
	}
	switch r {
	case '_', '-', '.', '/', ':', '@':
		return true
	}
	return false
}
