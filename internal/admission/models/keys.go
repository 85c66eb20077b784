package models

import (
	"strings"
)

// CounterKey builds the storage key "{prefix}:{identifier}" for a policy.
// The identifier is escaped so a caller-controlled value containing ':'
// cannot address another operation's bucket.
func CounterKey(p Policy, identifier string) string {
	prefix := p.KeyPrefix
	if prefix == "" {
		prefix = string(p.Operation)
	}
	return prefix + ":" + sanitizeKeySegment(identifier)
}

// sanitizeKeySegment escapes '_' as "__" and then ':' as "_c". Escaping the
// escape character first keeps the mapping injective.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
