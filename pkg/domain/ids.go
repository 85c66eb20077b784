// Package domain provides type-safe identifiers shared across bounded contexts.
package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "wealthgate/pkg/domain-errors"
)

// OwnerID identifies a property owner. Listing data supplies its own ids, so
// any short URL-safe token is accepted; DeriveOwnerID mints one from a name.
type OwnerID string

// PropertyID identifies a listed property.
type PropertyID string

const maxIDLength = 128

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ownerNamespace scopes name-derived owner ids.
var ownerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:wealthgate:owner"))

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseOwnerID(s string) (OwnerID, error) {
	id, err := parseToken(s, "owner ID")
	return OwnerID(id), err
}

func ParsePropertyID(s string) (PropertyID, error) {
	id, err := parseToken(s, "property ID")
	return PropertyID(id), err
}

// DeriveOwnerID returns a stable UUIDv5 for the normalized owner name, so
// concurrent generations for the same person converge on one record.
func DeriveOwnerID(ownerName string) OwnerID {
	return OwnerID(uuid.NewSHA1(ownerNamespace, []byte(NormalizeName(ownerName))).String())
}

// NormalizeName lowercases and collapses whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (id OwnerID) String() string    { return string(id) }
func (id PropertyID) String() string { return string(id) }

func (id OwnerID) IsNil() bool    { return id == "" }
func (id PropertyID) IsNil() bool { return id == "" }

func parseToken(s, label string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxIDLength || !idPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return s, nil
}
