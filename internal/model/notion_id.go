package model

import (
	"errors"
	"regexp"
	"strings"
)

// NotionID errors.
var (
	// ErrEmptyNotionID is returned when no id was given.
	ErrEmptyNotionID = errors.New("notion id cannot be empty")
	// ErrInvalidNotionID is returned when the id is neither a dashed UUID nor 32 hex characters.
	ErrInvalidNotionID = errors.New("invalid notion id: provide a UUID with dashes or a 32-character hex id")
	// ErrPlaceholderNotionID is returned for template placeholders left in configuration.
	ErrPlaceholderNotionID = errors.New("notion id is a placeholder: replace it with a real page or database id")
)

var (
	dashedUUIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	compactHexPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
)

// placeholderIDs are values shipped in example configs and docs.
var placeholderIDs = map[string]bool{
	"YOUR_RICH_TEMPLATE_PAGE_ID": true,
	"your_template_id":           true,
	"YOUR_PAGE_ID":               true,
	"PAGE_ID":                    true,
	"INSERT_PAGE_ID":             true,
}

// NotionID is a validated page or database id as the user typed it.
type NotionID struct {
	raw string
}

// NewNotionID validates id. Surrounding whitespace is ignored.
func NewNotionID(id string) (NotionID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return NotionID{}, ErrEmptyNotionID
	}
	if placeholderIDs[id] {
		return NotionID{}, ErrPlaceholderNotionID
	}
	if !dashedUUIDPattern.MatchString(id) && !compactHexPattern.MatchString(id) {
		return NotionID{}, ErrInvalidNotionID
	}
	return NotionID{raw: id}, nil
}

// String returns the id as given.
func (n NotionID) String() string {
	return n.raw
}

// Compact returns the id as 32 lowercase hex characters.
func (n NotionID) Compact() string {
	return CompactID(n.raw)
}

// Masked returns the id with its first and last four characters hidden.
func (n NotionID) Masked() string {
	return MaskID(n.raw)
}

// IsZero reports whether n is the zero value.
func (n NotionID) IsZero() bool {
	return n.raw == ""
}

// CompactID strips dashes and lowercases id.
func CompactID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// SameID reports whether a and b name the same object regardless of dashes or case.
func SameID(a, b string) bool {
	return CompactID(a) == CompactID(b)
}

// MaskID hides the first and last four characters of id for logs.
// Ids shorter than nine characters are fully masked.
func MaskID(id string) string {
	if len(id) < 9 {
		return "********"
	}
	return "****" + id[4:len(id)-4] + "****"
}
