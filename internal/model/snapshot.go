package model

import "time"

// RootType is the classification of the root id.
type RootType string

// Root types.
const (
	RootUnresolved RootType = "unresolved"
	RootPage       RootType = "page"
	RootDatabase   RootType = "database"
	RootUnknown    RootType = "unknown"
)

// Snapshot is everything one traversal produced, before normalization.
// Pages and Databases are in first-seen order.
type Snapshot struct {
	// RootID is the id the scan was started with.
	RootID   string   `json:"rootId"`
	RootType RootType `json:"rootType"`
	// RootTitle is the title of the traversal root page, or of the root
	// database when no page could be traversed.
	RootTitle string `json:"rootTitle"`
	// StartPageID is the page the block traversal started from. It differs
	// from RootID when the root is a database with a page parent, and is
	// empty when no page could be traversed.
	StartPageID string `json:"startPageId,omitempty"`

	Pages     []*PageRecord     `json:"pages"`
	Databases []*DatabaseRecord `json:"databases"`
	Content   []*ContentNode    `json:"pageContent"`
	// Images are the image nodes of Content, in visit order.
	Images []*ContentNode `json:"images"`
	Edges  []GraphEdge    `json:"edges"`

	Stats ScanStats `json:"stats"`
}

// Page returns the page record with the given id.
func (s *Snapshot) Page(id string) (*PageRecord, bool) {
	for _, p := range s.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Database returns the database record with the given id.
func (s *Snapshot) Database(id string) (*DatabaseRecord, bool) {
	for _, d := range s.Databases {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// ScanStats counts the work and the non-fatal problems of a traversal.
type ScanStats struct {
	BlocksFetched int64     `json:"blocksFetched"`
	Truncations   int       `json:"truncations"`
	Failures      []Failure `json:"failures,omitempty"`
}

// Truncated reports whether the block budget cut any listing short.
func (s ScanStats) Truncated() bool {
	return s.Truncations > 0
}

// FailureScope is the kind of entity a Failure concerns.
type FailureScope string

// Failure scopes.
const (
	FailureDatabase FailureScope = "database"
	FailurePage     FailureScope = "page"
	FailureBlock    FailureScope = "block"
	FailureRelation FailureScope = "relation"
	FailureComments FailureScope = "comments"
)

// Failure is a non-fatal per-entity failure.
type Failure struct {
	Scope   FailureScope `json:"scope"`
	ID      string       `json:"id"`
	Message string       `json:"message"`
}

// CommentRecord is a top-level comment on the root page.
type CommentRecord struct {
	ID          string        `json:"id"`
	CreatedTime string        `json:"created_time"`
	RichText    []CommentText `json:"rich_text"`
}

// CommentText is one run of comment text.
type CommentText struct {
	PlainText string  `json:"plain_text"`
	Href      *string `json:"href"`
}

// FormatTime formats remote timestamps the way the remote API does.
// The zero time formats as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
