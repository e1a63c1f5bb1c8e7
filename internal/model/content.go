package model

// BlockKind classifies a block by how the crawler treats it.
// The set is closed: every block type maps to exactly one kind.
type BlockKind string

// Block kinds.
const (
	// KindText is a text-bearing leaf such as a paragraph, heading,
	// list item, callout, to-do or toggle.
	KindText BlockKind = "text"
	// KindImage is an image block; it is also recorded as media.
	KindImage BlockKind = "image"
	// KindTable is a table whose rows are fetched into a text grid.
	KindTable BlockKind = "table"
	// KindChildPage is a nested page, traversed recursively.
	KindChildPage BlockKind = "child_page"
	// KindChildDatabase is an embedded database, processed once per run.
	KindChildDatabase BlockKind = "child_database"
	// KindSyncedBlock is either a synced original or a reference to one.
	KindSyncedBlock BlockKind = "synced_block"
	// KindContainer is any other block that has children.
	KindContainer BlockKind = "container"
	// KindOther is a leaf the crawler records without a payload.
	KindOther BlockKind = "other"
)

// textBlockTypes are the block types that carry rich text.
var textBlockTypes = map[string]bool{
	"paragraph":          true,
	"heading_1":          true,
	"heading_2":          true,
	"heading_3":          true,
	"bulleted_list_item": true,
	"numbered_list_item": true,
	"to_do":              true,
	"toggle":             true,
	"quote":              true,
	"callout":            true,
	"code":               true,
}

// ClassifyBlock maps a remote block type to its kind.
// Text blocks with children (for example a toggle) are still KindText;
// the crawler descends into their children separately.
func ClassifyBlock(blockType string, hasChildren bool) BlockKind {
	switch blockType {
	case "image":
		return KindImage
	case "table":
		return KindTable
	case "child_page":
		return KindChildPage
	case "child_database":
		return KindChildDatabase
	case "synced_block":
		return KindSyncedBlock
	}
	if textBlockTypes[blockType] {
		return KindText
	}
	if hasChildren {
		return KindContainer
	}
	return KindOther
}

// BreadcrumbSeparator joins ancestor titles in a location path.
const BreadcrumbSeparator = " → "

// ContentNode is one visited block of the raw content tree.
// Kind-specific fields are only set for the matching kind.
type ContentNode struct {
	// BlockID is the remote block id.
	BlockID string `json:"blockId"`
	// Type is the remote block type, such as "heading_2" or "column_list".
	Type string `json:"type"`
	// Kind is the crawler's classification of Type.
	Kind BlockKind `json:"kind"`
	// Depth is the distance from the traversal root. Root-level blocks have depth 0.
	Depth int `json:"depth"`
	// ParentType is "page" for blocks directly under a page.
	ParentType string `json:"parentType"`
	// Location is the breadcrumb of the owning page, titles joined by BreadcrumbSeparator.
	Location       string `json:"location"`
	LastEditedTime string `json:"last_edited_time,omitempty"`

	RichText []TextRun `json:"rich_text,omitempty"`

	// Image payload.
	URL             string    `json:"url,omitempty"`
	Caption         string    `json:"caption,omitempty"`
	CaptionRichText []TextRun `json:"caption_rich_text,omitempty"`
	ParentPageID    string    `json:"parent_page_id,omitempty"`

	// Table payload. Rows holds the plain text of every cell.
	Table *TableInfo `json:"table,omitempty"`
	Rows  [][]string `json:"rows,omitempty"`

	// Child page payload.
	PageID    string `json:"page_id,omitempty"`
	PageTitle string `json:"page_title,omitempty"`
	// Revisit marks a child page already traversed from another branch.
	// Its content lives under the node that traversed it.
	Revisit bool `json:"revisit,omitempty"`

	// Child database payload.
	DatabaseID string `json:"database_id,omitempty"`

	// SyncedRef is set on synced blocks that reference an original elsewhere.
	SyncedRef *SyncedRef `json:"synced_ref,omitempty"`

	Children []*ContentNode `json:"children,omitempty"`

	// Error records why the node's subtree could not be fetched.
	Error string `json:"error,omitempty"`
}

// TableInfo holds the dimensions and header flags of a table block.
type TableInfo struct {
	Width           int  `json:"width"`
	HasColumnHeader bool `json:"has_column_header"`
	HasRowHeader    bool `json:"has_row_header"`
}

// SyncedRef marks a synced block whose content lives in another block.
type SyncedRef struct {
	Type            string `json:"type"`
	OriginalBlockID string `json:"original_block_id"`
}

// TextRun is one styled run of rich text.
type TextRun struct {
	PlainText   string    `json:"plain_text"`
	Href        *string   `json:"href"`
	Annotations TextStyle `json:"annotations"`
}

// TextStyle keeps the annotations worth reporting.
// Color is empty for the default color.
type TextStyle struct {
	Bold   bool   `json:"bold"`
	Italic bool   `json:"italic"`
	Code   bool   `json:"code"`
	Color  string `json:"color,omitempty"`
}

// Walk calls fn for every node in nodes and their descendants, depth first.
// Walking stops early when fn returns false.
func Walk(nodes []*ContentNode, fn func(*ContentNode) bool) bool {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if !fn(n) {
			return false
		}
		if !Walk(n.Children, fn) {
			return false
		}
	}
	return true
}
