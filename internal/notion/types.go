package notion

import (
	"time"
)

// PaginatedResponse is the envelope shared by every list endpoint.
type PaginatedResponse[T any] struct {
	Object     string  `json:"object"`
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Cursor returns the next cursor, or "" when there is none.
func (r *PaginatedResponse[T]) Cursor() string {
	if r == nil || r.NextCursor == nil {
		return ""
	}
	return *r.NextCursor
}

// BlocksResponse is returned by the block children endpoint.
type BlocksResponse = PaginatedResponse[Block]

// QueryResponse is returned by the database query endpoint.
type QueryResponse = PaginatedResponse[Page]

// CommentsResponse is returned by the comments endpoint.
type CommentsResponse = PaginatedResponse[Comment]

// PropertyItemResponse is returned by the page property endpoint for
// paginated property types (title, rich_text, relation, people, rollup).
type PropertyItemResponse struct {
	PaginatedResponse[PropertyItem]

	// PropertyItem describes the property being paginated.
	PropertyItem *PropertyItem `json:"property_item,omitempty"`
}

// Parent identifies the container of a page, database or block.
type Parent struct {
	Type       string `json:"type"` // "database_id", "page_id", "workspace", "block_id"
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

// IsPage reports whether the parent is a page.
func (p Parent) IsPage() bool {
	return p.Type == "page_id" && p.PageID != ""
}

// Page is a Notion page. Database rows are pages too.
type Page struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	Parent         Parent                   `json:"parent"`
	Archived       bool                     `json:"archived"`
	Properties     map[string]PropertyValue `json:"properties"`
	URL            string                   `json:"url"`
	Icon           *Icon                    `json:"icon,omitempty"`
	Cover          *File                    `json:"cover,omitempty"`
}

// Database is a Notion database and its property schema.
type Database struct {
	Object         string                `json:"object"`
	ID             string                `json:"id"`
	CreatedTime    time.Time             `json:"created_time"`
	LastEditedTime time.Time             `json:"last_edited_time"`
	Title          []RichText            `json:"title"`
	Description    []RichText            `json:"description"`
	Properties     map[string]DBProperty `json:"properties"`
	Parent         Parent                `json:"parent"`
	URL            string                `json:"url"`
	Icon           *Icon                 `json:"icon,omitempty"`
	Cover          *File                 `json:"cover,omitempty"`
	Archived       bool                  `json:"archived"`
	IsInline       bool                  `json:"is_inline"`
}

// DBProperty is one column definition of a database schema.
type DBProperty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`

	Select      *SelectConfig   `json:"select,omitempty"`
	MultiSelect *SelectConfig   `json:"multi_select,omitempty"`
	Status      *SelectConfig   `json:"status,omitempty"`
	Formula     *FormulaConfig  `json:"formula,omitempty"`
	Relation    *RelationConfig `json:"relation,omitempty"`
	Rollup      *RollupConfig   `json:"rollup,omitempty"`
}

// SelectConfig lists the options of a select, multi_select or status column.
type SelectConfig struct {
	Options []SelectOption `json:"options"`
}

// SelectOption is one option of a select-like column.
type SelectOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// FormulaConfig holds a formula column's expression.
type FormulaConfig struct {
	Expression string `json:"expression"`
}

// RelationConfig describes a relation column.
type RelationConfig struct {
	DatabaseID         string              `json:"database_id"`
	Type               string              `json:"type"` // "single_property" or "dual_property"
	DualProperty       *DualPropertyConfig `json:"dual_property,omitempty"`
	SyncedPropertyName string              `json:"synced_property_name,omitempty"`
	PropertyName       string              `json:"property_name,omitempty"`
}

// DualPropertyConfig describes the mirrored side of a two-way relation.
type DualPropertyConfig struct {
	SyncedPropertyName string `json:"synced_property_name"`
	SyncedPropertyID   string `json:"synced_property_id"`
}

// RollupConfig describes a rollup column.
type RollupConfig struct {
	RelationPropertyName string `json:"relation_property_name"`
	RelationPropertyID   string `json:"relation_property_id"`
	RollupPropertyName   string `json:"rollup_property_name"`
	RollupPropertyID     string `json:"rollup_property_id"`
	Function             string `json:"function"`
}

// PropertyValue is a property value on a page.
// Only the field matching Type is populated.
type PropertyValue struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	Title          []RichText      `json:"title,omitempty"`
	RichText       []RichText      `json:"rich_text,omitempty"`
	Number         *float64        `json:"number,omitempty"`
	Select         *SelectOption   `json:"select,omitempty"`
	MultiSelect    []SelectOption  `json:"multi_select,omitempty"`
	Status         *SelectOption   `json:"status,omitempty"`
	Date           *DateValue      `json:"date,omitempty"`
	Checkbox       *bool           `json:"checkbox,omitempty"`
	URL            *string         `json:"url,omitempty"`
	Email          *string         `json:"email,omitempty"`
	PhoneNumber    *string         `json:"phone_number,omitempty"`
	Formula        *FormulaValue   `json:"formula,omitempty"`
	Relation       []RelationValue `json:"relation,omitempty"`
	People         []Person        `json:"people,omitempty"`
	CreatedTime    *time.Time      `json:"created_time,omitempty"`
	LastEditedTime *time.Time      `json:"last_edited_time,omitempty"`
	UniqueID       *UniqueIDValue  `json:"unique_id,omitempty"`

	// HasMore is set on relation values truncated by the query endpoint.
	HasMore bool `json:"has_more,omitempty"`
}

// PropertyItem is one element returned by the page property endpoint.
// Unlike PropertyValue, list-like types carry a single element per item.
type PropertyItem struct {
	Object   string         `json:"object"`
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Title    *RichText      `json:"title,omitempty"`
	RichText *RichText      `json:"rich_text,omitempty"`
	Relation *RelationValue `json:"relation,omitempty"`
	People   *Person        `json:"people,omitempty"`
}

// DateValue is a date or date range.
type DateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// FormulaValue is the computed result of a formula.
type FormulaValue struct {
	Type    string     `json:"type"` // "string", "number", "boolean", "date"
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

// RelationValue points at a related page.
type RelationValue struct {
	ID string `json:"id"`
}

// Person is a Notion user.
type Person struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
}

// UniqueIDValue is an auto-incremented id column value.
type UniqueIDValue struct {
	Prefix *string `json:"prefix,omitempty"`
	Number int     `json:"number"`
}

// RichText is one styled run of text.
type RichText struct {
	Type        string       `json:"type"` // "text", "mention", "equation"
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text"`
	Href        *string      `json:"href,omitempty"`
}

// Annotations holds a run's styling.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// Icon is a page or database icon.
type Icon struct {
	Type     string `json:"type"` // "emoji", "external", "file"
	Emoji    string `json:"emoji,omitempty"`
	External *File  `json:"external,omitempty"`
	File     *File  `json:"file,omitempty"`
}

// File is either a hosted file or an external URL. Covers use the
// same shape with a Type discriminator.
type File struct {
	Type       string     `json:"type,omitempty"` // "file" or "external" (covers only)
	URL        string     `json:"url,omitempty"`
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`
	External   *File      `json:"external,omitempty"`
	File       *File      `json:"file,omitempty"`
}

// Comment is a comment attached to a page or block.
type Comment struct {
	Object       string     `json:"object"`
	ID           string     `json:"id"`
	DiscussionID string     `json:"discussion_id"`
	CreatedTime  time.Time  `json:"created_time"`
	RichText     []RichText `json:"rich_text"`
}

// Block is one content block. Only the field matching Type is populated.
type Block struct {
	Object         string    `json:"object"`
	ID             string    `json:"id"`
	Parent         Parent    `json:"parent"`
	Type           string    `json:"type"`
	CreatedTime    time.Time `json:"created_time"`
	LastEditedTime time.Time `json:"last_edited_time"`
	Archived       bool      `json:"archived"`
	HasChildren    bool      `json:"has_children"`

	Paragraph        *TextBlock          `json:"paragraph,omitempty"`
	Heading1         *TextBlock          `json:"heading_1,omitempty"`
	Heading2         *TextBlock          `json:"heading_2,omitempty"`
	Heading3         *TextBlock          `json:"heading_3,omitempty"`
	BulletedListItem *TextBlock          `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock          `json:"numbered_list_item,omitempty"`
	ToDo             *TextBlock          `json:"to_do,omitempty"`
	Toggle           *TextBlock          `json:"toggle,omitempty"`
	Quote            *TextBlock          `json:"quote,omitempty"`
	Callout          *TextBlock          `json:"callout,omitempty"`
	Code             *TextBlock          `json:"code,omitempty"`
	Image            *MediaBlock         `json:"image,omitempty"`
	SyncedBlock      *SyncedBlockContent `json:"synced_block,omitempty"`
	Table            *TableBlock         `json:"table,omitempty"`
	TableRow         *TableRowBlock      `json:"table_row,omitempty"`
	ChildPage        *ChildBlock         `json:"child_page,omitempty"`
	ChildDatabase    *ChildBlock         `json:"child_database,omitempty"`
}

// RichTextContent returns the rich text of text-bearing blocks.
// The second result is false for block types without rich text.
func (b *Block) RichTextContent() ([]RichText, bool) {
	var tb *TextBlock
	switch b.Type {
	case "paragraph":
		tb = b.Paragraph
	case "heading_1":
		tb = b.Heading1
	case "heading_2":
		tb = b.Heading2
	case "heading_3":
		tb = b.Heading3
	case "bulleted_list_item":
		tb = b.BulletedListItem
	case "numbered_list_item":
		tb = b.NumberedListItem
	case "to_do":
		tb = b.ToDo
	case "toggle":
		tb = b.Toggle
	case "quote":
		tb = b.Quote
	case "callout":
		tb = b.Callout
	case "code":
		tb = b.Code
	}
	if tb == nil {
		return nil, false
	}
	return tb.RichText, true
}

// TextBlock is the payload shared by text-bearing block types.
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
	Checked  bool       `json:"checked,omitempty"`
	Icon     *Icon      `json:"icon,omitempty"`
	Language string     `json:"language,omitempty"`
}

// MediaBlock is the payload of an image block.
type MediaBlock struct {
	Type     string     `json:"type"` // "file" or "external"
	File     *File      `json:"file,omitempty"`
	External *File      `json:"external,omitempty"`
	Caption  []RichText `json:"caption,omitempty"`
}

// SyncedBlockContent is the payload of a synced block.
// SyncedFrom is nil on the original block.
type SyncedBlockContent struct {
	SyncedFrom *SyncedFrom `json:"synced_from"`
}

// SyncedFrom points at the original of a synced block.
type SyncedFrom struct {
	Type    string `json:"type"`
	BlockID string `json:"block_id"`
}

// TableBlock is the payload of a table block.
type TableBlock struct {
	TableWidth      int  `json:"table_width"`
	HasColumnHeader bool `json:"has_column_header"`
	HasRowHeader    bool `json:"has_row_header"`
}

// TableRowBlock is the payload of a table_row block.
type TableRowBlock struct {
	Cells [][]RichText `json:"cells"`
}

// ChildBlock is the payload of child_page and child_database blocks.
type ChildBlock struct {
	Title string `json:"title"`
}
