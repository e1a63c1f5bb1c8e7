package model

// SchemaVersion tags every output document.
const SchemaVersion = "1.0.0"

// Bundle is the normalized, read-only view of a Snapshot.
type Bundle struct {
	Pages     []NormalizedPage     `json:"pages"`
	Databases []NormalizedDatabase `json:"databases"`
	Media     []MediaItem          `json:"images"`
	Graph     Graph                `json:"graph"`
}

// NormalizedPage is a page merged with its position in the content tree.
type NormalizedPage struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Icon       *Asset     `json:"icon"`
	Cover      *Asset     `json:"cover"`
	LastEdited string     `json:"last_edited"`
	Breadcrumb []string   `json:"breadcrumb"`
	Depth      int        `json:"depth"`
	Counts     PageCounts `json:"counts"`
}

// PageCounts counts the block types found under a page, nested pages included.
type PageCounts struct {
	Headings          int `json:"headings"`
	Callouts          int `json:"callouts"`
	Toggles           int `json:"toggles"`
	Columns           int `json:"columns"`
	BulletedListItems int `json:"bulleted_list_items"`
	NumberedListItems int `json:"numbered_list_items"`
	Dividers          int `json:"dividers"`
	Images            int `json:"images"`
	ChildPages        int `json:"child_page"`
	ChildDatabases    int `json:"child_database"`
}

// Total returns the sum of all counts.
func (c PageCounts) Total() int {
	return c.Headings + c.Callouts + c.Toggles + c.Columns + c.BulletedListItems +
		c.NumberedListItems + c.Dividers + c.Images + c.ChildPages + c.ChildDatabases
}

// Add adds o to c.
func (c *PageCounts) Add(o PageCounts) {
	c.Headings += o.Headings
	c.Callouts += o.Callouts
	c.Toggles += o.Toggles
	c.Columns += o.Columns
	c.BulletedListItems += o.BulletedListItems
	c.NumberedListItems += o.NumberedListItems
	c.Dividers += o.Dividers
	c.Images += o.Images
	c.ChildPages += o.ChildPages
	c.ChildDatabases += o.ChildDatabases
}

// NormalizedDatabase is a database with its first-seen parent breadcrumb.
type NormalizedDatabase struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	ParentPath string               `json:"parentPath"`
	Properties []PropertyDescriptor `json:"properties"`
	SampleRows []SampleRow          `json:"sampleRows"`
}

// MediaItem is one image block.
type MediaItem struct {
	BlockID      string  `json:"block_id"`
	ParentPageID *string `json:"parent_page_id"`
	ParentPath   string  `json:"parent_path"`
	URL          string  `json:"url"`
	Caption      string  `json:"caption"`
	LastEdited   string  `json:"last_edited"`
}
