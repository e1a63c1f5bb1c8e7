package model

import (
	"encoding/json"
	"slices"
)

// RootLocation is the location recorded for the root page and for
// databases reached before any page.
const RootLocation = "Root"

// Asset is a reduced icon or cover: either an emoji or a URL.
type Asset struct {
	Emoji string `json:"emoji,omitempty"`
	URL   string `json:"url,omitempty"`
}

// PageRecord is the metadata of a page, keyed by id.
type PageRecord struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Icon           *Asset `json:"icon"`
	Cover          *Asset `json:"cover"`
	LastEditedTime string `json:"last_edited_time"`
	// ParentLocations holds every breadcrumb the page was reached from, without duplicates.
	ParentLocations []string `json:"parentLocations"`
}

// AddLocation appends location unless the page already has it.
// It reports whether the location was new.
func (p *PageRecord) AddLocation(location string) bool {
	if slices.Contains(p.ParentLocations, location) {
		return false
	}
	p.ParentLocations = append(p.ParentLocations, location)
	return true
}

// FirstLocation returns the breadcrumb the page was first reached from.
func (p *PageRecord) FirstLocation() string {
	if len(p.ParentLocations) == 0 {
		return RootLocation
	}
	return p.ParentLocations[0]
}

// DatabaseRecord is the metadata, schema and sampled rows of a database.
type DatabaseRecord struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Icon            *Asset               `json:"icon"`
	Cover           *Asset               `json:"cover"`
	LastEditedTime  string               `json:"last_edited_time"`
	ParentLocations []string             `json:"parentLocations"`
	Properties      []PropertyDescriptor `json:"properties"`
	SampleRows      []SampleRow          `json:"sampleRows"`
}

// FirstLocation returns the breadcrumb the database was first reached from.
func (d *DatabaseRecord) FirstLocation() string {
	if len(d.ParentLocations) == 0 {
		return RootLocation
	}
	return d.ParentLocations[0]
}

// Formulas returns the formula expressions of the schema in schema order.
func (d *DatabaseRecord) Formulas() []PropertyDescriptor {
	var out []PropertyDescriptor
	for _, p := range d.Properties {
		if p.Type == "formula" && p.Expression != "" {
			out = append(out, p)
		}
	}
	return out
}

// PropertyDescriptor is one column of a database schema.
// Only the detail matching Type is set.
type PropertyDescriptor struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Expression string          `json:"expression,omitempty"`
	Options    []SelectOption  `json:"options,omitempty"`
	Relation   *RelationDetail `json:"relation,omitempty"`
	Rollup     *RollupDetail   `json:"rollup,omitempty"`
}

// SelectOption is an option of a select, multi_select or status column.
// ID is only reported for status options.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// RelationDetail describes the target of a relation column.
type RelationDetail struct {
	DatabaseID         string `json:"database_id"`
	Type               string `json:"type,omitempty"`
	SyncedPropertyName string `json:"synced_property_name,omitempty"`
	TargetPropertyName string `json:"target_property_name,omitempty"`
	DualProperty       string `json:"dual_property,omitempty"`
}

// RollupDetail describes the source and aggregation of a rollup column.
type RollupDetail struct {
	RelationPropertyName string `json:"relation_property_name"`
	RollupPropertyName   string `json:"rollup_property_name"`
	Function             string `json:"function"`
}

// SampleRow is one sampled database row.
type SampleRow struct {
	RowTitle       string                     `json:"rowTitle"`
	RowID          string                     `json:"rowId"`
	Properties     map[string]CellValue       `json:"properties"`
	RelationTitles map[string][]RelationTitle `json:"relationTitles,omitempty"`
}

// RelationTitle is a related page id and its title.
// Title is nil when the page could not be retrieved.
type RelationTitle struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
}

// CellValue is the display text of a property value. Types without a
// display rule are reported as unsupported instead of as text.
type CellValue struct {
	Text string
	// UnsupportedType is the property type when no display rule exists.
	UnsupportedType string
}

// TextCell returns a displayable cell.
func TextCell(s string) CellValue {
	return CellValue{Text: s}
}

// UnsupportedCell returns a cell for a property type without a display rule.
func UnsupportedCell(propertyType string) CellValue {
	return CellValue{UnsupportedType: propertyType}
}

// Supported reports whether the cell has display text.
func (c CellValue) Supported() bool {
	return c.UnsupportedType == ""
}

// String returns the display text, or a bracketed type name for unsupported cells.
func (c CellValue) String() string {
	if !c.Supported() {
		return "[" + c.UnsupportedType + "]"
	}
	return c.Text
}

type unsupportedCell struct {
	Type      string `json:"type"`
	Supported bool   `json:"supported"`
}

// MarshalJSON encodes supported cells as a string and unsupported cells
// as {"type": ..., "supported": false}.
func (c CellValue) MarshalJSON() ([]byte, error) {
	if c.Supported() {
		return json.Marshal(c.Text)
	}
	return json.Marshal(unsupportedCell{Type: c.UnsupportedType})
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (c *CellValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = TextCell(s)
		return nil
	}
	var u unsupportedCell
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*c = UnsupportedCell(u.Type)
	return nil
}
