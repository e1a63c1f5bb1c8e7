package crawler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/notion"
)

// Title fallbacks.
const (
	untitled     = "Untitled"
	untitledPage = "Untitled Page"
)

// PlainText joins the plain text of rich text runs.
func PlainText(runs []notion.RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return b.String()
}

// firstRun returns the plain text of the first run, or "".
func firstRun(runs []notion.RichText) string {
	if len(runs) == 0 {
		return ""
	}
	return runs[0].PlainText
}

// PageTitle returns the first run of the page's title property, or fallback.
func PageTitle(p *notion.Page, fallback string) string {
	if p != nil {
		if prop, ok := titleProperty(p.Properties); ok {
			if t := firstRun(prop.Title); t != "" {
				return t
			}
		}
	}
	return fallback
}

// DatabaseTitle returns the first run of the database title, or "Untitled".
func DatabaseTitle(db *notion.Database) string {
	if db != nil {
		if t := firstRun(db.Title); t != "" {
			return t
		}
	}
	return untitled
}

func titleProperty(props map[string]notion.PropertyValue) (notion.PropertyValue, bool) {
	for _, name := range sortedKeys(props) {
		if props[name].Type == "title" {
			return props[name], true
		}
	}
	return notion.PropertyValue{}, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toTextRuns keeps the text, link and the annotations worth reporting.
func toTextRuns(runs []notion.RichText) []model.TextRun {
	if len(runs) == 0 {
		return nil
	}
	out := make([]model.TextRun, len(runs))
	for i, r := range runs {
		run := model.TextRun{PlainText: r.PlainText, Href: r.Href}
		if a := r.Annotations; a != nil {
			run.Annotations = model.TextStyle{Bold: a.Bold, Italic: a.Italic, Code: a.Code}
			if a.Color != "default" {
				run.Annotations.Color = a.Color
			}
		}
		out[i] = run
	}
	return out
}

// iconAsset reduces an icon to an emoji or a URL.
func iconAsset(icon *notion.Icon) *model.Asset {
	if icon == nil {
		return nil
	}
	switch icon.Type {
	case "emoji":
		return &model.Asset{Emoji: icon.Emoji}
	case "external":
		return &model.Asset{URL: fileURL(icon.External)}
	case "file":
		return &model.Asset{URL: fileURL(icon.File)}
	}
	return nil
}

// coverAsset reduces a cover to its URL.
func coverAsset(cover *notion.File) *model.Asset {
	if cover == nil {
		return nil
	}
	switch cover.Type {
	case "external":
		return &model.Asset{URL: fileURL(cover.External)}
	case "file":
		return &model.Asset{URL: fileURL(cover.File)}
	}
	return nil
}

func fileURL(f *notion.File) string {
	if f == nil {
		return ""
	}
	return f.URL
}

// imageURL prefers the external URL of an external image and the
// hosted-file URL otherwise.
func imageURL(m *notion.MediaBlock) string {
	if m == nil {
		return ""
	}
	if m.Type == "external" {
		return fileURL(m.External)
	}
	return fileURL(m.File)
}

// checkMark renders a boolean the way the sample rows display checkboxes.
func checkMark(v bool) string {
	if v {
		return "✅"
	}
	return "❌"
}

func formatNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// DisplayText renders a property value as the text shown for sample rows.
// Types without a display rule yield an unsupported cell.
func DisplayText(v notion.PropertyValue) model.CellValue {
	switch v.Type {
	case "title":
		return model.TextCell(PlainText(v.Title))
	case "rich_text":
		return model.TextCell(PlainText(v.RichText))
	case "select":
		if v.Select == nil {
			return model.TextCell("")
		}
		return model.TextCell(v.Select.Name)
	case "multi_select":
		names := make([]string, len(v.MultiSelect))
		for i, o := range v.MultiSelect {
			names[i] = o.Name
		}
		return model.TextCell(strings.Join(names, ", "))
	case "status":
		if v.Status == nil {
			return model.TextCell("")
		}
		return model.TextCell(v.Status.Name)
	case "date":
		if v.Date == nil {
			return model.TextCell("")
		}
		return model.TextCell(v.Date.Start)
	case "number":
		return model.TextCell(formatNumber(v.Number))
	case "checkbox":
		return model.TextCell(checkMark(v.Checkbox != nil && *v.Checkbox))
	case "url":
		return model.TextCell(deref(v.URL))
	case "email":
		return model.TextCell(deref(v.Email))
	case "phone_number":
		return model.TextCell(deref(v.PhoneNumber))
	case "relation":
		ids := make([]string, len(v.Relation))
		for i, r := range v.Relation {
			ids[i] = r.ID
		}
		return model.TextCell(strings.Join(ids, ", "))
	case "people":
		names := make([]string, len(v.People))
		for i, p := range v.People {
			names[i] = p.Name
		}
		return model.TextCell(strings.Join(names, ", "))
	case "formula":
		return model.TextCell(formulaText(v.Formula))
	case "unique_id":
		if v.UniqueID == nil {
			return model.TextCell("")
		}
		n := strconv.Itoa(v.UniqueID.Number)
		if p := deref(v.UniqueID.Prefix); p != "" {
			return model.TextCell(p + "-" + n)
		}
		return model.TextCell(n)
	case "created_time":
		if v.CreatedTime == nil {
			return model.TextCell("")
		}
		return model.TextCell(model.FormatTime(*v.CreatedTime))
	case "last_edited_time":
		if v.LastEditedTime == nil {
			return model.TextCell("")
		}
		return model.TextCell(model.FormatTime(*v.LastEditedTime))
	}
	return model.UnsupportedCell(v.Type)
}

func formulaText(f *notion.FormulaValue) string {
	if f == nil {
		return ""
	}
	switch f.Type {
	case "string":
		return deref(f.String)
	case "number":
		return formatNumber(f.Number)
	case "boolean":
		return checkMark(f.Boolean != nil && *f.Boolean)
	case "date":
		if f.Date != nil {
			return f.Date.Start
		}
	}
	return ""
}
