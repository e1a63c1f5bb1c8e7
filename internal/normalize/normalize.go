// Package normalize turns a raw traversal snapshot into the flat,
// query-friendly records written to the output directory.
//
// Normalize is a pure function of its input: it never mutates the
// snapshot, so it can be re-run for different projections.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/notionscan/internal/model"
)

// Normalize builds the pages, databases, media and graph of snap.
func Normalize(snap *model.Snapshot) *model.Bundle {
	index := indexPageNodes(snap)

	b := &model.Bundle{
		Pages:     make([]model.NormalizedPage, 0, len(snap.Pages)),
		Databases: make([]model.NormalizedDatabase, 0, len(snap.Databases)),
		Media:     make([]model.MediaItem, 0, len(snap.Images)),
	}

	for _, p := range snap.Pages {
		node, ok := index[model.CompactID(p.ID)]
		if !ok {
			node = &model.ContentNode{Location: p.FirstLocation()}
		}
		b.Pages = append(b.Pages, model.NormalizedPage{
			ID:         p.ID,
			Title:      nfc(p.Title),
			Icon:       p.Icon,
			Cover:      p.Cover,
			LastEdited: p.LastEditedTime,
			Breadcrumb: Breadcrumb(node.Location),
			Depth:      node.Depth,
			Counts:     CountBlocks(node.Children),
		})
	}

	for _, d := range snap.Databases {
		b.Databases = append(b.Databases, model.NormalizedDatabase{
			ID:         d.ID,
			Title:      nfc(d.Title),
			ParentPath: nfc(d.FirstLocation()),
			Properties: nonNil(d.Properties),
			SampleRows: nonNil(d.SampleRows),
		})
	}

	for _, img := range snap.Images {
		item := model.MediaItem{
			BlockID:    img.BlockID,
			ParentPath: nfc(img.Location),
			URL:        img.URL,
			Caption:    img.Caption,
			LastEdited: img.LastEditedTime,
		}
		if img.ParentPageID != "" {
			id := img.ParentPageID
			item.ParentPageID = &id
		}
		b.Media = append(b.Media, item)
	}

	b.Graph = BuildGraph(snap)
	return b
}

// indexPageNodes maps compact page ids to the node that traversed the
// page. Revisit nodes are skipped wherever they sit in the tree.
// The traversal start page is represented by a synthetic node holding the
// whole tree at depth 0.
func indexPageNodes(snap *model.Snapshot) map[string]*model.ContentNode {
	index := make(map[string]*model.ContentNode)
	if snap.StartPageID != "" {
		index[model.CompactID(snap.StartPageID)] = &model.ContentNode{
			PageID:    snap.StartPageID,
			PageTitle: snap.RootTitle,
			Location:  snap.RootTitle,
			Children:  snap.Content,
		}
	}
	model.Walk(snap.Content, func(n *model.ContentNode) bool {
		if n.Kind == model.KindChildPage && n.PageID != "" && !n.Revisit {
			key := model.CompactID(n.PageID)
			if _, seen := index[key]; !seen {
				index[key] = n
			}
		}
		return true
	})
	return index
}

// Breadcrumb splits a location path into its titles.
func Breadcrumb(location string) []string {
	parts := strings.Split(location, model.BreadcrumbSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, nfc(p))
	}
	return out
}

// CountBlocks counts block types in nodes and all of their descendants.
func CountBlocks(nodes []*model.ContentNode) model.PageCounts {
	var c model.PageCounts
	model.Walk(nodes, func(n *model.ContentNode) bool {
		switch t := n.Type; {
		case strings.HasPrefix(t, "heading_"):
			c.Headings++
		case t == "callout":
			c.Callouts++
		case t == "toggle":
			c.Toggles++
		case t == "column" || t == "column_list":
			c.Columns++
		case t == "bulleted_list_item":
			c.BulletedListItems++
		case t == "numbered_list_item":
			c.NumberedListItems++
		case t == "divider":
			c.Dividers++
		case t == "image":
			c.Images++
		case t == "child_page":
			c.ChildPages++
		case t == "child_database":
			c.ChildDatabases++
		}
		return true
	})
	return c
}

// BlockTypes counts every block type in the tree.
func BlockTypes(nodes []*model.ContentNode) map[string]int {
	out := make(map[string]int)
	model.Walk(nodes, func(n *model.ContentNode) bool {
		out[n.Type]++
		return true
	})
	return out
}

func nfc(s string) string {
	return norm.NFC.String(s)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
