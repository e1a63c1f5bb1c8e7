package crawler

import (
	"context"
	"fmt"

	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/notion"
	"github.com/nao1215/notionscan/internal/paginate"
	"github.com/nao1215/notionscan/internal/pipeline"
)

// branch is the position of a block whose children are being visited.
type branch struct {
	blockID    string
	depth      int
	parentType string
	// location is the breadcrumb of the owning page.
	location string
	// pageID is the owning page, the source of page edges.
	pageID string
}

// child returns the branch for the children of n one level deeper.
func (b branch) child(n *model.ContentNode) branch {
	return branch{
		blockID:    n.BlockID,
		depth:      b.depth + 1,
		parentType: b.parentType,
		location:   b.location,
		pageID:     b.pageID,
	}
}

// passThrough returns the branch for the children of a synced original,
// which stay at the synced block's own depth.
func (b branch) passThrough(n *model.ContentNode) branch {
	c := b.child(n)
	c.depth = b.depth
	return c
}

// listChildren drains the children of blockID within the session budget.
func (e *Engine) listChildren(ctx context.Context, s *Session, blockID string) ([]notion.Block, error) {
	listing, err := paginate.ListAll(ctx, s.lister, "list_block_children", func(ctx context.Context, cursor string) (paginate.Page[notion.Block], error) {
		resp, err := e.api.ListBlockChildren(ctx, blockID, notion.MaxPageSize, cursor)
		if err != nil {
			return paginate.Page[notion.Block]{}, err
		}
		return paginate.Page[notion.Block]{Items: resp.Results, HasMore: resp.HasMore, NextCursor: resp.Cursor()}, nil
	})
	if listing.Truncated {
		s.truncated()
		e.logger.Debug("block budget reached", "block", model.MaskID(blockID), "fetched", s.BlocksFetched())
	}
	return listing.Items, err
}

// visit lists the children of b.blockID, classifies each one, and then
// runs the deferred descents with bounded concurrency. The returned slice
// is in API order.
func (e *Engine) visit(ctx context.Context, s *Session, b branch) ([]*model.ContentNode, error) {
	blocks, err := e.listChildren(ctx, s, b.blockID)
	if err != nil {
		return nil, err
	}

	nodes := make([]*model.ContentNode, 0, len(blocks))
	var pending []pipeline.Task[struct{}]
	for i := range blocks {
		node, tasks := e.classify(s, b, &blocks[i])
		nodes = append(nodes, node)
		pending = append(pending, tasks...)
	}

	for _, o := range pipeline.RunBounded(ctx, e.concurrency, pending) {
		if o.Err != nil {
			s.fail(model.FailureBlock, b.blockID, o.Err)
		}
	}
	return nodes, nil
}

// classify builds the node for blk and returns the work deferred for it.
func (e *Engine) classify(s *Session, b branch, blk *notion.Block) (*model.ContentNode, []pipeline.Task[struct{}]) {
	node := &model.ContentNode{
		BlockID:        blk.ID,
		Type:           blk.Type,
		Kind:           model.ClassifyBlock(blk.Type, blk.HasChildren),
		Depth:          b.depth,
		ParentType:     b.parentType,
		Location:       b.location,
		LastEditedTime: model.FormatTime(blk.LastEditedTime),
	}
	if runs, ok := blk.RichTextContent(); ok {
		node.RichText = toTextRuns(runs)
	}

	switch node.Kind {
	case model.KindText, model.KindContainer:
		if blk.HasChildren {
			return node, []pipeline.Task[struct{}]{e.descendTask(s, node, b.child(node))}
		}

	case model.KindImage:
		node.URL = imageURL(blk.Image)
		if blk.Image != nil {
			node.Caption = PlainText(blk.Image.Caption)
			node.CaptionRichText = toTextRuns(blk.Image.Caption)
		}
		node.ParentPageID = b.pageID
		s.addImage(node)

	case model.KindTable:
		if blk.Table != nil {
			node.Table = &model.TableInfo{
				Width:           blk.Table.TableWidth,
				HasColumnHeader: blk.Table.HasColumnHeader,
				HasRowHeader:    blk.Table.HasRowHeader,
			}
		}
		return node, []pipeline.Task[struct{}]{e.tableRowsTask(s, node)}

	case model.KindChildDatabase:
		node.DatabaseID = blk.ID
		if b.pageID != "" {
			s.addEdge(model.GraphEdge{From: b.pageID, To: blk.ID, Type: model.EdgePageDatabase})
		}
		return node, []pipeline.Task[struct{}]{func(ctx context.Context) (struct{}, error) {
			e.processDatabase(ctx, s, blk.ID, b.location)
			return struct{}{}, nil
		}}

	case model.KindChildPage:
		title := ""
		if blk.ChildPage != nil {
			title = blk.ChildPage.Title
		}
		return node, []pipeline.Task[struct{}]{e.childPageTask(s, node, b, title)}

	case model.KindSyncedBlock:
		if sb := blk.SyncedBlock; sb != nil && sb.SyncedFrom != nil && sb.SyncedFrom.BlockID != "" {
			node.SyncedRef = &model.SyncedRef{Type: "synced_ref", OriginalBlockID: sb.SyncedFrom.BlockID}
			return node, nil
		}
		if blk.HasChildren {
			return node, []pipeline.Task[struct{}]{e.descendTask(s, node, b.passThrough(node))}
		}
	}
	return node, nil
}

// descendTask fills node.Children from the children of the branch.
// A failed listing is recorded on the node and does not affect siblings.
func (e *Engine) descendTask(s *Session, node *model.ContentNode, b branch) pipeline.Task[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		children, err := e.visit(ctx, s, b)
		node.Children = children
		if err != nil {
			node.Error = err.Error()
			s.fail(model.FailureBlock, node.BlockID, err)
			e.logger.Debug("subtree could not be listed", "block", model.MaskID(node.BlockID), "error", err)
		}
		return struct{}{}, nil
	}
}

// tableRowsTask fills node.Rows with the plain text of each table_row cell.
func (e *Engine) tableRowsTask(s *Session, node *model.ContentNode) pipeline.Task[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		rows, err := e.listChildren(ctx, s, node.BlockID)
		if err != nil {
			node.Error = err.Error()
			s.fail(model.FailureBlock, node.BlockID, err)
			return struct{}{}, nil
		}
		grid := make([][]string, 0, len(rows))
		for _, r := range rows {
			if r.Type != "table_row" || r.TableRow == nil {
				continue
			}
			cells := make([]string, len(r.TableRow.Cells))
			for i, c := range r.TableRow.Cells {
				cells[i] = PlainText(c)
			}
			grid = append(grid, cells)
		}
		node.Rows = grid
		return struct{}{}, nil
	}
}

// childPageTask retrieves a child page, records it and its parent edge,
// and traverses its content one level deeper under an extended breadcrumb.
// A page that cannot be retrieved stays in the tree with an error only.
func (e *Engine) childPageTask(s *Session, node *model.ContentNode, b branch, blockTitle string) pipeline.Task[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		page, err := e.retrievePage(ctx, node.BlockID)
		if err != nil {
			node.Error = fmt.Sprintf("retrieve page: %v", err)
			s.fail(model.FailurePage, node.BlockID, err)
			e.logger.Warn("child page could not be retrieved", "page", model.MaskID(node.BlockID), "error", err)
			return struct{}{}, nil
		}

		title := PageTitle(page, "")
		if title == "" {
			title = blockTitle
		}
		if title == "" {
			title = untitledPage
		}
		node.PageID = node.BlockID
		node.PageTitle = title

		isNew := s.recordPage(newPageRecord(page, node.BlockID, title, b.location))
		if b.pageID != "" {
			s.addEdge(model.GraphEdge{From: b.pageID, To: node.BlockID, Type: model.EdgeParentChild})
		}
		if !isNew {
			node.Revisit = true
			return struct{}{}, nil
		}

		return e.descendTask(s, node, branch{
			blockID:    node.BlockID,
			depth:      b.depth + 1,
			parentType: "page",
			location:   b.location + model.BreadcrumbSeparator + title,
			pageID:     node.BlockID,
		})(ctx)
	}
}
