package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/notion"
	"github.com/nao1215/notionscan/internal/paginate"
	"github.com/nao1215/notionscan/internal/retry"
)

// Engine traverses a workspace through the Notion API.
// An Engine holds configuration only and may run several traversals.
type Engine struct {
	// api is the remote content API.
	api notion.API

	// exec wraps every remote call with rate-limit backoff.
	exec *retry.Executor

	// concurrency bounds the in-flight sibling branches of one node.
	concurrency int

	// maxBlocks caps the blocks fetched per run. 0 means unlimited.
	maxBlocks int64

	// includeRowValues enables sampling of database rows.
	includeRowValues bool

	sampleRows          int
	relationTitleLimit  int
	relationConcurrency int

	progress func(blocksFetched int64)
	metrics  *Metrics
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConcurrency sets how many branches run at once. Values below 1 mean 1.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.concurrency = max(n, 1)
	}
}

// WithMaxBlocks caps the number of blocks fetched in one run. 0 disables the cap.
func WithMaxBlocks(n int64) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxBlocks = n
		}
	}
}

// WithRowValues enables sampling database rows.
func WithRowValues(enabled bool) EngineOption {
	return func(e *Engine) {
		e.includeRowValues = enabled
	}
}

// WithSampleRows sets how many rows are sampled per database.
func WithSampleRows(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.sampleRows = n
		}
	}
}

// WithRelationTitles sets how many related page titles are resolved per
// relation cell, and how many lookups run at once.
func WithRelationTitles(limit, concurrency int) EngineOption {
	return func(e *Engine) {
		if limit >= 0 {
			e.relationTitleLimit = limit
		}
		if concurrency > 0 {
			e.relationConcurrency = concurrency
		}
	}
}

// WithExecutor sets the retry executor used for remote calls.
func WithExecutor(exec *retry.Executor) EngineOption {
	return func(e *Engine) {
		e.exec = exec
	}
}

// WithProgress registers fn to be called with the running block count.
// fn is called from several goroutines.
func WithProgress(fn func(blocksFetched int64)) EngineOption {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithMetrics records traversal metrics on m.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine for api.
func NewEngine(api notion.API, opts ...EngineOption) *Engine {
	e := &Engine{
		api:                 api,
		concurrency:         3,
		sampleRows:          3,
		relationTitleLimit:  5,
		relationConcurrency: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.exec == nil {
		e.exec = retry.NewExecutor(retry.WithLogger(e.logger))
	}
	return e
}

// Identify resolves id as a page or a database. See the package-level Identify.
func (e *Engine) Identify(ctx context.Context, id string) (*Root, error) {
	return Identify(ctx, e.api, e.exec, id)
}

// Traverse resolves rootID and crawls everything reachable from it.
//
// A root that resolves as neither page nor database yields a *RootError
// and no snapshot. Any other failure is recorded in the snapshot's stats.
func (e *Engine) Traverse(ctx context.Context, rootID string) (*model.Snapshot, error) {
	root, err := e.Identify(ctx, rootID)
	if err != nil {
		return nil, err
	}

	s := newSession(e.maxBlocks, e.progress, e.metrics)
	s.lister = paginate.NewLister(e.exec, paginate.WithBudget(s))

	var startID, rootTitle string
	switch root.Type {
	case model.RootPage:
		startID = idOr(root.Page.ID, rootID)
		rootTitle = PageTitle(root.Page, untitled)
		s.recordPage(newPageRecord(root.Page, startID, rootTitle, model.RootLocation))
		e.logger.Info("root resolved", "type", root.Type, "title", rootTitle)

	case model.RootDatabase:
		dbID := idOr(root.Database.ID, rootID)
		rootTitle = DatabaseTitle(root.Database)
		e.logger.Info("root resolved", "type", root.Type, "title", rootTitle)
		if s.claimDatabase(dbID) {
			e.describeDatabase(ctx, s, dbID, root.Database, model.RootLocation)
		}
		if root.Database.Parent.IsPage() {
			startID, rootTitle = e.resolveParentPage(ctx, s, root.Database.Parent.PageID, rootTitle)
		}
	}

	var content []*model.ContentNode
	if startID != "" {
		content, err = e.visit(ctx, s, branch{
			blockID:    startID,
			depth:      0,
			parentType: "page",
			location:   rootTitle,
			pageID:     startID,
		})
		if err != nil {
			e.logger.Warn("root content could not be listed", "error", err)
			s.fail(model.FailurePage, startID, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := s.snapshot()
	snap.RootID = rootID
	snap.RootType = root.Type
	snap.RootTitle = rootTitle
	snap.StartPageID = startID
	snap.Content = content
	if snap.Content == nil {
		snap.Content = []*model.ContentNode{}
	}
	return snap, nil
}

// resolveParentPage records the page parent of a root database so the
// traversal can start there. It returns "" when the page cannot be retrieved.
func (e *Engine) resolveParentPage(ctx context.Context, s *Session, pageID, fallbackTitle string) (string, string) {
	page, err := e.retrievePage(ctx, pageID)
	if err != nil {
		e.logger.Warn("parent page of root database could not be retrieved", "error", err)
		s.fail(model.FailurePage, pageID, err)
		return "", fallbackTitle
	}
	id := idOr(page.ID, pageID)
	title := PageTitle(page, untitled)
	s.recordPage(newPageRecord(page, id, title, model.RootLocation))
	return id, title
}

func (e *Engine) retrievePage(ctx context.Context, id string) (*notion.Page, error) {
	return retry.Do(ctx, e.exec, "retrieve_page", func(ctx context.Context) (*notion.Page, error) {
		return e.api.RetrievePage(ctx, id)
	})
}

// Comments lists the top-level comments of a page.
func (e *Engine) Comments(ctx context.Context, pageID string) ([]model.CommentRecord, error) {
	lister := paginate.NewLister(e.exec)
	listing, err := paginate.ListAll(ctx, lister, "list_comments", func(ctx context.Context, cursor string) (paginate.Page[notion.Comment], error) {
		resp, err := e.api.ListComments(ctx, pageID, cursor)
		if err != nil {
			return paginate.Page[notion.Comment]{}, err
		}
		return paginate.Page[notion.Comment]{Items: resp.Results, HasMore: resp.HasMore, NextCursor: resp.Cursor()}, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.CommentRecord, len(listing.Items))
	for i, c := range listing.Items {
		rec := model.CommentRecord{
			ID:          c.ID,
			CreatedTime: model.FormatTime(c.CreatedTime),
			RichText:    make([]model.CommentText, len(c.RichText)),
		}
		for j, rt := range c.RichText {
			rec.RichText[j] = model.CommentText{PlainText: rt.PlainText, Href: rt.Href}
		}
		out[i] = rec
	}
	return out, nil
}

func newPageRecord(p *notion.Page, id, title, location string) *model.PageRecord {
	return &model.PageRecord{
		ID:              id,
		Title:           title,
		Icon:            iconAsset(p.Icon),
		Cover:           coverAsset(p.Cover),
		LastEditedTime:  model.FormatTime(p.LastEditedTime),
		ParentLocations: []string{location},
	}
}

func idOr(id, fallback string) string {
	if id != "" {
		return id
	}
	return fallback
}
