package crawler

import (
	"context"
	"fmt"

	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/notion"
	"github.com/nao1215/notionscan/internal/paginate"
	"github.com/nao1215/notionscan/internal/pipeline"
	"github.com/nao1215/notionscan/internal/retry"
)

// processDatabase fetches and records a database unless another branch
// already did. Failures are recorded and never returned.
func (e *Engine) processDatabase(ctx context.Context, s *Session, id, location string) {
	if !s.claimDatabase(id) {
		return
	}
	db, err := retry.Do(ctx, e.exec, "retrieve_database", func(ctx context.Context) (*notion.Database, error) {
		return e.api.RetrieveDatabase(ctx, id)
	})
	if err != nil {
		e.logger.Warn("database could not be processed", "database", model.MaskID(id), "error", err)
		s.fail(model.FailureDatabase, id, err)
		return
	}
	e.describeDatabase(ctx, s, id, db, location)
}

// describeDatabase records an already retrieved database: its schema,
// its sampled rows and its relation edges. Relation targets are then
// processed in turn so their edges resolve. The caller must have claimed id.
func (e *Engine) describeDatabase(ctx context.Context, s *Session, id string, db *notion.Database, location string) {
	rec := &model.DatabaseRecord{
		ID:              id,
		Title:           DatabaseTitle(db),
		Icon:            iconAsset(db.Icon),
		Cover:           coverAsset(db.Cover),
		LastEditedTime:  model.FormatTime(db.LastEditedTime),
		ParentLocations: []string{location},
		Properties:      describeProperties(db.Properties),
		SampleRows:      []model.SampleRow{},
	}

	var edges []model.GraphEdge
	var targets []string
	for _, p := range rec.Properties {
		if p.Relation == nil || p.Relation.DatabaseID == "" {
			continue
		}
		edges = append(edges, model.GraphEdge{
			From:     id,
			To:       p.Relation.DatabaseID,
			Type:     model.EdgeDatabaseRelation,
			Property: p.Name,
		})
		targets = append(targets, p.Relation.DatabaseID)
	}

	if e.includeRowValues {
		rows, err := e.sampleDatabase(ctx, s, id)
		if err != nil {
			e.logger.Warn("database rows could not be sampled", "database", model.MaskID(id), "error", err)
			s.fail(model.FailureDatabase, id, err)
			return
		}
		rec.SampleRows = rows
	}
	s.recordDatabase(rec, edges)

	tasks := make([]pipeline.Task[struct{}], len(targets))
	for i, target := range targets {
		tasks[i] = func(ctx context.Context) (struct{}, error) {
			e.processDatabase(ctx, s, target, location)
			return struct{}{}, nil
		}
	}
	pipeline.RunBounded(ctx, e.concurrency, tasks)
}

// describeProperties translates a schema into descriptors ordered by name.
func describeProperties(props map[string]notion.DBProperty) []model.PropertyDescriptor {
	out := make([]model.PropertyDescriptor, 0, len(props))
	for _, name := range sortedKeys(props) {
		p := props[name]
		d := model.PropertyDescriptor{Name: name, Type: p.Type}
		switch p.Type {
		case "formula":
			if p.Formula != nil {
				d.Expression = p.Formula.Expression
			}
		case "select":
			d.Options = selectOptions(p.Select, false)
		case "multi_select":
			d.Options = selectOptions(p.MultiSelect, false)
		case "status":
			d.Options = selectOptions(p.Status, true)
		case "relation":
			if r := p.Relation; r != nil {
				d.Relation = &model.RelationDetail{
					DatabaseID:         r.DatabaseID,
					Type:               r.Type,
					SyncedPropertyName: r.SyncedPropertyName,
					TargetPropertyName: r.PropertyName,
				}
				if r.DualProperty != nil {
					d.Relation.DualProperty = r.DualProperty.SyncedPropertyName
					if d.Relation.TargetPropertyName == "" {
						d.Relation.TargetPropertyName = r.DualProperty.SyncedPropertyName
					}
				}
			}
		case "rollup":
			if r := p.Rollup; r != nil {
				d.Rollup = &model.RollupDetail{
					RelationPropertyName: r.RelationPropertyName,
					RollupPropertyName:   r.RollupPropertyName,
					Function:             r.Function,
				}
			}
		}
		out = append(out, d)
	}
	return out
}

func selectOptions(cfg *notion.SelectConfig, withID bool) []model.SelectOption {
	if cfg == nil {
		return []model.SelectOption{}
	}
	out := make([]model.SelectOption, len(cfg.Options))
	for i, o := range cfg.Options {
		out[i] = model.SelectOption{Name: o.Name, Color: o.Color}
		if withID {
			out[i].ID = o.ID
		}
	}
	return out
}

// sampleDatabase queries the first rows of a database and renders them.
func (e *Engine) sampleDatabase(ctx context.Context, s *Session, id string) ([]model.SampleRow, error) {
	resp, err := retry.Do(ctx, e.exec, "query_database", func(ctx context.Context) (*notion.QueryResponse, error) {
		return e.api.QueryDatabase(ctx, id, e.sampleRows, "")
	})
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}

	tasks := make([]pipeline.Task[model.SampleRow], len(resp.Results))
	for i := range resp.Results {
		row := &resp.Results[i]
		tasks[i] = func(ctx context.Context) (model.SampleRow, error) {
			return e.sampleRow(ctx, s, row)
		}
	}

	rows := make([]model.SampleRow, 0, len(tasks))
	for _, o := range pipeline.RunBounded(ctx, e.concurrency, tasks) {
		if o.Err != nil {
			return nil, o.Err
		}
		rows = append(rows, o.Value)
	}
	return rows, nil
}

// sampleRow renders every property of a row, completing truncated
// values and resolving the titles of related pages.
func (e *Engine) sampleRow(ctx context.Context, s *Session, row *notion.Page) (model.SampleRow, error) {
	out := model.SampleRow{
		RowID:      row.ID,
		Properties: make(map[string]model.CellValue, len(row.Properties)),
	}
	if title, ok := titleProperty(row.Properties); ok {
		out.RowTitle = PlainText(title.Title)
	}

	for _, name := range sortedKeys(row.Properties) {
		v := row.Properties[name]
		if v.HasMore && v.ID != "" {
			full, err := e.completeProperty(ctx, row.ID, v)
			if err != nil {
				return model.SampleRow{}, fmt.Errorf("property %q: %w", name, err)
			}
			v = full
		}
		out.Properties[name] = DisplayText(v)

		if v.Type == "relation" {
			if out.RelationTitles == nil {
				out.RelationTitles = make(map[string][]model.RelationTitle)
			}
			out.RelationTitles[name] = e.relationTitles(ctx, s, v.Relation)
		}
	}
	return out, nil
}

// completeProperty pages through the property endpoint to replace a value
// the query endpoint truncated.
func (e *Engine) completeProperty(ctx context.Context, pageID string, v notion.PropertyValue) (notion.PropertyValue, error) {
	lister := paginate.NewLister(e.exec)
	listing, err := paginate.ListAll(ctx, lister, "retrieve_page_property", func(ctx context.Context, cursor string) (paginate.Page[notion.PropertyItem], error) {
		resp, err := e.api.RetrievePageProperty(ctx, pageID, v.ID, cursor)
		if err != nil {
			return paginate.Page[notion.PropertyItem]{}, err
		}
		return paginate.Page[notion.PropertyItem]{Items: resp.Results, HasMore: resp.HasMore, NextCursor: resp.Cursor()}, nil
	})
	if err != nil {
		return v, err
	}

	full := notion.PropertyValue{ID: v.ID, Type: v.Type}
	for _, item := range listing.Items {
		switch {
		case item.Relation != nil:
			full.Relation = append(full.Relation, *item.Relation)
		case item.Title != nil:
			full.Title = append(full.Title, *item.Title)
		case item.RichText != nil:
			full.RichText = append(full.RichText, *item.RichText)
		case item.People != nil:
			full.People = append(full.People, *item.People)
		}
	}
	return full, nil
}

// relationTitles resolves the titles of the first related pages.
// A page that cannot be retrieved gets a nil title.
func (e *Engine) relationTitles(ctx context.Context, s *Session, rels []notion.RelationValue) []model.RelationTitle {
	if len(rels) > e.relationTitleLimit {
		rels = rels[:e.relationTitleLimit]
	}
	tasks := make([]pipeline.Task[*string], len(rels))
	for i, rel := range rels {
		tasks[i] = func(ctx context.Context) (*string, error) {
			return e.lookupTitle(ctx, s, rel.ID)
		}
	}

	out := make([]model.RelationTitle, len(rels))
	limit := min(e.relationConcurrency, e.concurrency)
	for i, o := range pipeline.RunBounded(ctx, limit, tasks) {
		out[i] = model.RelationTitle{ID: rels[i].ID}
		if o.Err != nil {
			e.logger.Debug("related page title unavailable", "page", model.MaskID(rels[i].ID), "error", o.Err)
			continue
		}
		out[i].Title = o.Value
	}
	return out
}

// lookupTitle retrieves a page title. Concurrent lookups of the same page
// share one request.
func (e *Engine) lookupTitle(ctx context.Context, s *Session, pageID string) (*string, error) {
	v, err, _ := s.titles.Do(model.CompactID(pageID), func() (any, error) {
		page, err := e.retrievePage(ctx, pageID)
		if err != nil {
			return nil, err
		}
		title := PageTitle(page, untitled)
		return &title, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*string), nil
}
