package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/normalize"
	"github.com/nao1215/notionscan/internal/notion"
)

const (
	homeID     = "11111111-1111-1111-1111-111111111111"
	projectsID = "22222222-2222-2222-2222-222222222222"
	tasksID    = "33333333-3333-3333-3333-333333333333"
	peopleID   = "44444444-4444-4444-4444-444444444444"
	notesID    = "55555555-5555-5555-5555-555555555555"
)

func edgesOfKind(edges []model.GraphEdge, kind model.EdgeKind) []model.GraphEdge {
	var out []model.GraphEdge
	for _, e := range edges {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

func pageTitles(s *model.Snapshot) []string {
	out := make([]string, len(s.Pages))
	for i, p := range s.Pages {
		out[i] = p.Title
	}
	return out
}

func TestTraverseHomeProjectsTasks(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addPage(homeID, "Home")
	api.addPage(projectsID, "Projects")
	api.addDatabase(tasksID, "Tasks", notion.Parent{Type: "page_id", PageID: projectsID}, map[string]notion.DBProperty{
		"Name":     {ID: "title", Name: "Name", Type: "title"},
		"Assignee": {ID: "a1", Name: "Assignee", Type: "relation", Relation: &notion.RelationConfig{DatabaseID: peopleID, Type: "single_property"}},
	})
	api.addDatabase(peopleID, "People", notion.Parent{Type: "workspace", Workspace: true}, nil)
	api.addChildren(homeID, paragraph("b1", "Welcome"), childPage(projectsID, "Projects"))
	api.addChildren(projectsID, childDatabase(tasksID, "Tasks"))

	snap, err := newTestEngine(api, WithConcurrency(2)).Traverse(context.Background(), homeID)
	require.NoError(t, err)

	assert.Equal(t, model.RootPage, snap.RootType)
	assert.Equal(t, "Home", snap.RootTitle)
	assert.Equal(t, []string{"Home", "Projects"}, pageTitles(snap))

	require.Len(t, snap.Databases, 2)
	assert.Equal(t, "Tasks", snap.Databases[0].Title)
	assert.Equal(t, "People", snap.Databases[1].Title)

	assert.Equal(t, []model.GraphEdge{{From: homeID, To: projectsID, Type: model.EdgeParentChild}},
		edgesOfKind(snap.Edges, model.EdgeParentChild))
	assert.Equal(t, []model.GraphEdge{{From: projectsID, To: tasksID, Type: model.EdgePageDatabase}},
		edgesOfKind(snap.Edges, model.EdgePageDatabase))
	assert.Equal(t, []model.GraphEdge{{From: tasksID, To: peopleID, Type: model.EdgeDatabaseRelation, Property: "Assignee"}},
		edgesOfKind(snap.Edges, model.EdgeDatabaseRelation))

	require.Len(t, snap.Content, 2)
	projects := snap.Content[1]
	assert.Equal(t, "Projects", projects.PageTitle)
	assert.Equal(t, "Home", projects.Location)
	require.Len(t, projects.Children, 1)
	assert.Equal(t, "Home → Projects", projects.Children[0].Location)
	assert.Equal(t, 1, projects.Children[0].Depth)
	assert.Equal(t, tasksID, projects.Children[0].DatabaseID)

	projRec, ok := snap.Page(projectsID)
	require.True(t, ok)
	assert.Equal(t, []string{"Home"}, projRec.ParentLocations)
	homeRec, ok := snap.Page(homeID)
	require.True(t, ok)
	assert.Equal(t, []string{model.RootLocation}, homeRec.ParentLocations)
	assert.Empty(t, snap.Stats.Failures)
}

func TestTraverseDeduplicatesDatabases(t *testing.T) {
	t.Parallel()

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			t.Parallel()

			api := newFakeAPI()
			api.addPage(homeID, "Home")
			api.addPage(projectsID, "Projects")
			api.addPage(notesID, "Notes")
			api.addDatabase(tasksID, "Tasks", notion.Parent{Type: "workspace"}, nil)
			api.addChildren(homeID, childPage(projectsID, "Projects"), childPage(notesID, "Notes"))
			api.addChildren(projectsID, childDatabase(tasksID, "Tasks"))
			api.addChildren(notesID, childDatabase(tasksID, "Tasks"))

			snap, err := newTestEngine(api, WithConcurrency(concurrency)).Traverse(context.Background(), homeID)
			require.NoError(t, err)

			require.Len(t, snap.Databases, 1)
			assert.Equal(t, tasksID, snap.Databases[0].ID)
			assert.Len(t, edgesOfKind(snap.Edges, model.EdgePageDatabase), 2)
			assert.Equal(t, 1, api.dbRetrievals[tasksID])
		})
	}
}

func TestTraversePageReachedTwice(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addPage(homeID, "Home")
	api.addPage(projectsID, "Projects")
	api.addPage(notesID, "Notes")
	api.addChildren(homeID, childPage(projectsID, "Projects"), childPage(notesID, "Notes"))
	api.addChildren(notesID,
		childPage(projectsID, "Projects"),
		notion.Block{ID: "tg", Type: "toggle", HasChildren: true, Toggle: &notion.TextBlock{RichText: title("More")}},
	)
	api.addChildren("tg", childPage(projectsID, "Projects"))
	api.addChildren(projectsID, heading("h1", "Goals"), heading("h2", "Plan"))
	// The branch first in tree order records Projects last.
	api.delays["page:"+projectsID] = 100 * time.Millisecond
	api.delays["list:tg"] = 20 * time.Millisecond

	snap, err := newTestEngine(api, WithConcurrency(4)).Traverse(context.Background(), homeID)
	require.NoError(t, err)

	assert.Equal(t, 3, api.pageRetrieved[projectsID])
	assert.Equal(t, []string{"Home", "Notes", "Projects"}, pageTitles(snap))
	projRec, ok := snap.Page(projectsID)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Home", "Home → Notes"}, projRec.ParentLocations)

	first := snap.Content[0]
	assert.True(t, first.Revisit)
	assert.Empty(t, first.Children)

	var traversed int
	model.Walk(snap.Content, func(n *model.ContentNode) bool {
		if n.Kind == model.KindChildPage && model.SameID(n.BlockID, projectsID) && !n.Revisit {
			traversed++
			assert.Len(t, n.Children, 2)
		}
		return true
	})
	assert.Equal(t, 1, traversed)

	bundle := normalize.Normalize(snap)
	var found bool
	for _, p := range bundle.Pages {
		if p.ID != projectsID {
			continue
		}
		found = true
		assert.Equal(t, 2, p.Counts.Headings)
		assert.Equal(t, []string{"Home", "Notes"}, p.Breadcrumb)
	}
	assert.True(t, found)
}

func TestTraverseDepths(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addPage(homeID, "Home")
	api.addChildren(homeID,
		container("cl", "column_list"),
		notion.Block{ID: "sync-orig", Type: "synced_block", HasChildren: true, SyncedBlock: &notion.SyncedBlockContent{}},
		notion.Block{ID: "sync-ref", Type: "synced_block", HasChildren: true, SyncedBlock: &notion.SyncedBlockContent{
			SyncedFrom: &notion.SyncedFrom{Type: "block_id", BlockID: "sync-orig"},
		}},
		notion.Block{ID: "tg", Type: "toggle", HasChildren: true, Toggle: &notion.TextBlock{RichText: title("More")}},
	)
	api.addChildren("cl", container("col1", "column"), container("col2", "column"))
	api.addChildren("col1", heading("h", "Left"))
	api.addChildren("col2", paragraph("p", "Right"))
	api.addChildren("sync-orig", paragraph("sp", "Shared"))
	api.addChildren("sync-ref", paragraph("never", "Not visited"))
	api.addChildren("tg", paragraph("tp", "Hidden"))

	snap, err := newTestEngine(api, WithConcurrency(3)).Traverse(context.Background(), homeID)
	require.NoError(t, err)
	require.Len(t, snap.Content, 4)

	var check func(parent *model.ContentNode, nodes []*model.ContentNode)
	check = func(parent *model.ContentNode, nodes []*model.ContentNode) {
		for _, n := range nodes {
			switch {
			case parent == nil:
				assert.Equal(t, 0, n.Depth, n.BlockID)
			case parent.Kind == model.KindSyncedBlock:
				assert.Equal(t, parent.Depth, n.Depth, n.BlockID)
			default:
				assert.Equal(t, parent.Depth+1, n.Depth, n.BlockID)
			}
			check(n, n.Children)
		}
	}
	check(nil, snap.Content)

	cl := snap.Content[0]
	assert.Equal(t, model.KindContainer, cl.Kind)
	require.Len(t, cl.Children, 2)
	assert.Equal(t, 2, cl.Children[0].Children[0].Depth)

	orig := snap.Content[1]
	require.Len(t, orig.Children, 1)
	assert.Equal(t, 0, orig.Children[0].Depth)

	ref := snap.Content[2]
	assert.Empty(t, ref.Children)
	require.NotNil(t, ref.SyncedRef)
	assert.Equal(t, "sync-orig", ref.SyncedRef.OriginalBlockID)

	toggle := snap.Content[3]
	assert.Equal(t, model.KindText, toggle.Kind)
	require.Len(t, toggle.Children, 1)
	assert.Equal(t, "Hidden", toggle.Children[0].RichText[0].PlainText)
}

func TestTraverseBlockBudget(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.chunk = 2
	api.addPage(homeID, "Home")
	for i := range 10 {
		api.addChildren(homeID, paragraph(fmt.Sprintf("p%d", i), "x"))
	}
	api.addPage(projectsID, "Projects")
	api.addChildren(homeID, childPage(projectsID, "Projects"))
	for i := range 10 {
		api.addChildren(projectsID, paragraph(fmt.Sprintf("q%d", i), "y"))
	}

	const maxBlocks = 3
	snap, err := newTestEngine(api, WithMaxBlocks(maxBlocks), WithConcurrency(2)).Traverse(context.Background(), homeID)
	require.NoError(t, err)

	assert.LessOrEqual(t, snap.Stats.BlocksFetched, int64(maxBlocks+api.chunk))
	assert.True(t, snap.Stats.Truncated())
	assert.Len(t, snap.Content, 4)
	assert.Equal(t, int32(2), api.listCalls.Load())
}

func TestTraverseUnlimitedBudgetListsEverything(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.chunk = 2
	api.addPage(homeID, "Home")
	for i := range 7 {
		api.addChildren(homeID, paragraph(fmt.Sprintf("p%d", i), fmt.Sprint(i)))
	}

	var last int64
	snap, err := newTestEngine(api, WithProgress(func(n int64) { last = n }), WithConcurrency(1)).
		Traverse(context.Background(), homeID)
	require.NoError(t, err)

	require.Len(t, snap.Content, 7)
	for i, n := range snap.Content {
		assert.Equal(t, fmt.Sprintf("p%d", i), n.BlockID)
	}
	assert.Equal(t, int64(7), snap.Stats.BlocksFetched)
	assert.Equal(t, int64(7), last)
	assert.False(t, snap.Stats.Truncated())
}

func TestTraverseRootDatabase(t *testing.T) {
	t.Parallel()

	t.Run("without page parent", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI()
		api.addDatabase(tasksID, "Tasks", notion.Parent{Type: "workspace", Workspace: true}, nil)

		snap, err := newTestEngine(api).Traverse(context.Background(), tasksID)
		require.NoError(t, err)

		assert.Equal(t, model.RootDatabase, snap.RootType)
		assert.Empty(t, snap.Pages)
		require.Len(t, snap.Databases, 1)
		assert.Equal(t, "Tasks", snap.Databases[0].Title)
		assert.Empty(t, snap.Edges)
		assert.Empty(t, snap.Content)
		assert.Empty(t, snap.StartPageID)
	})

	t.Run("with page parent", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI()
		api.addPage(homeID, "Home")
		api.addDatabase(tasksID, "Tasks", notion.Parent{Type: "page_id", PageID: homeID}, nil)
		api.addChildren(homeID, childDatabase(tasksID, "Tasks"), paragraph("p", "text"))

		snap, err := newTestEngine(api).Traverse(context.Background(), tasksID)
		require.NoError(t, err)

		assert.Equal(t, homeID, snap.StartPageID)
		assert.Equal(t, "Home", snap.RootTitle)
		assert.Equal(t, []string{"Home"}, pageTitles(snap))
		require.Len(t, snap.Databases, 1)
		assert.Equal(t, 1, api.dbRetrievals[tasksID])
		assert.Len(t, snap.Content, 2)
		assert.Len(t, edgesOfKind(snap.Edges, model.EdgePageDatabase), 1)
	})
}

func TestTraverseUnresolvableRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantKind  RootErrorKind
		diagnosis string
	}{
		{name: "not found", status: http.StatusNotFound, wantKind: RootErrorNotFound, diagnosis: "ID not found or no access"},
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: RootErrorAuth, diagnosis: "Integration lacks access or token invalid"},
		{name: "forbidden", status: http.StatusForbidden, wantKind: RootErrorAuth, diagnosis: "Integration lacks access or token invalid"},
		{name: "server error", status: http.StatusBadGateway, wantKind: RootErrorOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := newFakeAPI()
			api.failPages[homeID] = tt.status
			api.failDatabases[homeID] = tt.status

			snap, err := newTestEngine(api).Traverse(context.Background(), homeID)
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.True(t, errors.Is(err, ErrRootUnresolved))

			var rootErr *RootError
			require.True(t, errors.As(err, &rootErr))
			assert.Equal(t, tt.wantKind, rootErr.Kind)
			assert.Equal(t, tt.status, notion.StatusOf(err))
			if tt.diagnosis != "" {
				assert.Equal(t, tt.diagnosis, rootErr.Diagnosis())
			} else {
				assert.Contains(t, rootErr.Diagnosis(), "status 502")
			}
			assert.Zero(t, api.listCalls.Load())
		})
	}
}

func TestTraverseFailedChildPageIsIsolated(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addPage(homeID, "Home")
	api.addPage(notesID, "Notes")
	api.failPages[projectsID] = http.StatusForbidden
	api.addChildren(homeID, childPage(projectsID, "Projects"), childPage(notesID, "Notes"))
	api.addChildren(notesID, paragraph("n1", "note"))

	snap, err := newTestEngine(api, WithConcurrency(2)).Traverse(context.Background(), homeID)
	require.NoError(t, err)

	require.Len(t, snap.Content, 2)
	failed := snap.Content[0]
	assert.NotEmpty(t, failed.Error)
	assert.Empty(t, failed.PageID)
	assert.Empty(t, failed.Children)

	notes := snap.Content[1]
	assert.Empty(t, notes.Error)
	assert.Len(t, notes.Children, 1)

	assert.Equal(t, []string{"Home", "Notes"}, pageTitles(snap))
	assert.Equal(t, []model.GraphEdge{{From: homeID, To: notesID, Type: model.EdgeParentChild}}, snap.Edges)
	require.Len(t, snap.Stats.Failures, 1)
	assert.Equal(t, model.FailurePage, snap.Stats.Failures[0].Scope)
}

func TestTraverseFailedDatabaseIsSkipped(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addPage(homeID, "Home")
	api.failDatabases[tasksID] = http.StatusForbidden
	api.addChildren(homeID, childDatabase(tasksID, "Tasks"), paragraph("p", "after"))

	snap, err := newTestEngine(api).Traverse(context.Background(), homeID)
	require.NoError(t, err)

	assert.Empty(t, snap.Databases)
	assert.Len(t, snap.Content, 2)
	require.Len(t, snap.Stats.Failures, 1)
	assert.Equal(t, model.FailureDatabase, snap.Stats.Failures[0].Scope)
}

func TestTraverseTablesAndImages(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addPage(homeID, "Home")
	api.addChildren(homeID,
		notion.Block{ID: "tbl", Type: "table", HasChildren: true, Table: &notion.TableBlock{TableWidth: 2, HasColumnHeader: true}},
		imageBlock("img", "https://example.com/a.png", "A cat"),
		notion.Block{ID: "img2", Type: "image", Image: &notion.MediaBlock{Type: "file", File: &notion.File{URL: "https://files.example.com/b.png?X-Amz=1"}}},
	)
	api.addChildren("tbl",
		notion.Block{ID: "r1", Type: "table_row", TableRow: &notion.TableRowBlock{Cells: [][]notion.RichText{title("Name"), title("Age")}}},
		notion.Block{ID: "r2", Type: "table_row", TableRow: &notion.TableRowBlock{Cells: [][]notion.RichText{
			{{PlainText: "Ada "}, {PlainText: "Lovelace"}}, title("36"),
		}}},
	)

	snap, err := newTestEngine(api).Traverse(context.Background(), homeID)
	require.NoError(t, err)
	require.Len(t, snap.Content, 3)

	tbl := snap.Content[0]
	require.NotNil(t, tbl.Table)
	assert.Equal(t, 2, tbl.Table.Width)
	assert.True(t, tbl.Table.HasColumnHeader)
	assert.Equal(t, [][]string{{"Name", "Age"}, {"Ada Lovelace", "36"}}, tbl.Rows)
	assert.Empty(t, tbl.Children)

	require.Len(t, snap.Images, 2)
	assert.Equal(t, "https://example.com/a.png", snap.Images[0].URL)
	assert.Equal(t, "A cat", snap.Images[0].Caption)
	assert.Equal(t, homeID, snap.Images[0].ParentPageID)
	assert.Equal(t, "https://files.example.com/b.png?X-Amz=1", snap.Images[1].URL)
}

func TestTraverseSampleRows(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addPage(homeID, "Home")
	api.addPage("rel-1", "Alice")
	api.addPage("rel-2", "Bob")
	api.addDatabase(tasksID, "Tasks", notion.Parent{Type: "page_id", PageID: homeID}, map[string]notion.DBProperty{
		"Name":   {Type: "title"},
		"Owners": {Type: "relation", Relation: &notion.RelationConfig{DatabaseID: peopleID}},
		"Score":  {Type: "formula", Formula: &notion.FormulaConfig{Expression: `prop("A") * 2`}},
		"Stage":  {Type: "status", Status: &notion.SelectConfig{Options: []notion.SelectOption{{ID: "s1", Name: "Todo", Color: "red"}}}},
	})
	api.addDatabase(peopleID, "People", notion.Parent{Type: "workspace"}, nil)
	done := true
	api.rows[tasksID] = []notion.Page{
		{ID: "row-1", Properties: map[string]notion.PropertyValue{
			"Name":   {Type: "title", Title: title("Ship it")},
			"Owners": {ID: "own", Type: "relation", Relation: []notion.RelationValue{{ID: "rel-1"}}, HasMore: true},
			"Done":   {Type: "checkbox", Checkbox: &done},
			"Files":  {Type: "files"},
		}},
		{ID: "row-2", Properties: map[string]notion.PropertyValue{"Name": {Type: "title", Title: title("Two")}}},
		{ID: "row-3", Properties: map[string]notion.PropertyValue{"Name": {Type: "title", Title: title("Three")}}},
		{ID: "row-4", Properties: map[string]notion.PropertyValue{"Name": {Type: "title", Title: title("Four")}}},
	}
	api.propItems["row-1/own"] = []notion.PropertyItem{
		{Type: "relation", Relation: &notion.RelationValue{ID: "rel-1"}},
		{Type: "relation", Relation: &notion.RelationValue{ID: "rel-2"}},
		{Type: "relation", Relation: &notion.RelationValue{ID: "missing"}},
	}
	api.addChildren(homeID, childDatabase(tasksID, "Tasks"))

	snap, err := newTestEngine(api, WithRowValues(true)).Traverse(context.Background(), homeID)
	require.NoError(t, err)

	db, ok := snap.Database(tasksID)
	require.True(t, ok)
	require.Len(t, db.SampleRows, 3)

	row := db.SampleRows[0]
	assert.Equal(t, "Ship it", row.RowTitle)
	assert.Equal(t, "row-1", row.RowID)
	assert.Equal(t, model.TextCell("rel-1, rel-2, missing"), row.Properties["Owners"])
	assert.Equal(t, model.TextCell("✅"), row.Properties["Done"])
	assert.Equal(t, model.UnsupportedCell("files"), row.Properties["Files"])

	titles := row.RelationTitles["Owners"]
	require.Len(t, titles, 3)
	require.NotNil(t, titles[0].Title)
	assert.Equal(t, "Alice", *titles[0].Title)
	assert.Equal(t, "Bob", *titles[1].Title)
	assert.Nil(t, titles[2].Title)

	names := make([]string, len(db.Properties))
	for i, p := range db.Properties {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"Name", "Owners", "Score", "Stage"}, names)
	assert.Equal(t, `prop("A") * 2`, db.Properties[2].Expression)
	assert.Equal(t, []model.SelectOption{{ID: "s1", Name: "Todo", Color: "red"}}, db.Properties[3].Options)
}

func TestTraverseRowValuesDisabled(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addDatabase(tasksID, "Tasks", notion.Parent{Type: "workspace"}, nil)
	api.rows[tasksID] = []notion.Page{{ID: "row-1"}}

	snap, err := newTestEngine(api).Traverse(context.Background(), tasksID)
	require.NoError(t, err)
	require.Len(t, snap.Databases, 1)
	assert.Empty(t, snap.Databases[0].SampleRows)
}

func TestTraverseCancelled(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addPage(homeID, "Home")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(api).Traverse(ctx, homeID)
	require.Error(t, err)
}

func TestComments(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	href := "https://example.com"
	api.comments[homeID] = []notion.Comment{
		{ID: "c1", RichText: []notion.RichText{{PlainText: "see "}, {PlainText: "link", Href: &href}}},
	}

	comments, err := newTestEngine(api).Comments(context.Background(), homeID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "c1", comments[0].ID)
	require.Len(t, comments[0].RichText, 2)
	assert.Equal(t, &href, comments[0].RichText[1].Href)

	_, err = newTestEngine(api).Comments(context.Background(), projectsID)
	assert.Error(t, err)
}
