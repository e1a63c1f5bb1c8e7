package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/notionscan/internal/notion"
	"github.com/nao1215/notionscan/internal/retry"
)

// fakeAPI is an in-memory notion.API.
type fakeAPI struct {
	mu        sync.Mutex
	pages     map[string]*notion.Page
	databases map[string]*notion.Database
	children  map[string][]notion.Block
	rows      map[string][]notion.Page
	propItems map[string][]notion.PropertyItem
	comments  map[string][]notion.Comment
	// failPages and failDatabases return the given status for an id.
	failPages     map[string]int
	failDatabases map[string]int
	// chunk is the page size used for block listings.
	chunk int

	// delays holds one-shot latencies keyed by "page:<id>" or "list:<id>".
	delays map[string]time.Duration

	listCalls     atomic.Int32
	dbRetrievals  map[string]int
	pageRetrieved map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		pages:         make(map[string]*notion.Page),
		databases:     make(map[string]*notion.Database),
		children:      make(map[string][]notion.Block),
		rows:          make(map[string][]notion.Page),
		propItems:     make(map[string][]notion.PropertyItem),
		comments:      make(map[string][]notion.Comment),
		failPages:     make(map[string]int),
		failDatabases: make(map[string]int),
		chunk:         100,
		dbRetrievals:  make(map[string]int),
		pageRetrieved: make(map[string]int),
		delays:        make(map[string]time.Duration),
	}
}

// wait sleeps for the delay registered under key, once.
func (f *fakeAPI) wait(key string) {
	f.mu.Lock()
	d := f.delays[key]
	delete(f.delays, key)
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
}

func apiError(status int) error {
	return &notion.APIError{Object: "error", Status: status, Code: http.StatusText(status), Message: "fake"}
}

func (f *fakeAPI) RetrievePage(_ context.Context, id string) (*notion.Page, error) {
	f.wait("page:" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageRetrieved[id]++
	if status, ok := f.failPages[id]; ok {
		return nil, apiError(status)
	}
	p, ok := f.pages[id]
	if !ok {
		return nil, apiError(http.StatusNotFound)
	}
	return p, nil
}

func (f *fakeAPI) RetrieveDatabase(_ context.Context, id string) (*notion.Database, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dbRetrievals[id]++
	if status, ok := f.failDatabases[id]; ok {
		return nil, apiError(status)
	}
	db, ok := f.databases[id]
	if !ok {
		return nil, apiError(http.StatusNotFound)
	}
	return db, nil
}

func (f *fakeAPI) QueryDatabase(_ context.Context, id string, pageSize int, _ string) (*notion.QueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.rows[id]
	if len(rows) > pageSize {
		rows = rows[:pageSize]
	}
	return &notion.QueryResponse{Object: "list", Results: rows}, nil
}

func (f *fakeAPI) ListBlockChildren(_ context.Context, id string, _ int, cursor string) (*notion.BlocksResponse, error) {
	f.listCalls.Add(1)
	f.wait("list:" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.children[id]
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := min(start+f.chunk, len(all))
	resp := &notion.BlocksResponse{Object: "list", Results: append([]notion.Block(nil), all[start:end]...)}
	if end < len(all) {
		next := strconv.Itoa(end)
		resp.HasMore = true
		resp.NextCursor = &next
	}
	return resp, nil
}

func (f *fakeAPI) ListComments(_ context.Context, blockID string, _ string) (*notion.CommentsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[blockID]
	if !ok {
		return nil, apiError(http.StatusForbidden)
	}
	return &notion.CommentsResponse{Object: "list", Results: c}, nil
}

func (f *fakeAPI) RetrievePageProperty(_ context.Context, pageID, propertyID, cursor string) (*notion.PropertyItemResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.propItems[pageID+"/"+propertyID]
	// Two items per page.
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := min(start+2, len(items))
	resp := &notion.PropertyItemResponse{}
	resp.Results = items[start:end]
	if end < len(items) {
		next := strconv.Itoa(end)
		resp.HasMore = true
		resp.NextCursor = &next
	}
	return resp, nil
}

// Fixture builders.

func title(s string) []notion.RichText {
	return []notion.RichText{{Type: "text", PlainText: s}}
}

func (f *fakeAPI) addPage(id, name string) *notion.Page {
	p := &notion.Page{
		Object:         "page",
		ID:             id,
		LastEditedTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Properties: map[string]notion.PropertyValue{
			"title": {ID: "title", Type: "title", Title: title(name)},
		},
	}
	f.pages[id] = p
	return p
}

func (f *fakeAPI) addDatabase(id, name string, parent notion.Parent, props map[string]notion.DBProperty) *notion.Database {
	if props == nil {
		props = map[string]notion.DBProperty{"Name": {ID: "title", Name: "Name", Type: "title"}}
	}
	db := &notion.Database{Object: "database", ID: id, Title: title(name), Parent: parent, Properties: props}
	f.databases[id] = db
	return db
}

func (f *fakeAPI) addChildren(parent string, blocks ...notion.Block) {
	f.children[parent] = append(f.children[parent], blocks...)
}

func paragraph(id, text string) notion.Block {
	return notion.Block{ID: id, Type: "paragraph", Paragraph: &notion.TextBlock{RichText: title(text)}}
}

func heading(id, text string) notion.Block {
	return notion.Block{ID: id, Type: "heading_1", Heading1: &notion.TextBlock{RichText: title(text)}}
}

func childPage(id, name string) notion.Block {
	return notion.Block{ID: id, Type: "child_page", HasChildren: true, ChildPage: &notion.ChildBlock{Title: name}}
}

func childDatabase(id, name string) notion.Block {
	return notion.Block{ID: id, Type: "child_database", ChildDatabase: &notion.ChildBlock{Title: name}}
}

func container(id, typ string) notion.Block {
	return notion.Block{ID: id, Type: typ, HasChildren: true}
}

func imageBlock(id, url, caption string) notion.Block {
	return notion.Block{ID: id, Type: "image", Image: &notion.MediaBlock{
		Type:     "external",
		External: &notion.File{URL: url},
		Caption:  title(caption),
	}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestEngine(api notion.API, opts ...EngineOption) *Engine {
	base := []EngineOption{
		WithLogger(quietLogger()),
		WithExecutor(retry.NewExecutor(retry.WithSleep(noSleep), retry.WithLogger(quietLogger()))),
	}
	return NewEngine(api, append(base, opts...)...)
}
