package crawler

import (
	"sync"
	"sync/atomic"

	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/paginate"
	"golang.org/x/sync/singleflight"
)

// Session is the state of one traversal, shared by all of its branches.
// A new Session is created for every Traverse call, so runs never share
// de-duplication state.
type Session struct {
	maxBlocks int64
	fetched   atomic.Int64
	progress  func(int64)
	metrics   *Metrics

	lister *paginate.Lister
	// titles coalesces concurrent title lookups of the same page.
	titles singleflight.Group

	mu          sync.Mutex
	pages       map[string]*model.PageRecord
	pageOrder   []*model.PageRecord
	claimed     map[string]bool
	databases   []*model.DatabaseRecord
	images      []*model.ContentNode
	edges       []model.GraphEdge
	failures    []model.Failure
	truncations int
}

var _ paginate.Budget = (*Session)(nil)

func newSession(maxBlocks int64, progress func(int64), metrics *Metrics) *Session {
	return &Session{
		maxBlocks: maxBlocks,
		progress:  progress,
		metrics:   metrics,
		pages:     make(map[string]*model.PageRecord),
		claimed:   make(map[string]bool),
	}
}

// Exhausted reports whether the block budget is used up.
// A zero budget never runs out.
func (s *Session) Exhausted() bool {
	return s.maxBlocks > 0 && s.fetched.Load() >= s.maxBlocks
}

// Spend records n fetched blocks and reports whether the budget is used up.
func (s *Session) Spend(n int) bool {
	total := s.fetched.Add(int64(n))
	if s.metrics != nil {
		s.metrics.Blocks.Add(float64(n))
	}
	if s.progress != nil {
		s.progress(total)
	}
	return s.maxBlocks > 0 && total >= s.maxBlocks
}

// BlocksFetched returns the number of blocks fetched so far.
func (s *Session) BlocksFetched() int64 {
	return s.fetched.Load()
}

// claimDatabase marks id as processed and reports whether the caller is
// the first to do so. Check and mark happen under one lock, so two
// branches reaching the same database never both process it.
func (s *Session) claimDatabase(id string) bool {
	key := model.CompactID(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[key] {
		return false
	}
	s.claimed[key] = true
	return true
}

// recordPage stores rec, or appends rec's location to the existing record
// of the same page. It reports whether the page was new.
func (s *Session) recordPage(rec *model.PageRecord) bool {
	key := model.CompactID(rec.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.pages[key]; ok {
		for _, loc := range rec.ParentLocations {
			existing.AddLocation(loc)
		}
		return false
	}
	s.pages[key] = rec
	s.pageOrder = append(s.pageOrder, rec)
	if s.metrics != nil {
		s.metrics.Pages.Inc()
	}
	return true
}

// recordDatabase stores a fully processed database and its relation edges.
func (s *Session) recordDatabase(rec *model.DatabaseRecord, edges []model.GraphEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.databases = append(s.databases, rec)
	s.edges = append(s.edges, edges...)
	if s.metrics != nil {
		s.metrics.Databases.Inc()
	}
}

func (s *Session) addEdge(e model.GraphEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, e)
}

func (s *Session) addImage(n *model.ContentNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, n)
}

func (s *Session) fail(scope model.FailureScope, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, model.Failure{Scope: scope, ID: id, Message: err.Error()})
	if s.metrics != nil {
		s.metrics.Failures.WithLabelValues(string(scope)).Inc()
	}
}

func (s *Session) truncated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.truncations++
	if s.metrics != nil {
		s.metrics.Truncations.Inc()
	}
}

// snapshot copies the collected state into a Snapshot.
// It must only be called once every branch has finished.
func (s *Session) snapshot() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &model.Snapshot{
		Pages:     append([]*model.PageRecord{}, s.pageOrder...),
		Databases: append([]*model.DatabaseRecord{}, s.databases...),
		Images:    append([]*model.ContentNode{}, s.images...),
		Edges:     append([]model.GraphEdge{}, s.edges...),
		Stats: model.ScanStats{
			BlocksFetched: s.fetched.Load(),
			Truncations:   s.truncations,
			Failures:      append([]model.Failure(nil), s.failures...),
		},
	}
}
