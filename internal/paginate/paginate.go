// Package paginate drains cursor-based list endpoints into complete,
// ordered slices while honouring a fetch budget shared across callers.
package paginate

import (
	"context"

	"github.com/nao1215/notionscan/internal/retry"
)

// Page is one response of a cursor-paginated endpoint.
type Page[T any] struct {
	Items      []T
	HasMore    bool
	NextCursor string
}

// FetchFunc fetches the page that starts at cursor ("" for the first page).
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Budget is a global allowance of fetched items shared by every branch
// of a crawl. Implementations must be safe for concurrent use.
type Budget interface {
	// Exhausted reports whether the allowance is used up.
	Exhausted() bool

	// Spend records n fetched items and reports whether the allowance
	// is used up afterwards.
	Spend(n int) bool
}

// Listing is the result of draining an endpoint.
type Listing[T any] struct {
	// Items holds every item collected, in API order.
	Items []T

	// Pages is the number of requests issued.
	Pages int

	// Truncated is set when the budget stopped pagination before the
	// endpoint reported the end of the list.
	Truncated bool
}

// Lister drains paginated endpoints through a retry executor.
type Lister struct {
	exec   *retry.Executor
	budget Budget
}

// Option configures a Lister.
type Option func(*Lister)

// WithBudget shares b across every listing made by the Lister.
// Without a budget listings are unlimited.
func WithBudget(b Budget) Option {
	return func(l *Lister) {
		l.budget = b
	}
}

// NewLister creates a Lister whose requests run through exec.
func NewLister(exec *retry.Executor, opts ...Option) *Lister {
	if exec == nil {
		exec = retry.NewExecutor()
	}
	l := &Lister{exec: exec}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListAll requests pages until the endpoint reports no more results.
//
// The budget is consulted before each request and after each page.
// Once it is exhausted no further request is issued, and the items
// gathered so far are returned with Truncated set. A page is never cut
// in half, so the budget may be overshot by at most one page.
func ListAll[T any](ctx context.Context, l *Lister, name string, fetch FetchFunc[T]) (Listing[T], error) {
	var out Listing[T]
	cursor := ""
	for {
		if l.budget != nil && l.budget.Exhausted() {
			out.Truncated = true
			return out, nil
		}

		page, err := retry.Do(ctx, l.exec, name, func(ctx context.Context) (Page[T], error) {
			return fetch(ctx, cursor)
		})
		if err != nil {
			return out, err
		}
		out.Pages++
		out.Items = append(out.Items, page.Items...)

		more := page.HasMore && page.NextCursor != ""
		if l.budget != nil && l.budget.Spend(len(page.Items)) {
			out.Truncated = more
			return out, nil
		}
		if !more {
			return out, nil
		}
		cursor = page.NextCursor
	}
}
