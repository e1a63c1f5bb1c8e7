// Package crawler walks a Notion workspace from a single root id and
// builds the raw content tree, page and database metadata, and graph edges.
//
// # Architecture
//
// The Engine coordinates a traversal. Each call to Traverse creates a
// Session that owns the state shared by concurrent branches: the
// blocks-fetched counter (also the pagination budget), the set of
// processed databases, and the collected records and edges.
//
// Visiting a block lists its children completely, classifies each child
// into a model.BlockKind, and defers every recursive descent and table row
// fetch into a list of tasks. The tasks run through pipeline.RunBounded,
// so siblings are explored in parallel up to the configured concurrency
// while each node's own child list stays in API order.
//
// # Failures
//
// Only root resolution is fatal; Identify returns a *RootError that
// distinguishes access problems from not-found ids. A database that
// cannot be fetched, a child page that cannot be retrieved, or a subtree
// whose listing fails is recorded as a model.Failure and the run goes on.
//
// # Usage
//
//	engine := crawler.NewEngine(client, crawler.WithConcurrency(3))
//	snap, err := engine.Traverse(ctx, rootID)
package crawler
