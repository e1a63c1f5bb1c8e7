// Package pipeline runs a scan as an ordered list of steps and provides the
// bounded concurrency scheduler used by the crawler.
//
// A scan goes through root resolution and traversal, optional comment
// collection, normalization and output writing. Each stage is a Step that
// receives the shared *model.Scan and fills in the part it owns. Steps
// depend on small interfaces (Traverser, CommentFetcher, OutputWriter)
// rather than on the crawler and report packages directly.
//
// RunBounded executes a dynamic set of tasks with at most N in flight,
// using errgroup with SetLimit, and reports every task's outcome.
package pipeline
