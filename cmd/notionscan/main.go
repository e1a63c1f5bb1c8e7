// Package main provides the entry point for the notionscan CLI.
//
// notionscan crawls a Notion page or database tree through the public API
// and writes normalized JSON outputs (pages, databases, media, graph,
// formulas) plus a Markdown summary to an output directory.
//
// Usage:
//
//	notionscan scan --pageId <id>
//	notionscan history snap && notionscan history diff
//
// See --help for all available options.
package main

func main() {
	Execute()
}
