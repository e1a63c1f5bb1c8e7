// Package report writes scan results.
//
// DirWriter lays out the output directory: the raw traversal document
// (notion_plr_extracted.json), the normalized documents (pages, databases,
// media, graph), the formula files, optional comments, scan_meta.json and
// a Markdown summary.
//
// The stream writers implement Writer and render a finished scan for the
// terminal:
//   - SimpleWriter: the one-line summary
//   - JSONWriter: scan metadata
//   - MarkdownWriter: summary.md
//
// Schema exports a JSON Schema for each output document.
package report
