// Package model defines the data structures shared by the crawler, the
// normalizer and the report writers.
//
// This package contains the following main types:
//   - ContentNode: One visited block of the raw content tree
//   - PageRecord and DatabaseRecord: Metadata keyed by id, collected during traversal
//   - GraphEdge: A relationship between two pages or databases
//   - Snapshot: Everything a traversal produced, before normalization
//   - Bundle: The normalized pages, databases, media and graph
//   - Scan: The mutable state carried through the scan pipeline
//
// Types live in their own package so the crawler, normalize and report
// packages can share them without import cycles. All of them serialize to
// the JSON documents written to the output directory.
package model
