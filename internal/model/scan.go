package model

import "time"

// Scan is the state carried through the scan pipeline.
// Each step fills in the fields it owns.
type Scan struct {
	// RootID is the validated id the scan starts from.
	RootID NotionID
	// IDSource says where RootID came from: "CLI", ".env", "environment" or "config".
	IDSource string

	StartedAt  time.Time
	FinishedAt time.Time

	// Snapshot is set by the traversal step.
	Snapshot *Snapshot
	// Bundle is set by the normalize step.
	Bundle *Bundle
	// Comments is set by the comments step when comments are requested.
	Comments []CommentRecord
	// CommentsFetched reports whether Comments should be written.
	CommentsFetched bool

	// OutputDir is where the output files are written.
	OutputDir string
	// Files lists the files written, relative to OutputDir.
	Files []string

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string
	// Err is the error of the first failed step.
	Err error
}

// NewScan returns a Scan for root.
func NewScan(root NotionID, source string) *Scan {
	return &Scan{
		RootID:    root,
		IDSource:  source,
		StartedAt: time.Now(),
	}
}

// Duration returns how long the scan took, or 0 if it has not finished.
func (s *Scan) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
