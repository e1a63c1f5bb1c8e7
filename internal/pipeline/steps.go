package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/notionscan/internal/model"
)

// Traverser resolves a root id and crawls everything reachable from it.
type Traverser interface {
	Traverse(ctx context.Context, rootID string) (*model.Snapshot, error)
}

// CommentFetcher lists the top-level comments of a page.
type CommentFetcher interface {
	Comments(ctx context.Context, pageID string) ([]model.CommentRecord, error)
}

// NormalizeFunc turns a snapshot into its normalized bundle.
type NormalizeFunc func(*model.Snapshot) *model.Bundle

// OutputWriter persists a finished scan and records the files it wrote.
type OutputWriter interface {
	Write(ctx context.Context, scan *model.Scan) error
}

// TraverseStep runs the crawler. A root that cannot be resolved fails the step.
type TraverseStep struct {
	traverser Traverser
	logger    *slog.Logger
}

// NewTraverseStep creates a traversal step.
func NewTraverseStep(t Traverser, logger *slog.Logger) *TraverseStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &TraverseStep{traverser: t, logger: logger}
}

// Name returns the step name.
func (s *TraverseStep) Name() string {
	return "traverse"
}

// Do executes the traversal step.
func (s *TraverseStep) Do(ctx context.Context, scan *model.Scan) error {
	snap, err := s.traverser.Traverse(ctx, scan.RootID.String())
	if err != nil {
		return err
	}
	scan.Snapshot = snap
	s.logger.Info("traversal finished",
		"root_type", snap.RootType,
		"pages", len(snap.Pages),
		"databases", len(snap.Databases),
		"blocks", snap.Stats.BlocksFetched,
		"failures", len(snap.Stats.Failures),
	)
	return nil
}

// CommentsStep collects the comments of the root page.
// Failures are logged and otherwise ignored.
type CommentsStep struct {
	fetcher CommentFetcher
	logger  *slog.Logger
}

// NewCommentsStep creates a comments step.
func NewCommentsStep(f CommentFetcher, logger *slog.Logger) *CommentsStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentsStep{fetcher: f, logger: logger}
}

// Name returns the step name.
func (s *CommentsStep) Name() string {
	return "comments"
}

// Do executes the comments step.
func (s *CommentsStep) Do(ctx context.Context, scan *model.Scan) error {
	comments, err := s.fetcher.Comments(ctx, scan.RootID.String())
	if err != nil {
		s.logger.Debug("comment retrieval failed", "error", err)
		return nil
	}
	scan.Comments = comments
	scan.CommentsFetched = true
	return nil
}

// NormalizeStep builds the normalized bundle from the snapshot.
type NormalizeStep struct {
	normalize NormalizeFunc
}

// NewNormalizeStep creates a normalize step.
func NewNormalizeStep(fn NormalizeFunc) *NormalizeStep {
	return &NormalizeStep{normalize: fn}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string {
	return "normalize"
}

// Do executes the normalize step.
func (s *NormalizeStep) Do(_ context.Context, scan *model.Scan) error {
	if scan.Snapshot == nil {
		return fmt.Errorf("normalize: no snapshot")
	}
	scan.Bundle = s.normalize(scan.Snapshot)
	return nil
}

// WriteStep hands the finished scan to an OutputWriter.
type WriteStep struct {
	writer OutputWriter
}

// NewWriteStep creates an output step.
func NewWriteStep(w OutputWriter) *WriteStep {
	return &WriteStep{writer: w}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write_outputs"
}

// Do executes the output step.
func (s *WriteStep) Do(ctx context.Context, scan *model.Scan) error {
	if scan.FinishedAt.IsZero() {
		scan.FinishedAt = time.Now()
	}
	if err := s.writer.Write(ctx, scan); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	return nil
}

// ScanPipelineConfig lists the collaborators of a full scan.
type ScanPipelineConfig struct {
	Traverser Traverser
	// Comments is optional; when nil no comments step is added.
	Comments  CommentFetcher
	Normalize NormalizeFunc
	Writer    OutputWriter
	Logger    *slog.Logger
}

// NewScanPipeline returns the pipeline for one scan:
// traverse, comments (optional), normalize and write.
func NewScanPipeline(cfg ScanPipelineConfig, opts ...Option) *Pipeline {
	steps := []Step{NewTraverseStep(cfg.Traverser, cfg.Logger)}
	if cfg.Comments != nil {
		steps = append(steps, NewCommentsStep(cfg.Comments, cfg.Logger))
	}
	steps = append(steps, NewNormalizeStep(cfg.Normalize), NewWriteStep(cfg.Writer))
	if cfg.Logger != nil {
		opts = append([]Option{WithLogger(cfg.Logger)}, opts...)
	}
	return New(steps, opts...)
}
