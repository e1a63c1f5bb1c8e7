package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Root id format errors come from the model package.
var (
	// ErrNoRootID is returned when no root id was given by flag,
	// environment, .env file or config alias.
	ErrNoRootID = errors.New("no root id: pass --pageId, set PAGE_ID, or name a root alias from the config file")

	// ErrInvalidConcurrency is returned when concurrency is below 1.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidMaxBlocks is returned when the block budget is negative.
	// Use 0 for unlimited.
	ErrInvalidMaxBlocks = errors.New("invalid max blocks: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMinInterval is returned when the request interval is negative.
	ErrInvalidMinInterval = errors.New("invalid request interval: must be non-negative")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidSampleRows is returned when the sample size is outside 1..100.
	ErrInvalidSampleRows = errors.New("invalid sample rows: must be between 1 and 100")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory")

	// ErrUnknownRoot is returned when a root alias is not in the config file.
	ErrUnknownRoot = errors.New("unknown root alias")
)
