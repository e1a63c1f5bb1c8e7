package crawler

import (
	"context"
	"errors"

	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/notion"
	"github.com/nao1215/notionscan/internal/retry"
)

// ErrRootUnresolved is matched by every *RootError.
var ErrRootUnresolved = errors.New("root id could not be resolved as a page or a database")

// RootErrorKind classifies why a root id could not be resolved.
type RootErrorKind string

// Root error kinds.
const (
	RootErrorAuth     RootErrorKind = "auth"
	RootErrorNotFound RootErrorKind = "not_found"
	RootErrorOther    RootErrorKind = "other"
)

// RootError reports that neither a page nor a database exists for an id.
// Err is the database lookup error, the last one tried.
type RootError struct {
	ID   string
	Kind RootErrorKind
	Err  error
}

// Error implements the error interface.
func (e *RootError) Error() string {
	return "failed to retrieve ID: " + e.Diagnosis()
}

// Diagnosis returns the user-facing explanation.
func (e *RootError) Diagnosis() string {
	switch e.Kind {
	case RootErrorAuth:
		return "Integration lacks access or token invalid"
	case RootErrorNotFound:
		return "ID not found or no access"
	}
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying API error.
func (e *RootError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRootUnresolved) true for every RootError.
func (e *RootError) Is(target error) bool {
	return target == ErrRootUnresolved
}

func classifyRootError(err error) RootErrorKind {
	switch {
	case notion.IsUnauthorized(err):
		return RootErrorAuth
	case notion.IsNotFound(err):
		return RootErrorNotFound
	}
	return RootErrorOther
}

// Root is a resolved root id. Exactly one of Page and Database is set.
type Root struct {
	Type     model.RootType
	Page     *notion.Page
	Database *notion.Database
}

// Identify resolves id as a page first and as a database second.
// When both lookups fail it returns a *RootError.
func Identify(ctx context.Context, api notion.API, exec *retry.Executor, id string) (*Root, error) {
	page, pageErr := retry.Do(ctx, exec, "retrieve_page", func(ctx context.Context) (*notion.Page, error) {
		return api.RetrievePage(ctx, id)
	})
	if pageErr == nil {
		return &Root{Type: model.RootPage, Page: page}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, dbErr := retry.Do(ctx, exec, "retrieve_database", func(ctx context.Context) (*notion.Database, error) {
		return api.RetrieveDatabase(ctx, id)
	})
	if dbErr == nil {
		return &Root{Type: model.RootDatabase, Database: db}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, &RootError{ID: id, Kind: classifyRootError(dbErr), Err: dbErr}
}
