// Package notion is a small client for the Notion REST API.
//
// It covers only the read endpoints the crawler needs: pages, databases,
// database queries, block children, comments and paginated page
// properties. Every call takes a context and is throttled client-side.
//
// Errors returned by the API are decoded into *APIError so callers can
// tell rate limiting (429) apart from authorization (401/403) and
// not-found (404) failures.
package notion
