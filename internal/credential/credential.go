// Package credential keeps the Notion integration token in the system
// keyring so it does not have to live in a .env file.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service is the keyring service name.
	Service = "notionscan"

	// DefaultAccount is the keyring user the token is stored under.
	DefaultAccount = "default"
)

// Token sources.
const (
	SourceEnv     = "environment"
	SourceKeyring = "keyring"
)

var (
	// ErrTokenNotFound is returned when no token is stored.
	ErrTokenNotFound = errors.New("no token stored: run `notionscan auth login` or set NOTION_TOKEN")

	// ErrEmptyToken is returned when saving an empty token.
	ErrEmptyToken = errors.New("token is empty")
)

// Store reads and writes the token of one keyring account.
type Store struct {
	account string
}

// NewStore returns a Store for account. An empty account means DefaultAccount.
func NewStore(account string) *Store {
	if account == "" {
		account = DefaultAccount
	}
	return &Store{account: account}
}

// Get returns the stored token.
func (s *Store) Get() (string, error) {
	token, err := keyring.Get(Service, s.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return token, nil
}

// Set stores token, replacing any previous one.
func (s *Store) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := keyring.Set(Service, s.account, token); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Delete removes the stored token. Deleting a missing token is not an error.
func (s *Store) Delete() error {
	if err := keyring.Delete(Service, s.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Resolve returns envToken when it is set and the stored token otherwise,
// along with where the token came from.
func (s *Store) Resolve(envToken string) (string, string, error) {
	if t := strings.TrimSpace(envToken); t != "" {
		return t, SourceEnv, nil
	}
	token, err := s.Get()
	if err != nil {
		return "", "", err
	}
	return token, SourceKeyring, nil
}

// Mask returns token with all but its prefix and last four characters
// hidden, for status output.
func Mask(token string) string {
	prefix := ""
	for _, p := range []string{"secret_", "ntn_"} {
		if strings.HasPrefix(token, p) {
			prefix = p
			break
		}
	}
	rest := strings.TrimPrefix(token, prefix)
	if len(rest) <= 4 {
		return prefix + strings.Repeat("*", len(rest))
	}
	return prefix + strings.Repeat("*", len(rest)-4) + rest[len(rest)-4:]
}
