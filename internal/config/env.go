package config

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DotEnvFile is the file read for environment defaults.
const DotEnvFile = ".env"

// Environment variable names.
const (
	EnvPageID           = "PAGE_ID"
	EnvToken            = "NOTION_TOKEN"
	EnvAPIKey           = "NOTION_API_KEY"
	EnvConcurrency      = "CONCURRENCY"
	EnvIncludeRowValues = "INCLUDE_ROW_VALUES"
	EnvIncludeComments  = "INCLUDE_COMMENTS"
	EnvMaxBlocks        = "MAX_BLOCKS"
)

// Env looks up settings in the process environment and a .env file.
// Real environment variables win over the file.
type Env struct {
	dotenv map[string]string
	lookup func(string) (string, bool)
}

// LoadEnv reads path as a .env file. A missing file is not an error.
func LoadEnv(path string) (*Env, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		values = map[string]string{}
	}
	return NewEnv(values, os.LookupEnv), nil
}

// NewEnv builds an Env from .env values and an environment lookup function.
func NewEnv(dotenv map[string]string, lookup func(string) (string, bool)) *Env {
	if dotenv == nil {
		dotenv = map[string]string{}
	}
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return &Env{dotenv: dotenv, lookup: lookup}
}

// Lookup returns the value of key and where it came from (SourceEnv or
// SourceDotEnv). Empty values count as unset.
func (e *Env) Lookup(key string) (string, string, bool) {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		if dv, ok := e.dotenv[key]; ok && dv == v {
			return v, SourceDotEnv, true
		}
		return v, SourceEnv, true
	}
	if v, ok := e.dotenv[key]; ok && strings.TrimSpace(v) != "" {
		return v, SourceDotEnv, true
	}
	return "", "", false
}

// Token returns NOTION_TOKEN, falling back to NOTION_API_KEY.
func (e *Env) Token() string {
	if v, _, ok := e.Lookup(EnvToken); ok {
		return strings.TrimSpace(v)
	}
	if v, _, ok := e.Lookup(EnvAPIKey); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Apply overlays environment settings onto c. Values that do not parse are
// ignored and the previous setting stays. Boolean switches turn on only for
// the exact value "true".
func (e *Env) Apply(c *Config) {
	if v, src, ok := e.Lookup(EnvPageID); ok {
		c.PageID = strings.TrimSpace(v)
		c.IDSource = src
	}
	if token := e.Token(); token != "" {
		c.Token = token
	}
	if v, _, ok := e.Lookup(EnvConcurrency); ok {
		if n, ok := positiveInt(v); ok {
			c.Concurrency = n
		}
	}
	if v, _, ok := e.Lookup(EnvIncludeRowValues); ok {
		c.IncludeRowValues = strings.TrimSpace(v) == "true"
	}
	if v, _, ok := e.Lookup(EnvIncludeComments); ok {
		c.IncludeComments = strings.TrimSpace(v) == "true"
	}
	if v, _, ok := e.Lookup(EnvMaxBlocks); ok {
		if n, ok := nonNegativeInt64(v); ok {
			c.MaxBlocks = n
		}
	}
}

// positiveInt parses a positive finite number and floors it.
func positiveInt(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 0, false
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(math.Floor(f)), true
}

// nonNegativeInt64 parses a non-negative finite number, floors it and
// clamps it to math.MaxInt64.
func nonNegativeInt64(s string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(f), true
}
