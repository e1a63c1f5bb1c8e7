package config

import (
	"fmt"
	"sort"
)

// Defaults are scan settings read from the config file. Nil fields are unset.
type Defaults struct {
	Concurrency      *int    `yaml:"concurrency,omitempty"`
	MaxBlocks        *int64  `yaml:"maxBlocks,omitempty"`
	IncludeRowValues *bool   `yaml:"includeRowValues,omitempty"`
	IncludeComments  *bool   `yaml:"includeComments,omitempty"`
	Output           *string `yaml:"output,omitempty"`
	SampleRows       *int    `yaml:"sampleRows,omitempty"`
	MaxRetries       *int    `yaml:"maxRetries,omitempty"`
	// Timeout and MinInterval are Go duration strings such as "30s".
	Timeout     string `yaml:"timeout,omitempty"`
	MinInterval string `yaml:"minInterval,omitempty"`
	Proxy       string `yaml:"proxy,omitempty"`
}

// File represents the structure of the .notionscan configuration file.
type File struct {
	// Defaults are applied before the environment and CLI flags.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Roots maps alias names to root ids, so that `notionscan scan handbook`
	// scans the id stored under "handbook".
	Roots map[string]string `yaml:"roots,omitempty"`

	// Root is the id scanned when no id or alias is given.
	Root string `yaml:"root,omitempty"`
}

// Apply copies the file defaults that are set into c.
func (f *File) Apply(c *Config) error {
	d := f.Defaults
	if d.Concurrency != nil {
		c.Concurrency = *d.Concurrency
	}
	if d.MaxBlocks != nil {
		c.MaxBlocks = *d.MaxBlocks
	}
	if d.IncludeRowValues != nil {
		c.IncludeRowValues = *d.IncludeRowValues
	}
	if d.IncludeComments != nil {
		c.IncludeComments = *d.IncludeComments
	}
	if d.Output != nil {
		c.OutputDir = *d.Output
	}
	if d.SampleRows != nil {
		c.SampleRows = *d.SampleRows
	}
	if d.MaxRetries != nil {
		c.MaxRetries = *d.MaxRetries
	}
	if d.Timeout != "" {
		t, err := parseDuration("timeout", d.Timeout)
		if err != nil {
			return err
		}
		c.Timeout = t
	}
	if d.MinInterval != "" {
		t, err := parseDuration("minInterval", d.MinInterval)
		if err != nil {
			return err
		}
		c.MinInterval = t
	}
	if d.Proxy != "" {
		c.Proxy = d.Proxy
	}
	if f.Root != "" && c.PageID == "" {
		c.PageID = f.Root
		c.IDSource = SourceConfig
	}
	return nil
}

// ResolveRoot returns the id stored under alias.
func (f *File) ResolveRoot(alias string) (string, error) {
	if f != nil {
		if id, ok := f.Roots[alias]; ok && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoot, alias)
}

// RootAliases returns the alias names in sorted order.
func (f *File) RootAliases() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.Roots))
	for name := range f.Roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
