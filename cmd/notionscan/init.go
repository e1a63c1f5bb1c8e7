package main

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/nao1215/notionscan/internal/config"
	"github.com/nao1215/notionscan/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/notionscan.yaml
var configTemplate embed.FS

const templatePath = "templates/notionscan.yaml"

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// Template lines replaced when --root or --alias is given.
var (
	templateRootLine  = []byte("# root: 0123456789abcdef0123456789abcdef\n")
	templateRootsLine = []byte("\nroots:\n")
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a notionscan configuration file",
		Long: `Write a commented .notionscan configuration file.

The file holds default scan settings and named roots. Scans pick it up
from the current directory or the home directory; the token is never
stored in it.

Examples:
  # Create .notionscan in the current directory
  notionscan init

  # Set the default root and a named root at once
  notionscan init --root 0123456789abcdef0123456789abcdef --alias handbook=<id>

  # Write somewhere else, replacing an existing file
  notionscan init -o ~/.notionscan -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName, "Path of the configuration file")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	cmd.Flags().String("root", "", "Page or database id scanned when no id is given")
	cmd.Flags().StringToString("alias", nil, "Named root as name=id (repeatable)")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	aliases, err := cmd.Flags().GetStringToString("alias")
	if err != nil {
		return err
	}

	tmpl, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}
	content, err := renderConfig(tmpl, root, aliases)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := writeConfigFile(outputPath, content, force); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	if root != "" {
		fmt.Fprintln(out, "Run `notionscan scan` to scan the default root.")
	}
	for _, name := range sortedAliasNames(aliases) {
		fmt.Fprintf(out, "Run `notionscan scan %s` to scan that root.\n", name)
	}
	return nil
}

// renderConfig fills the default root and named roots into the template.
// Ids are validated first, and the result must parse as a config file.
func renderConfig(tmpl []byte, root string, aliases map[string]string) ([]byte, error) {
	content := bytes.Clone(tmpl)
	if root != "" {
		id, err := model.NewNotionID(root)
		if err != nil {
			return nil, fmt.Errorf("--root: %w", err)
		}
		content = bytes.Replace(content, templateRootLine, []byte("root: "+id.String()+"\n"), 1)
	}

	if len(aliases) > 0 {
		var entries bytes.Buffer
		for _, name := range sortedAliasNames(aliases) {
			id, err := model.NewNotionID(aliases[name])
			if err != nil {
				return nil, fmt.Errorf("--alias %s: %w", name, err)
			}
			key, err := yaml.Marshal(name)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&entries, "  %s: %s\n", bytes.TrimSpace(key), id)
		}
		content = bytes.Replace(content, templateRootsLine, append(bytes.Clone(templateRootsLine), entries.Bytes()...), 1)
	}

	var f config.File
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("generated configuration is invalid: %w", err)
	}
	return content, nil
}

// writeConfigFile creates path with owner-only permissions. Without force
// an existing file is left alone.
func writeConfigFile(path string, content []byte, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0600) //nolint:gosec // user-chosen output path
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
		}
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return f.Close()
}

func sortedAliasNames(aliases map[string]string) []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
