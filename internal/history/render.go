package history

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"
)

// Messages printed when there is nothing to show.
const (
	NotEnoughSnapshots = "No changes (need at least two snapshots)."
	NoChanges          = "No changes"
)

// WriteText prints the result in the plain format: one "[+]" or "[-]" line
// per added or removed file and a unified diff per changed file.
func WriteText(w io.Writer, r *Result) error {
	if r.Empty() {
		_, err := io.WriteString(w, NoChanges+"\n")
		return err
	}

	var sb strings.Builder
	for _, name := range r.Added {
		fmt.Fprintf(&sb, "\n[+] %s added\n", name)
	}
	for _, name := range r.Removed {
		fmt.Fprintf(&sb, "\n[-] %s removed\n", name)
	}
	for _, d := range r.Changed {
		fmt.Fprintf(&sb, "\n# %s\n%s", d.Name, d.Unified)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteMarkdown prints the result as a Markdown document.
func WriteMarkdown(w io.Writer, r *Result) error {
	md := markdown.NewMarkdown(w)
	if r.From != "" && r.To != "" {
		md.H1f("Snapshot diff %s → %s", r.From, r.To)
	} else {
		md.H1("Snapshot diff")
	}
	md.PlainText("")

	if r.Empty() {
		md.Tip(NoChanges + ".")
		return md.Build()
	}

	if len(r.Added) > 0 || len(r.Removed) > 0 {
		md.H2("Files")
		md.PlainText("")
		var items []string
		for _, name := range r.Added {
			items = append(items, "[+] `"+name+"` added")
		}
		for _, name := range r.Removed {
			items = append(items, "[-] `"+name+"` removed")
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	for _, d := range r.Changed {
		md.H2(d.Name)
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightDiff, strings.TrimRight(d.Unified, "\n"))
		md.PlainText("")
	}
	return md.Build()
}
