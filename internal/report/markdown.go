package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/normalize"
)

// pieSlices is the number of block types shown in the summary chart.
// Less common types are folded into "other".
const pieSlices = 8

// MarkdownWriter outputs the scan summary in Markdown format.
// It also renders the formula audit.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the scan summary (the content of summary.md).
func (w *MarkdownWriter) Write(scan *model.Scan) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, scan)
	if snap := scan.Snapshot; snap != nil {
		w.writeCounts(md, snap)
		w.writeBlockChart(md, snap)
		w.writeFailures(md, snap)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the scan information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, scan *model.Scan) {
	title := "Notion Scan Summary"
	rootType := string(model.RootUnresolved)
	if scan.Snapshot != nil {
		rootType = string(scan.Snapshot.RootType)
		if scan.Snapshot.RootTitle != "" {
			title += ": " + scan.Snapshot.RootTitle
		}
	}
	md.H1(title)
	md.PlainText("")

	finished := "-"
	if !scan.FinishedAt.IsZero() {
		finished = scan.FinishedAt.Format("2006-01-02 15:04:05 MST")
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root", "`" + scan.RootID.Masked() + "`"},
			{"Root Type", rootType},
			{"Finished", finished},
			{"Status", statusText(scan)},
		},
	})
	md.PlainText("")
}

func statusText(scan *model.Scan) string {
	switch {
	case scan.Err != nil:
		return "❌ Error - " + scan.Err.Error()
	case scan.Snapshot == nil:
		return "❌ Not scanned"
	case scan.Snapshot.Stats.Truncated():
		return "⚠️ Truncated (block budget reached)"
	case len(scan.Snapshot.Stats.Failures) > 0:
		return "⚠️ Complete with failures"
	default:
		return "✅ Complete"
	}
}

// writeCounts writes the entity counts table.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, snap *model.Snapshot) {
	md.H2("Counts")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Entity", "Count"},
		Rows: [][]string{
			{"Pages", strconv.Itoa(len(snap.Pages))},
			{"Databases", strconv.Itoa(len(snap.Databases))},
			{"Images", strconv.Itoa(len(snap.Images))},
			{"Edges", strconv.Itoa(len(snap.Edges))},
			{"Blocks fetched", strconv.FormatInt(snap.Stats.BlocksFetched, 10)},
			{"Truncated listings", strconv.Itoa(snap.Stats.Truncations)},
		},
	})
	md.PlainText("")
}

type blockCount struct {
	kind  string
	count int
}

// writeBlockChart writes a mermaid pie chart of the block types.
func (w *MarkdownWriter) writeBlockChart(md *markdown.Markdown, snap *model.Snapshot) {
	counts := topBlockTypes(snap.Content, pieSlices)
	if len(counts) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Block Types"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		chart.LabelAndIntValue(c.kind, uint64(c.count)) //nolint:gosec // counts are never negative
	}

	md.H2("Block Types")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// topBlockTypes returns the n most common block types, most common first,
// folding the rest into "other".
func topBlockTypes(nodes []*model.ContentNode, n int) []blockCount {
	var counts []blockCount
	for kind, c := range normalize.BlockTypes(nodes) {
		counts = append(counts, blockCount{kind: kind, count: c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].kind < counts[j].kind
	})
	if len(counts) <= n {
		return counts
	}
	other := blockCount{kind: "other"}
	for _, c := range counts[n-1:] {
		other.count += c.count
	}
	return append(counts[:n-1], other)
}

// writeFailures writes the non-fatal failures with an alert.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, snap *model.Snapshot) {
	md.H2("Failures")
	md.PlainText("")

	failures := snap.Stats.Failures
	if len(failures) == 0 {
		md.Tip("Every page and database was read successfully.")
		md.PlainText("")
		return
	}

	md.Warningf("%d entities could not be read. Their content is missing from the outputs.", len(failures))
	md.PlainText("")

	rows := make([][]string, len(failures))
	for i, f := range failures {
		rows[i] = []string{string(f.Scope), "`" + f.ID + "`", truncateString(f.Message, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Scope", "ID", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by [notionscan](https://github.com/nao1215/notionscan)*")
}

// WriteFormulaAudit outputs every formula property, grouped by database
// (the content of formulas_audit.md).
func (w *MarkdownWriter) WriteFormulaAudit(databases []*model.DatabaseRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Formula Audit")
	md.PlainText("")

	var written int
	for _, db := range databases {
		formulas := db.Formulas()
		if len(formulas) == 0 {
			continue
		}
		written++

		md.H2(db.Title)
		md.PlainText("")
		md.PlainTextf("Database `%s`, %s", db.ID, db.FirstLocation())
		md.PlainText("")
		for _, f := range formulas {
			md.H3(f.Name)
			md.PlainText("")
			md.CodeBlocks(markdown.SyntaxHighlightText, f.Expression)
			md.PlainText("")
		}
	}

	if written == 0 {
		md.Note("No formula properties were found.")
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}
