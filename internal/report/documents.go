package report

import (
	"strings"

	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/normalize"
)

// Output file names, relative to the output directory.
const (
	ExtractedFile     = "notion_plr_extracted.json"
	PagesFile         = "pages.json"
	DatabasesFile     = "databases.json"
	MediaFile         = "media.json"
	GraphFile         = "graph.json"
	FormulasFile      = "formulas.json"
	FormulaAuditFile  = "formulas_audit.md"
	CommentsFile      = "comments.json"
	ScanMetaFile      = "scan_meta.json"
	SummaryFile       = "summary.md"
	DefaultOutputDir  = "outputs"
	defaultDirPerm    = 0o750
	defaultOutputPerm = 0o600
)

// ExtractedDocument is the raw traversal output.
type ExtractedDocument struct {
	SchemaVersion string               `json:"schemaVersion"`
	Titles        Titles               `json:"titles"`
	Databases     []*DatabaseEntry     `json:"databases"`
	PageContent   []*model.ContentNode `json:"pageContent"`
	Media         ExtractedMedia       `json:"media"`
}

// Titles maps ids to their page and database records.
type Titles struct {
	Pages     map[string]*model.PageRecord `json:"pages"`
	Databases map[string]*DatabaseTitle    `json:"databases"`
}

// DatabaseTitle is a database record without its schema and rows.
type DatabaseTitle struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Icon            *model.Asset `json:"icon"`
	Cover           *model.Asset `json:"cover"`
	LastEditedTime  string       `json:"last_edited_time"`
	ParentLocations []string     `json:"parentLocations"`
}

// DatabaseEntry is a database schema with its sampled rows.
type DatabaseEntry struct {
	Title           string                     `json:"title"`
	ID              string                     `json:"id"`
	Properties      []model.PropertyDescriptor `json:"properties"`
	SampleRows      []model.SampleRow          `json:"sampleRows"`
	ParentLocations []string                   `json:"parentLocations"`
}

// ExtractedMedia holds the image blocks in visit order.
type ExtractedMedia struct {
	ImageBlocks []*model.ContentNode `json:"imageBlocks"`
}

// PagesDocument is the content of pages.json.
type PagesDocument struct {
	SchemaVersion string                 `json:"schemaVersion"`
	Pages         []model.NormalizedPage `json:"pages"`
}

// DatabasesDocument is the content of databases.json.
type DatabasesDocument struct {
	SchemaVersion string                     `json:"schemaVersion"`
	Databases     []model.NormalizedDatabase `json:"databases"`
}

// MediaDocument is the content of media.json.
type MediaDocument struct {
	SchemaVersion string            `json:"schemaVersion"`
	Images        []model.MediaItem `json:"images"`
}

// GraphDocument is the content of graph.json.
type GraphDocument struct {
	SchemaVersion string            `json:"schemaVersion"`
	Nodes         []model.GraphNode `json:"nodes"`
	Edges         []model.GraphEdge `json:"edges"`
}

// FormulasDocument maps database titles to formula property expressions.
type FormulasDocument struct {
	SchemaVersion string                       `json:"schemaVersion"`
	Formulas      map[string]map[string]string `json:"formulas"`
}

// CommentsDocument is the content of comments.json.
type CommentsDocument struct {
	SchemaVersion string                `json:"schemaVersion"`
	Comments      []model.CommentRecord `json:"comments"`
}

// ScanMeta identifies a scan for the history commands.
type ScanMeta struct {
	SchemaVersion string         `json:"schemaVersion"`
	SnapshotKey   string         `json:"snapshotKey"`
	RootID        string         `json:"rootId"`
	RootType      model.RootType `json:"rootType"`
	RootTitle     string         `json:"rootTitle"`
	IDSource      string         `json:"idSource,omitempty"`
	FinishedAt    string         `json:"finishedAt"`
	Settings      Settings       `json:"settings"`
	Stats         MetaStats      `json:"stats"`
}

// Settings are the scan options that shaped the output.
type Settings struct {
	Concurrency      int   `json:"concurrency"`
	IncludeRowValues bool  `json:"includeRowValues"`
	IncludeComments  bool  `json:"includeComments"`
	MaxBlocks        int64 `json:"maxBlocks"`
}

// MetaStats are the counts of a scan.
type MetaStats struct {
	Pages         int             `json:"pages"`
	Databases     int             `json:"databases"`
	Images        int             `json:"images"`
	Edges         int             `json:"edges"`
	TotalBlocks   int64           `json:"totalBlocks"`
	Truncated     bool            `json:"truncated"`
	Truncations   int             `json:"truncations"`
	FailureCount  int             `json:"failureCount"`
	Failures      []model.Failure `json:"failures,omitempty"`
	BlockTypes    map[string]int  `json:"blockTypes,omitempty"`
	ContentBlocks int             `json:"contentBlocks"`
}

// NewExtractedDocument builds the raw traversal output from a snapshot.
func NewExtractedDocument(snap *model.Snapshot) *ExtractedDocument {
	doc := &ExtractedDocument{
		SchemaVersion: model.SchemaVersion,
		Titles: Titles{
			Pages:     make(map[string]*model.PageRecord, len(snap.Pages)),
			Databases: make(map[string]*DatabaseTitle, len(snap.Databases)),
		},
		Databases:   make([]*DatabaseEntry, 0, len(snap.Databases)),
		PageContent: snap.Content,
		Media:       ExtractedMedia{ImageBlocks: snap.Images},
	}
	if doc.PageContent == nil {
		doc.PageContent = []*model.ContentNode{}
	}
	if doc.Media.ImageBlocks == nil {
		doc.Media.ImageBlocks = []*model.ContentNode{}
	}

	for _, p := range snap.Pages {
		doc.Titles.Pages[p.ID] = p
	}
	for _, d := range snap.Databases {
		doc.Titles.Databases[d.ID] = &DatabaseTitle{
			ID:              d.ID,
			Title:           d.Title,
			Icon:            d.Icon,
			Cover:           d.Cover,
			LastEditedTime:  d.LastEditedTime,
			ParentLocations: d.ParentLocations,
		}
		doc.Databases = append(doc.Databases, &DatabaseEntry{
			Title:           d.Title,
			ID:              d.ID,
			Properties:      d.Properties,
			SampleRows:      d.SampleRows,
			ParentLocations: d.ParentLocations,
		})
	}
	return doc
}

// NewFormulasDocument collects the formula expressions of every database.
// Databases sharing a title are merged.
func NewFormulasDocument(databases []*model.DatabaseRecord) *FormulasDocument {
	doc := &FormulasDocument{
		SchemaVersion: model.SchemaVersion,
		Formulas:      make(map[string]map[string]string),
	}
	for _, db := range databases {
		formulas := db.Formulas()
		if len(formulas) == 0 {
			continue
		}
		byName, ok := doc.Formulas[db.Title]
		if !ok {
			byName = make(map[string]string, len(formulas))
			doc.Formulas[db.Title] = byName
		}
		for _, f := range formulas {
			byName[f.Name] = f.Expression
		}
	}
	return doc
}

// NewScanMeta summarizes a finished scan.
func NewScanMeta(scan *model.Scan, settings Settings) *ScanMeta {
	meta := &ScanMeta{
		SchemaVersion: model.SchemaVersion,
		SnapshotKey:   scan.RootID.Compact(),
		RootID:        scan.RootID.String(),
		RootType:      model.RootUnresolved,
		IDSource:      scan.IDSource,
		FinishedAt:    model.FormatTime(scan.FinishedAt),
		Settings:      settings,
	}
	if snap := scan.Snapshot; snap != nil {
		meta.RootType = snap.RootType
		meta.RootTitle = snap.RootTitle
		meta.Stats = newMetaStats(snap)
	}
	return meta
}

func newMetaStats(snap *model.Snapshot) MetaStats {
	var blocks int
	model.Walk(snap.Content, func(*model.ContentNode) bool {
		blocks++
		return true
	})
	return MetaStats{
		Pages:         len(snap.Pages),
		Databases:     len(snap.Databases),
		Images:        len(snap.Images),
		Edges:         len(snap.Edges),
		TotalBlocks:   snap.Stats.BlocksFetched,
		Truncated:     snap.Stats.Truncated(),
		Truncations:   snap.Stats.Truncations,
		FailureCount:  len(snap.Stats.Failures),
		Failures:      snap.Stats.Failures,
		BlockTypes:    normalize.BlockTypes(snap.Content),
		ContentBlocks: blocks,
	}
}

// truncateString shortens s to maxLen runes, appending "...".
func truncateString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
