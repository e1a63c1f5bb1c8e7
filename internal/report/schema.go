package report

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/nao1215/notionscan/internal/model"
)

// ErrUnknownSchema is returned by Schema for a document name it does not know.
var ErrUnknownSchema = errors.New("unknown output document")

// schemaDocuments maps document names to the type written for them.
var schemaDocuments = map[string]struct {
	file string
	doc  any
}{
	"pages":     {PagesFile, &PagesDocument{}},
	"databases": {DatabasesFile, &DatabasesDocument{}},
	"media":     {MediaFile, &MediaDocument{}},
	"graph":     {GraphFile, &GraphDocument{}},
	"extracted": {ExtractedFile, &ExtractedDocument{}},
	"formulas":  {FormulasFile, &FormulasDocument{}},
	"comments":  {CommentsFile, &CommentsDocument{}},
	"scan_meta": {ScanMetaFile, &ScanMeta{}},
}

// SchemaNames returns the names accepted by Schema, sorted.
func SchemaNames() []string {
	names := make([]string, 0, len(schemaDocuments))
	for name := range schemaDocuments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the JSON Schema of the named output document.
func Schema(name string) (*jsonschema.Schema, error) {
	d, ok := schemaDocuments[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}

	r := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         mapCellValue,
	}
	s := r.Reflect(d.doc)
	s.Title = d.file
	s.Description = fmt.Sprintf("notionscan %s, schemaVersion %s", d.file, model.SchemaVersion)
	return s, nil
}

var cellValueType = reflect.TypeFor[model.CellValue]()

// mapCellValue describes CellValue by its JSON form rather than its fields.
func mapCellValue(t reflect.Type) *jsonschema.Schema {
	if t != cellValueType {
		return nil
	}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "object", Description: "a property type with no text rendering"},
		},
	}
}
