package export

import (
	"encoding/json"
	"io"

	"igtdoc/internal/domain"
	"igtdoc/internal/plan"
)

// TreeDocument is the nested JSON export. Fields lists the recognized
// fields of the plan with their descriptions and hierarchy.
type TreeDocument struct {
	Title  string           `json:"title"`
	Fields []plan.FieldSpec `json:"fields,omitempty"`
	Root   GroupDoc         `json:"root"`
}

// GroupDoc is one group of a TreeDocument with its own fields.
type GroupDoc struct {
	Name   string        `json:"name"`
	Fields domain.Fields `json:"fields"`
	Groups []GroupDoc    `json:"groups,omitempty"`
	Tests  []TestDoc     `json:"tests,omitempty"`
}

// TestDoc is one test of a TreeDocument.
type TestDoc struct {
	Name     string        `json:"name"`
	IGTName  string        `json:"igt_name"`
	Summary  string        `json:"summary,omitempty"`
	File     string        `json:"file,omitempty"`
	Fields   domain.Fields `json:"fields"`
	Subtests []SubtestDoc  `json:"subtests"`
}

// SubtestDoc is one subtest of a TreeDocument.
type SubtestDoc struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	IGTName    string        `json:"igt_name"`
	Documented bool          `json:"documented"`
	File       string        `json:"file,omitempty"`
	Line       int           `json:"line,omitempty"`
	Fields     domain.Fields `json:"fields"`
}

// FlatDocument is the flat JSON export: one entry per subtest with its
// effective fields.
type FlatDocument struct {
	Title    string        `json:"title"`
	Subtests []FlatSubtest `json:"subtests"`
}

// FlatSubtest is one entry of a FlatDocument.
type FlatSubtest struct {
	Path       string        `json:"path"`
	IGTName    string        `json:"igt_name"`
	Documented bool          `json:"documented"`
	Fields     domain.Fields `json:"fields"`
}

// NewTreeDocument converts a (filtered) tree.
func NewTreeDocument(title string, fields []plan.FieldSpec, root *domain.Group) TreeDocument {
	return TreeDocument{Title: title, Fields: fields, Root: groupDoc(root)}
}

func groupDoc(g *domain.Group) GroupDoc {
	doc := GroupDoc{Name: g.Name, Fields: g.Fields}
	for _, t := range g.Tests {
		td := TestDoc{
			Name:     t.Name,
			IGTName:  t.IGTName(),
			Summary:  t.Summary,
			File:     t.File,
			Fields:   t.Fields,
			Subtests: []SubtestDoc{},
		}
		for _, s := range t.Subtests {
			td.Subtests = append(td.Subtests, SubtestDoc{
				Name:       s.Name,
				Path:       s.Path(),
				IGTName:    s.IGTName(),
				Documented: s.Documented,
				File:       s.File,
				Line:       s.Line,
				Fields:     s.Fields,
			})
		}
		doc.Tests = append(doc.Tests, td)
	}
	for _, child := range g.Groups {
		doc.Groups = append(doc.Groups, groupDoc(child))
	}
	return doc
}

// NewFlatDocument converts a subtest listing.
func NewFlatDocument(title string, subtests []*domain.Subtest) FlatDocument {
	doc := FlatDocument{Title: title, Subtests: make([]FlatSubtest, 0, len(subtests))}
	for _, s := range subtests {
		doc.Subtests = append(doc.Subtests, FlatSubtest{
			Path:       s.Path(),
			IGTName:    s.IGTName(),
			Documented: s.Documented,
			Fields:     s.Effective,
		})
	}
	return doc
}

// EncodeJSON writes v as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
