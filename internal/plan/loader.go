package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"igtdoc/internal/domain"
)

// Plan is the parsed test plan: recognized fields plus the declared tree.
type Plan struct {
	Name          string
	Title         string
	Path          string // config file; Files and PlanningFiles are relative to its directory
	Files         []string
	PlanningFiles []string
	Fields        []FieldSpec
	Root          *domain.Group

	lookup map[string]string // folded name or plural -> canonical name
	rank   map[string]int    // folded canonical name -> declaration index
}

type subtestDecl struct {
	Name       string        `json:"name" yaml:"name"`
	Attributes domain.Fields `json:"attributes" yaml:"attributes"`
}

type testDecl struct {
	Name       string        `json:"name" yaml:"name"`
	Summary    string        `json:"summary" yaml:"summary"`
	Attributes domain.Fields `json:"attributes" yaml:"attributes"`
	Subtests   []subtestDecl `json:"subtests" yaml:"subtests"`
}

type groupDecl struct {
	Name       string        `json:"name" yaml:"name"`
	Attributes domain.Fields `json:"attributes" yaml:"attributes"`
	Groups     []groupDecl   `json:"groups" yaml:"groups"`
	Tests      []testDecl    `json:"tests" yaml:"tests"`
}

type planDecl struct {
	Name          string        `json:"name" yaml:"name"`
	Title         string        `json:"title" yaml:"title"`
	Fields        fieldTree     `json:"fields" yaml:"fields"`
	Files         []string      `json:"files" yaml:"files"`
	PlanningFiles []string      `json:"planning_files" yaml:"planning_files"`
	Attributes    domain.Fields `json:"attributes" yaml:"attributes"`
	Groups        []groupDecl   `json:"groups" yaml:"groups"`
	Tests         []testDecl    `json:"tests" yaml:"tests"`
}

// Load reads a plan config. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ConfigError("plan.Load", path, "failed to read config: %w", err)
	}

	var decl planDecl
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &decl)
	default:
		err = json.Unmarshal(data, &decl)
	}
	if err != nil {
		return nil, domain.ConfigError("plan.Load", path, "invalid config: %w", err)
	}
	return build(decl, path)
}

// Parse builds a plan from JSON bytes.
func Parse(data []byte) (*Plan, error) {
	var decl planDecl
	if err := json.Unmarshal(data, &decl); err != nil {
		return nil, domain.ConfigError("plan.Parse", "", "invalid config: %w", err)
	}
	return build(decl, "")
}

func build(decl planDecl, path string) (*Plan, error) {
	const op = "plan.Load"

	if strings.TrimSpace(decl.Name) == "" {
		return nil, domain.ConfigError(op, path, "missing required key \"name\"")
	}
	if len(decl.Fields) == 0 {
		return nil, domain.ConfigError(op, path, "missing required key \"fields\"")
	}

	p := &Plan{
		Name:          decl.Name,
		Title:         decl.Title,
		Path:          path,
		Files:         decl.Files,
		PlanningFiles: decl.PlanningFiles,
		Fields:        decl.Fields.flatten(),
		lookup:        make(map[string]string),
		rank:          make(map[string]int),
	}

	for i, f := range p.Fields {
		key := domain.FoldName(f.Name)
		if key == "" {
			return nil, domain.ConfigError(op, path, "field %d has an empty name", i)
		}
		if _, dup := p.rank[key]; dup {
			return nil, domain.ConfigError(op, path, "field %q declared twice", f.Name)
		}
		p.rank[key] = i
		p.lookup[key] = f.Name
	}
	// Plural aliases never shadow a declared singular name.
	for _, f := range p.Fields {
		pl := plural(domain.FoldName(f.Name))
		if _, taken := p.lookup[pl]; !taken {
			p.lookup[pl] = f.Name
		}
	}

	p.Root = domain.NewGroup(decl.Name, nil)
	p.Root.Fields = p.Canonicalize(decl.Attributes)
	if err := p.addTests(p.Root, decl.Tests); err != nil {
		return nil, err
	}
	if err := p.addGroups(p.Root, decl.Groups); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plan) addGroups(parent *domain.Group, decls []groupDecl) error {
	for _, gd := range decls {
		if gd.Name == "" {
			return domain.ConfigError("plan.Load", p.Path, "group without a name in %q", parent.Path())
		}
		if parent.FindGroup(gd.Name) != nil {
			return domain.ConfigError("plan.Load", p.Path, "duplicate group %q in %q", gd.Name, parent.Path())
		}
		g := domain.NewGroup(gd.Name, parent)
		g.Fields = p.Canonicalize(gd.Attributes)
		if err := p.addTests(g, gd.Tests); err != nil {
			return err
		}
		if err := p.addGroups(g, gd.Groups); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) addTests(g *domain.Group, decls []testDecl) error {
	for _, td := range decls {
		if td.Name == "" {
			return domain.ConfigError("plan.Load", p.Path, "test without a name in %q", g.Path())
		}
		if g.FindTest(td.Name) != nil {
			return domain.ConfigError("plan.Load", p.Path, "duplicate test %q in %q", td.Name, g.Path())
		}
		t := g.AddTest(td.Name)
		t.Summary = td.Summary
		t.Fields = p.Canonicalize(td.Attributes)
		for _, sd := range td.Subtests {
			if t.FindSubtest(sd.Name) != nil {
				return domain.ConfigError("plan.Load", p.Path, "duplicate subtest %q in %q", sd.Name, t.Path())
			}
			s := t.AddSubtest(sd.Name)
			s.Fields = p.Canonicalize(sd.Attributes)
		}
	}
	return nil
}

// Lookup returns the declared spelling of a field name, matching
// case-insensitively and accepting the plural form.
func (p *Plan) Lookup(name string) (string, bool) {
	canonical, ok := p.lookup[domain.FoldName(name)]
	return canonical, ok
}

// Rank returns the declaration index of a field. Unknown fields rank after
// every declared one.
func (p *Plan) Rank(name string) int {
	if canonical, ok := p.Lookup(name); ok {
		return p.rank[domain.FoldName(canonical)]
	}
	return len(p.Fields)
}

// FieldNames returns the declared field names in order.
func (p *Plan) FieldNames() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

// Canonicalize returns a copy of fields with recognized names respelled as
// declared.
func (p *Plan) Canonicalize(fields domain.Fields) domain.Fields {
	var out domain.Fields
	for _, f := range fields.All() {
		name := f.Name
		if canonical, ok := p.Lookup(name); ok {
			name = canonical
		}
		out.Set(name, f.Value)
	}
	return out
}

func (p *Plan) String() string {
	return fmt.Sprintf("plan %q (%d fields)", p.Name, len(p.Fields))
}
