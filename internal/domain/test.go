package domain

import "strings"

// Group is a named collection of tests declared by the plan.
type Group struct {
	Name   string
	Fields Fields
	Groups []*Group
	Tests  []*Test
	Parent *Group
}

// Test represents one compiled test binary
type Test struct {
	Name     string
	Summary  string // TEST: line of the documentation block
	File     string // source file the test was documented in
	Fields   Fields
	Subtests []*Subtest
	Group    *Group
}

// Subtest is the leaf unit of execution.
type Subtest struct {
	Name       string
	Fields     Fields // own fields
	Effective  Fields // resolved fields, set by the catalog
	Documented bool   // extracted from an implemented source file
	File       string
	Line       int
	Test       *Test
}

// nonInherited lists fields that describe a single entity only.
var nonInherited = map[string]bool{
	FoldName("Description"): true,
}

// Inherited reports whether a field flows from groups and tests down to subtests.
func Inherited(name string) bool {
	return !nonInherited[FoldName(name)]
}

// NewGroup creates an empty group attached to parent (which may be nil).
func NewGroup(name string, parent *Group) *Group {
	g := &Group{Name: name, Parent: parent}
	if parent != nil {
		parent.Groups = append(parent.Groups, g)
	}
	return g
}

// Path returns the dotted group path from the root.
func (g *Group) Path() string {
	var parts []string
	for cur := g; cur != nil; cur = cur.Parent {
		parts = append(parts, cur.Name)
	}
	reverse(parts)
	return strings.Join(parts, ".")
}

// Depth returns 0 for the root group.
func (g *Group) Depth() int {
	d := 0
	for cur := g.Parent; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

// Chain returns the groups from the root down to g.
func (g *Group) Chain() []*Group {
	var chain []*Group
	for cur := g; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	reverse(chain)
	return chain
}

// FindGroup returns the direct child group called name.
func (g *Group) FindGroup(name string) *Group {
	for _, child := range g.Groups {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// FindTest returns the direct child test called name.
func (g *Group) FindTest(name string) *Test {
	for _, t := range g.Tests {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// AddTest appends a new test to g.
func (g *Group) AddTest(name string) *Test {
	t := &Test{Name: name, Group: g}
	g.Tests = append(g.Tests, t)
	return t
}

// Walk visits every test in declaration order, depth first.
func (g *Group) Walk(fn func(*Test)) {
	for _, t := range g.Tests {
		fn(t)
	}
	for _, child := range g.Groups {
		child.Walk(fn)
	}
}

// Subtests returns every subtest below g in declaration order.
func (g *Group) Subtests() []*Subtest {
	var out []*Subtest
	g.Walk(func(t *Test) {
		out = append(out, t.Subtests...)
	})
	return out
}

// Path returns the dotted path of the test.
func (t *Test) Path() string {
	if t.Group == nil {
		return t.Name
	}
	return t.Group.Path() + "." + t.Name
}

// IGTName returns the runner name of the test.
func (t *Test) IGTName() string {
	return "igt@" + t.Name
}

// FindSubtest returns the subtest called name.
func (t *Test) FindSubtest(name string) *Subtest {
	for _, s := range t.Subtests {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddSubtest appends a new subtest to t.
func (t *Test) AddSubtest(name string) *Subtest {
	s := &Subtest{Name: name, Test: t}
	t.Subtests = append(t.Subtests, s)
	return s
}

// Path returns group.test.subtest; a nameless subtest uses the test path.
func (s *Subtest) Path() string {
	if s.Name == "" {
		return s.Test.Path()
	}
	return s.Test.Path() + "." + s.Name
}

// IGTName returns igt@test@subtest, or igt@test for a nameless subtest.
func (s *Subtest) IGTName() string {
	if s.Name == "" {
		return s.Test.IGTName()
	}
	return s.Test.IGTName() + "@" + s.Name
}

// DisplayName is the subtest name, or the test name for nameless subtests.
func (s *Subtest) DisplayName() string {
	if s.Name == "" {
		return s.Test.Name
	}
	return s.Name
}

// Resolve computes the inherited field view of s: group chain, then test,
// then the subtest's own fields.
func (s *Subtest) Resolve() Fields {
	var out Fields
	if s.Test != nil {
		if s.Test.Group != nil {
			for _, g := range s.Test.Group.Chain() {
				mergeInherited(&out, g.Fields)
			}
		}
		mergeInherited(&out, s.Test.Fields)
	}
	out.Merge(s.Fields)
	return out
}

func mergeInherited(dst *Fields, src Fields) {
	for _, f := range src.All() {
		if Inherited(f.Name) {
			dst.Set(f.Name, f.Value)
		}
	}
}

// Prune returns a deep copy of root keeping only subtests accepted by keep.
// Tests and groups left without subtests are dropped; the root is always kept.
func Prune(root *Group, keep func(*Subtest) bool) *Group {
	out := pruneGroup(root, nil, keep)
	if out == nil {
		out = &Group{Name: root.Name, Fields: root.Fields.Clone()}
	}
	return out
}

func pruneGroup(g *Group, parent *Group, keep func(*Subtest) bool) *Group {
	out := &Group{Name: g.Name, Fields: g.Fields.Clone(), Parent: parent}
	for _, t := range g.Tests {
		nt := &Test{Name: t.Name, Summary: t.Summary, File: t.File, Fields: t.Fields.Clone(), Group: out}
		for _, s := range t.Subtests {
			if !keep(s) {
				continue
			}
			ns := *s
			ns.Fields = s.Fields.Clone()
			ns.Effective = s.Effective.Clone()
			ns.Test = nt
			nt.Subtests = append(nt.Subtests, &ns)
		}
		if len(nt.Subtests) > 0 {
			out.Tests = append(out.Tests, nt)
		}
	}
	for _, child := range g.Groups {
		if nc := pruneGroup(child, out, keep); nc != nil {
			out.Groups = append(out.Groups, nc)
		}
	}
	if len(out.Tests) == 0 && len(out.Groups) == 0 {
		return nil
	}
	return out
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Clone returns a deep copy of root, keeping empty tests and groups.
func Clone(root *Group) *Group {
	return cloneGroup(root, nil)
}

func cloneGroup(g *Group, parent *Group) *Group {
	out := &Group{Name: g.Name, Fields: g.Fields.Clone(), Parent: parent}
	for _, t := range g.Tests {
		nt := &Test{Name: t.Name, Summary: t.Summary, File: t.File, Fields: t.Fields.Clone(), Group: out}
		for _, s := range t.Subtests {
			ns := *s
			ns.Fields = s.Fields.Clone()
			ns.Effective = s.Effective.Clone()
			ns.Test = nt
			nt.Subtests = append(nt.Subtests, &ns)
		}
		out.Tests = append(out.Tests, nt)
	}
	for _, child := range g.Groups {
		out.Groups = append(out.Groups, cloneGroup(child, out))
	}
	return out
}
