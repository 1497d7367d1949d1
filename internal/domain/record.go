package domain

// RecordKind tells whether a record documents a test or a subtest.
type RecordKind int

const (
	RecordTest RecordKind = iota
	RecordSubtest
)

// Record is one raw documentation entry extracted from a source file.
type Record struct {
	Kind    RecordKind
	File    string
	Line    int
	Test    string
	Subtest string
	Summary string // TEST: text, only for RecordTest
	Fields  Fields
	Planned bool // read from a planning file rather than an implemented test
}
