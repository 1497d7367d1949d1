package discovery

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"igtdoc/internal/domain"
)

// FieldResolver maps a field name to the spelling the plan declares.
type FieldResolver interface {
	Lookup(name string) (string, bool)
}

var (
	blockOpenRe   = regexp.MustCompile(`^\s*/\*\*$`)
	blockCloseRe  = regexp.MustCompile(`^\s*\*/$`)
	blankStarRe   = regexp.MustCompile(`^\s*\*$`)
	leadingStarRe = regexp.MustCompile(`^\s*\* ?`)

	testRe     = regexp.MustCompile(`^TEST:\s*(.*)`)
	subtestRe  = regexp.MustCompile(`^SUBTESTS?:\s*(.*)`)
	fieldRe    = regexp.MustCompile(`^([^\s:\[@][^:\[]*?):\s*(.*)`)
	unknownRe  = regexp.MustCompile(`^[A-Z][\w-]*(?: [\w-]+){0,3}$`)
	argRe      = regexp.MustCompile(`^arg\[(\d+)\]:\s*(.*)`)
	elementRe  = regexp.MustCompile(`^@(\S+):\s*(.*)`)
	valuesRe   = regexp.MustCompile(`^arg\[(\d+)\]\.values:\s*(.*)`)
	continueRe = regexp.MustCompile(`^\s+\*?\s*(.*)`)
)

// Parser extracts documentation records from test sources.
type Parser struct {
	resolver  FieldResolver
	logger    *zap.Logger
	planned   bool
	onFile    func(path string)
	onWarning func(domain.ExtractionWarning)
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithPlanned marks every record as coming from a planning file.
func WithPlanned(planned bool) ParserOption {
	return func(p *Parser) { p.planned = planned }
}

// WithFileHook is called before each file of Extract is read.
func WithFileHook(fn func(path string)) ParserOption {
	return func(p *Parser) { p.onFile = fn }
}

// WithWarningHandler receives every skipped block in addition to the log.
func WithWarningHandler(fn func(domain.ExtractionWarning)) ParserOption {
	return func(p *Parser) { p.onWarning = fn }
}

// NewParser creates a new Parser. A nil logger discards warnings.
func NewParser(resolver FieldResolver, logger *zap.Logger, opts ...ParserOption) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Parser{resolver: resolver, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract reads every file in order. The sequence ends after the first
// unreadable file.
func (p *Parser) Extract(paths []string) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		for _, path := range paths {
			if p.onFile != nil {
				p.onFile(path)
			}
			for rec, err := range p.ParseFile(path) {
				if !yield(rec, err) || err != nil {
					return
				}
			}
		}
	}
}

// ParseFile returns the records documented in path. The file is opened
// each time the sequence is iterated.
func (p *Parser) ParseFile(path string) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(domain.Record{}, fmt.Errorf("error reading file %s: %w", path, err))
			return
		}
		defer f.Close()
		for rec, err := range p.Parse(path, f) {
			if !yield(rec, err) {
				return
			}
		}
	}
}

// Parse reads documentation blocks from r. name is used for the test name
// and in warnings.
func (p *Parser) Parse(name string, r io.Reader) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		test := TestName(name)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		var b *block
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimRight(scanner.Text(), " \t\r")

			switch {
			case blankStarRe.MatchString(line):
				continue
			case blockCloseRe.MatchString(line):
				if b != nil {
					for _, rec := range p.finish(b, name, test) {
						if !yield(rec, nil) {
							return
						}
					}
				}
				b = nil
				continue
			case blockOpenRe.MatchString(line):
				if b != nil && b.hasSection() {
					p.warn(name, b.start, "documentation block not closed")
				}
				b = newBlock(name, lineNo)
				continue
			}
			if b == nil || b.err != "" {
				continue
			}
			p.parseLine(b, leadingStarRe.ReplaceAllString(line, ""), lineNo)
		}
		if err := scanner.Err(); err != nil {
			yield(domain.Record{}, fmt.Errorf("error reading file %s: %w", name, err))
			return
		}
		if b != nil && b.hasSection() {
			p.warn(name, b.start, "documentation block not closed")
		}
	}
}

// TestName derives the test name from a source file: its base name
// without extension.
func TestName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type section struct {
	name   string
	line   int
	fields domain.Fields
}

type block struct {
	file     string
	start    int
	test     *section
	subtests []*section
	args     argTable

	current *section
	field   string // field open for continuation lines
	arg     int    // argument open for elements, -1 when none
	element *argElement
	err     string
	errLine int
}

func newBlock(file string, line int) *block {
	return &block{file: file, start: line, args: make(argTable), arg: -1}
}

func (b *block) hasSection() bool {
	return b.test != nil || len(b.subtests) > 0
}

func (b *block) fail(line int, format string, args ...any) {
	b.err = fmt.Sprintf(format, args...)
	b.errLine = line
}

func (p *Parser) parseLine(b *block, line string, lineNo int) {
	if strings.TrimSpace(line) == "" {
		return
	}

	if m := testRe.FindStringSubmatch(line); m != nil {
		if b.hasSection() {
			b.fail(lineNo, "TEST: must open the documentation block")
			return
		}
		b.test = &section{name: m[1], line: lineNo}
		b.current, b.field, b.arg, b.element = b.test, "", -1, nil
		return
	}
	if m := subtestRe.FindStringSubmatch(line); m != nil {
		s := &section{name: strings.TrimSpace(m[1]), line: lineNo}
		b.subtests = append(b.subtests, s)
		b.current, b.field, b.arg, b.element = s, "", -1, nil
		return
	}

	// Ordinary comments without TEST or SUBTEST are not documentation.
	if !b.hasSection() {
		return
	}

	if m := argRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			b.fail(lineNo, "invalid argument index %q", m[1])
			return
		}
		if len(b.subtests) == 0 {
			b.fail(lineNo, "arguments must follow a subtest in the same comment")
			return
		}
		b.field, b.arg, b.element = "", n-1, nil
		if desc := m[2]; desc != "" {
			b.element = b.args.element(b.arg, desc)
			b.element.desc = "<" + desc + ">"
		}
		return
	}
	if m := elementRe.FindStringSubmatch(line); m != nil {
		if b.arg < 0 {
			p.warn(b.file, lineNo, fmt.Sprintf("invalid argument: @%s: %s", m[1], m[2]))
			return
		}
		b.field = ""
		b.element = b.args.element(b.arg, m[1])
		b.element.desc = m[2]
		return
	}
	if m := valuesRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 || len(b.subtests) == 0 {
			b.fail(lineNo, "invalid argument values %q", line)
			return
		}
		b.field, b.arg, b.element = "", n-1, nil
		for _, v := range strings.Split(strings.ReplaceAll(m[2], " ", ""), ",") {
			if v != "" {
				b.args.element(b.arg, v).desc = v
			}
		}
		return
	}
	if m := fieldRe.FindStringSubmatch(line); m != nil {
		if name, ok := p.fieldName(m[1]); ok {
			b.current.fields.Set(name, m[2])
			b.field, b.arg, b.element = name, -1, nil
			return
		}
	}

	if m := continueRe.FindStringSubmatch(line); m != nil {
		switch {
		case b.field != "":
			value := b.current.fields.Value(b.field)
			if value != "" {
				value += " "
			}
			b.current.fields.Set(b.field, value+strings.TrimSpace(line))
			return
		case b.element != nil:
			e := b.element
			if e.numeric() {
				e.desc = strings.TrimSuffix(e.desc, ">") + " " + m[1] + ">"
			} else {
				if e.desc != "" {
					e.desc += " "
				}
				e.desc += m[1]
			}
			return
		}
	}

	b.fail(lineNo, "unrecognized line %q", line)
}

// fieldName resolves a field label: declared fields take their declared
// spelling, other capitalized labels of up to four words are kept as is.
func (p *Parser) fieldName(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if p.resolver != nil {
		if name, ok := p.resolver.Lookup(label); ok {
			return name, true
		}
	}
	if unknownRe.MatchString(label) {
		return label, true
	}
	return "", false
}

// finish turns a closed block into records, or drops it with a warning.
func (p *Parser) finish(b *block, file, test string) []domain.Record {
	if b.err != "" {
		p.warn(file, b.errLine, b.err)
		return nil
	}

	var out []domain.Record
	if b.test != nil {
		out = append(out, domain.Record{
			Kind:    domain.RecordTest,
			File:    file,
			Line:    b.test.line,
			Test:    test,
			Summary: b.test.name,
			Fields:  b.test.fields,
			Planned: p.planned,
		})
	}
	for _, s := range b.subtests {
		expanded, err := b.args.expand(s.name)
		if err != nil {
			p.warn(file, s.line, err.Error())
			continue
		}
		for _, e := range expanded {
			var fields domain.Fields
			for _, f := range s.fields.All() {
				fields.Set(f.Name, substitute(f.Value, e.subst))
			}
			out = append(out, domain.Record{
				Kind:    domain.RecordSubtest,
				File:    file,
				Line:    s.line,
				Test:    test,
				Subtest: e.name,
				Fields:  fields,
				Planned: p.planned,
			})
		}
	}
	return out
}

func (p *Parser) warn(file string, line int, msg string) {
	w := domain.ExtractionWarning{File: file, Line: line, Message: msg}
	p.logger.Warn("skipping documentation",
		zap.String("file", file),
		zap.Int("line", line),
		zap.String("reason", msg),
	)
	if p.onWarning != nil {
		p.onWarning(w)
	}
}
