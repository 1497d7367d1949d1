package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"igtdoc/internal/domain"
)

// LevelMarkers underline headings by nesting level.
const LevelMarkers = "=-^_~:.`\"*+#"

// RenderNested writes title, then groups, tests and subtests as nested
// headings, each followed by its own fields. Groups and tests without
// subtests are left out.
func RenderNested(w io.Writer, title string, root *domain.Group) error {
	bw := bufio.NewWriter(w)
	writeTitle(bw, title)
	if err := renderGroup(bw, root); err != nil {
		return err
	}
	return bw.Flush()
}

func renderGroup(w *bufio.Writer, g *domain.Group) error {
	if len(g.Subtests()) == 0 {
		return nil
	}
	level := g.Depth()
	if err := writeHeading(w, g.Name, level); err != nil {
		return err
	}
	writeFields(w, g.Fields)

	for _, t := range g.Tests {
		if len(t.Subtests) == 0 {
			continue
		}
		if err := writeHeading(w, t.IGTName(), level+1); err != nil {
			return err
		}
		var fields domain.Fields
		if t.Summary != "" {
			fields.Set("Summary", t.Summary)
		}
		fields.Merge(t.Fields)
		writeFields(w, fields)

		for _, s := range t.Subtests {
			if err := writeHeading(w, s.IGTName(), level+2); err != nil {
				return err
			}
			writeFields(w, s.Fields)
		}
	}
	for _, child := range g.Groups {
		if err := renderGroup(w, child); err != nil {
			return err
		}
	}
	return nil
}

// RenderFlat writes title, then one block per subtest headed by its dotted
// path and listing its effective fields.
func RenderFlat(w io.Writer, title string, subtests []*domain.Subtest) error {
	bw := bufio.NewWriter(w)
	writeTitle(bw, title)
	for _, s := range subtests {
		if err := writeHeading(bw, s.Path(), 0); err != nil {
			return err
		}
		writeFields(bw, s.Effective)
	}
	return bw.Flush()
}

func writeTitle(w *bufio.Writer, title string) {
	rule := strings.Repeat("=", runewidth.StringWidth(title))
	fmt.Fprintf(w, "%s\n%s\n%s\n\n", rule, title, rule)
}

func writeHeading(w *bufio.Writer, text string, level int) error {
	if level >= len(LevelMarkers) {
		return fmt.Errorf("too many levels: %d, maximum limit is %d", level+1, len(LevelMarkers))
	}
	width := runewidth.StringWidth(text)
	if width == 0 {
		width = 1
	}
	fmt.Fprintf(w, "%s\n%s\n\n", text, strings.Repeat(LevelMarkers[level:level+1], width))
	return nil
}

func writeFields(w *bufio.Writer, fields domain.Fields) {
	if fields.Len() == 0 {
		return
	}
	for _, f := range fields.All() {
		if f.Value == "" {
			fmt.Fprintf(w, ":%s:\n", f.Name)
			continue
		}
		fmt.Fprintf(w, ":%s: %s\n", f.Name, f.Value)
	}
	w.WriteString("\n")
}
