package discovery

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`%(?:s|d|ld|lld|i|u|lu|llu)`)
	argRefRe      = regexp.MustCompile(`%?\barg\[(\d+)\]`)
)

// argElement is one value an argument placeholder can take.
type argElement struct {
	key  string
	desc string
}

// numeric elements are declared as "arg[n]: description" and render as <description>.
func (e *argElement) numeric() bool {
	return strings.HasPrefix(e.desc, "<") && strings.HasSuffix(e.desc, ">")
}

func (e *argElement) nameText() string {
	if e.numeric() {
		return "<" + e.key + ">"
	}
	return e.key
}

// argTable holds the elements of each argument of one block, indexed from 0.
type argTable map[int]map[string]*argElement

func (a argTable) element(arg int, key string) *argElement {
	elems, ok := a[arg]
	if !ok {
		elems = make(map[string]*argElement)
		a[arg] = elems
	}
	e, ok := elems[key]
	if !ok {
		e = &argElement{key: key}
		elems[key] = e
	}
	return e
}

func (a argTable) sorted(arg int) []*argElement {
	elems := make([]*argElement, 0, len(a[arg]))
	for _, e := range a[arg] {
		elems = append(elems, e)
	}
	sort.Slice(elems, func(i, j int) bool { return elems[i].key < elems[j].key })
	return elems
}

type expansion struct {
	name  string
	subst []string // description of the element chosen for each argument
}

// expand produces every subtest name a template stands for. Elements are
// taken in key order with the first argument varying fastest.
func (a argTable) expand(template string) ([]expansion, error) {
	count := len(placeholderRe.FindAllStringIndex(template, -1))
	if count == 0 {
		return []expansion{{name: template}}, nil
	}

	elems := make([][]*argElement, count)
	for j := range count {
		elems[j] = a.sorted(j)
		if len(elems[j]) == 0 {
			return nil, fmt.Errorf("subtest %q needs arg[%d], which is not defined", template, j+1)
		}
	}

	var out []expansion
	pos := make([]int, count)
	for {
		subst := make([]string, count)
		for j := range count {
			subst[j] = elems[j][pos[j]].desc
		}
		k := 0
		name := placeholderRe.ReplaceAllStringFunc(template, func(string) string {
			text := elems[k][pos[k]].nameText()
			k++
			return text
		})
		out = append(out, expansion{name: name, subst: subst})

		i := 0
		for i < count && pos[i]+1 >= len(elems[i]) {
			pos[i] = 0
			i++
		}
		if i == count {
			return out, nil
		}
		pos[i]++
	}
}

// substitute replaces arg[n] and %arg[n] references with element descriptions.
func substitute(value string, subst []string) string {
	if len(subst) == 0 {
		return value
	}
	return argRefRe.ReplaceAllStringFunc(value, func(ref string) string {
		m := argRefRe.FindStringSubmatch(ref)
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(subst) {
			return ref
		}
		return subst[n-1]
	})
}
