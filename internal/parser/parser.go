package parser

import "io"

// Parser reads a build artifact and returns the runner names it lists
type Parser interface {
	Parse(r io.Reader) ([]string, error)
}
