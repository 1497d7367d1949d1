package catalog

import (
	"strings"

	"igtdoc/internal/domain"
)

// SplitAndExport writes one file per value of sortField into outputDir and
// returns the written paths. sortField is required and checked before
// anything touches the filesystem.
func (c *Catalog) SplitAndExport(outputDir, sortField string) ([]string, error) {
	if strings.TrimSpace(sortField) == "" {
		return nil, domain.InvalidArgument("catalog.SplitAndExport", "a sort field is required to split the output")
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, domain.InvalidArgument("catalog.SplitAndExport", "an output directory is required")
	}
	field := c.canonical(sortField)
	return c.splitter.Write(outputDir, c.Title(), field, c.root, c.Buckets(field))
}
