package cli

import "igtdoc/internal/config"

// Flags holds command-line flags
type Flags struct {
	ConfigFile       string
	Rest             string
	PerTest          bool
	ToJSON           string
	JSONFlat         bool
	ShowSubtests     bool
	SortField        string
	FilterFields     []string
	CheckTestlist    bool
	ListFromBinaries bool
	IncludePlan      bool
	BuildPath        string
	GenTestlist      string
	TestlistFormat   string
	Files            []string
	ToDB             string
	Browse           bool
	Watch            bool
	Progress         bool
	Verbose          bool
}

// ToConfigFlags converts CLI flags to config flags. Positional arguments
// are appended to --files.
func (f *Flags) ToConfigFlags(args ...string) config.Flags {
	files := make([]string, 0, len(f.Files)+len(args))
	files = append(files, f.Files...)
	files = append(files, args...)

	filters := make([]string, len(f.FilterFields))
	copy(filters, f.FilterFields)

	return config.Flags{
		ConfigFile:       f.ConfigFile,
		Rest:             f.Rest,
		PerTest:          f.PerTest,
		ToJSON:           f.ToJSON,
		JSONFlat:         f.JSONFlat,
		ShowSubtests:     f.ShowSubtests,
		SortField:        f.SortField,
		FilterFields:     filters,
		CheckTestlist:    f.CheckTestlist,
		ListFromBinaries: f.ListFromBinaries,
		IncludePlan:      f.IncludePlan,
		BuildPath:        f.BuildPath,
		GenTestlist:      f.GenTestlist,
		TestlistFormat:   f.TestlistFormat,
		Files:            files,
		ToDB:             f.ToDB,
		Browse:           f.Browse,
		Watch:            f.Watch,
		Progress:         f.Progress,
		Verbose:          f.Verbose,
	}
}
