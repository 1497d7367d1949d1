package config

import "time"

const (
	// DefaultWorkDir is where .env is looked up
	DefaultWorkDir = "."
	// DefaultBuildPath is the default IGT build directory
	DefaultBuildPath = "build"
	// DefaultTestlistFormat is the default --gen-testlist output format
	DefaultTestlistFormat = "rest"
	// DefaultWatchDebounce is how long watch mode waits for changes to settle
	DefaultWatchDebounce = 300 * time.Millisecond

	// EnvBuildPath overrides the build directory when no flag is given
	EnvBuildPath = "IGT_BUILD_PATH"
	// EnvDatabaseDSN provides --to-db when no flag is given
	EnvDatabaseDSN = "IGTDOC_DB_DSN"
	// DSNFromEnv is the --to-db value used when the flag has no argument
	DSNFromEnv = "env"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for sources
var DefaultPathsToIgnore = []string{
	"build",
	"subprojects",
	"docs",
}

// DefaultBucketAliases rename split buckets to the file stems the runner expects
var DefaultBucketAliases = map[string]string{
	"bat": "fast-feedback",
}
