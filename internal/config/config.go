package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Directory holding .env
	WorkDir string

	// Build settings
	BuildPath string

	// Output settings
	TestlistFormat string
	BucketAliases  map[string]string

	// Paths to ignore when scanning source directories
	PathsToIgnore []string

	// Watch settings
	WatchDebounce time.Duration

	// Command flags
	Flags Flags
}

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

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		WorkDir:        DefaultWorkDir,
		BuildPath:      DefaultBuildPath,
		TestlistFormat: DefaultTestlistFormat,
		WatchDebounce:  DefaultWatchDebounce,
	}
	// Copy defaults so callers can't modify the package-level values
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	cfg.BucketAliases = make(map[string]string, len(DefaultBucketAliases))
	for k, v := range DefaultBucketAliases {
		cfg.BucketAliases[k] = v
	}
	return cfg
}

// LoadEnv reads WorkDir/.env into the process environment. Variables that
// are already set win, and a missing file is not an error.
func (c *Config) LoadEnv() error {
	err := godotenv.Load(filepath.Join(c.WorkDir, ".env"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// GetBuildPath returns the build path: the flag, then IGT_BUILD_PATH, then the default.
func (c *Config) GetBuildPath() string {
	if c.Flags.BuildPath != "" {
		return c.Flags.BuildPath
	}
	if env := os.Getenv(EnvBuildPath); env != "" {
		return env
	}
	return c.BuildPath
}

// GetConfigDir returns the absolute directory of the plan config file.
func (c *Config) GetConfigDir() string {
	dir := filepath.Dir(c.Flags.ConfigFile)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// GetDatabaseDSN returns the --to-db target, falling back to IGTDOC_DB_DSN
// when the flag is unset or given without a value.
func (c *Config) GetDatabaseDSN() string {
	if c.Flags.ToDB != "" && c.Flags.ToDB != DSNFromEnv {
		return c.Flags.ToDB
	}
	return os.Getenv(EnvDatabaseDSN)
}

// GetTestlistFormat returns the split format name.
func (c *Config) GetTestlistFormat() string {
	if c.Flags.TestlistFormat != "" {
		return c.Flags.TestlistFormat
	}
	return c.TestlistFormat
}
