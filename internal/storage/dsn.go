package storage

import (
	"net"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"

	"igtdoc/internal/domain"
)

// Driver names registered with database/sql.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ParseDSN maps a --to-db target to a database/sql driver and source:
//
//	sqlite://<path>       SQLite file
//	mysql://<dsn>         go-sql-driver DSN
//	mysql                 MySQL server from DB_HOST, DB_PORT, DB_USERNAME, DB_PASSWORD, DB_DATABASE
func ParseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			break
		}
		return DriverSQLite, path, nil
	case strings.HasPrefix(dsn, "mysql://"):
		source := strings.TrimPrefix(dsn, "mysql://")
		if _, err := mysql.ParseDSN(source); err != nil {
			return "", "", domain.InvalidArgument("storage.ParseDSN", "invalid mysql DSN: %w", err)
		}
		return DriverMySQL, source, nil
	case dsn == "mysql":
		return DriverMySQL, mysqlFromEnv().FormatDSN(), nil
	}
	return "", "", domain.InvalidArgument("storage.ParseDSN", "unsupported database target %q (want sqlite://<path>, mysql://<dsn> or mysql)", dsn)
}

func mysqlFromEnv() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = envOr("DB_USERNAME", "root")
	cfg.Passwd = os.Getenv("DB_PASSWORD")
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(envOr("DB_HOST", "127.0.0.1"), envOr("DB_PORT", "3306"))
	cfg.DBName = envOr("DB_DATABASE", "igtdoc")
	cfg.ParseTime = true
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
