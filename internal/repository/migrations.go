package repository

import (
	"embed"
	"fmt"
	"path"
)

// Migrations holds the versioned schema for every SQL driver, one directory per driver.
//
//go:embed migrations
var Migrations embed.FS

// MigrationsDir returns the directory in Migrations holding driver's files.
func MigrationsDir(driver string) (string, error) {
	switch driver {
	case DriverMySQL, DriverPostgres:
		return path.Join("migrations", driver), nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}
