package migrate

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/spf13/afero"
)

// VersionLayout formats the version prefix of generated migrations.
const VersionLayout = "2006-01-02-150405"

var rules = inflect.NewDefaultRuleset()

const (
	upStub   = "-- Your SQL goes here\n"
	downStub = "-- This file should undo anything in `up.sql`\n"
)

// Generate creates an empty migration directory named
// <timestamp>_<name> under dir and returns its path.
func Generate(fs afero.Fs, dir, name string, now time.Time) (string, error) {
	slug := rules.Underscore(strings.Join(strings.Fields(name), "_"))
	if slug == "" {
		return "", fmt.Errorf("migration name is required")
	}
	path := filepath.Join(dir, now.UTC().Format(VersionLayout)+"_"+slug)
	if ok, _ := afero.DirExists(fs, path); ok {
		return "", fmt.Errorf("migration %s already exists", path)
	}
	if err := fs.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	if err := afero.WriteFile(fs, filepath.Join(path, UpFile), []byte(upStub), 0o644); err != nil {
		return "", err
	}
	if err := afero.WriteFile(fs, filepath.Join(path, DownFile), []byte(downStub), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
