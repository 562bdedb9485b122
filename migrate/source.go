package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Source discovers migrations.
type Source interface {
	Migrations(ctx context.Context) ([]*Migration, error)
}

// Files in a migration directory.
const (
	UpFile       = "up.sql"
	DownFile     = "down.sql"
	MetadataFile = "metadata.yaml"
)

// loadWorkers bounds concurrent directory reads.
const loadWorkers = 8

// Metadata is the optional metadata.yaml of a migration directory.
type Metadata struct {
	RunInTransaction *bool `yaml:"run_in_transaction"`
}

type dirSource struct {
	fs  afero.Fs
	dir string
}

// DirSource reads migrations from dir on fs. Every subdirectory named
// <version>_<name> holds an up.sql, an optional down.sql and an optional
// metadata.yaml.
func DirSource(fs afero.Fs, dir string) Source {
	return &dirSource{fs: fs, dir: dir}
}

// FromFS reads migrations from dir of an io/fs filesystem, e.g. an
// embed.FS.
func FromFS(fsys fs.FS, dir string) Source {
	return &dirSource{fs: afero.FromIOFS{FS: fsys}, dir: dir}
}

func (s *dirSource) Migrations(ctx context.Context) ([]*Migration, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory %s: %w", s.dir, err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, e.Name())
	}

	migrations := make([]*Migration, len(dirs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(loadWorkers)
	for i, name := range dirs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := s.load(name)
			if err != nil {
				return fmt.Errorf("migration %s: %w", name, err)
			}
			migrations[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return sorted(migrations)
}

func (s *dirSource) load(dir string) (*Migration, error) {
	version, name := versionFromDir(dir)
	if version == "" {
		return nil, fmt.Errorf("directory name has no version")
	}
	path := filepath.Join(s.dir, dir)

	upSQL, err := afero.ReadFile(s.fs, filepath.Join(path, UpFile))
	if err != nil {
		return nil, err
	}
	m := &Migration{Version: version, Name: name, Up: string(upSQL)}

	downSQL, err := afero.ReadFile(s.fs, filepath.Join(path, DownFile))
	switch {
	case err == nil:
		m.Down = string(downSQL)
	case !os.IsNotExist(err):
		return nil, err
	}

	meta, err := afero.ReadFile(s.fs, filepath.Join(path, MetadataFile))
	switch {
	case err == nil:
		var md Metadata
		if err := yaml.Unmarshal(meta, &md); err != nil {
			return nil, fmt.Errorf("parse %s: %w", MetadataFile, err)
		}
		m.NoTransaction = md.RunInTransaction != nil && !*md.RunInTransaction
	case !os.IsNotExist(err):
		return nil, err
	}
	return m, nil
}

type listSource []*Migration

// List is a Source over migrations defined in code.
func List(migrations ...*Migration) Source {
	return listSource(migrations)
}

func (l listSource) Migrations(context.Context) ([]*Migration, error) {
	return sorted(append([]*Migration(nil), l...))
}

// sorted orders migrations by version and rejects duplicates.
func sorted(ms []*Migration) ([]*Migration, error) {
	sort.SliceStable(ms, func(i, j int) bool {
		return CompareVersions(ms[i].Version, ms[j].Version) < 0
	})
	for i := 1; i < len(ms); i++ {
		if CompareVersions(ms[i-1].Version, ms[i].Version) == 0 {
			return nil, fmt.Errorf("duplicate migration version %s (%s, %s)", ms[i].Version, ms[i-1], ms[i])
		}
	}
	return ms, nil
}
