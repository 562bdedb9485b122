package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/internal/debug"
	"github.com/satishbabariya/typedsql/migrate/history"
	"github.com/satishbabariya/typedsql/runtime/client"
)

// State is the status of a migration in the ledger.
type State string

const (
	// StateApplied is recorded in the bookkeeping table.
	StateApplied State = "applied"
	// StatePending is newer than every applied migration and will run next.
	StatePending State = "pending"
	// StateSkipped is unapplied but older than the newest applied migration;
	// Run never applies it.
	StateSkipped State = "skipped"
	// StateMissing is recorded as applied but no longer present in the
	// source.
	StateMissing State = "missing"
)

// Entry is one line of Status.
type Entry struct {
	Version string
	Name    string
	State   State
	RunOn   time.Time
}

// ErrUnknownVersion is returned when a version is not in the source.
var ErrUnknownVersion = errors.New("migration not found")

// Ledger applies and reverts migrations from a Source and records them in
// the bookkeeping table. Concurrent runs against the same database must be
// serialized by the caller.
type Ledger struct {
	client *client.Client
	source Source
	store  *history.Store
	logger *slog.Logger

	mu         sync.Mutex
	discovered []*Migration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger's logger. It defaults to the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(led *Ledger) { led.logger = l }
}

// New creates a ledger that runs migrations from src through c.
func New(c *client.Client, src Source, opts ...Option) *Ledger {
	l := &Ledger{
		client: c,
		source: src,
		store:  history.NewStore(CompareVersions),
		logger: debug.Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = debug.Logger()
	}
	return l
}

// Setup creates the bookkeeping table if it does not exist.
func (l *Ledger) Setup(ctx context.Context) error {
	return l.store.Init(ctx, l.client)
}

// Discover loads and caches the migrations of the source in version order.
func (l *Ledger) Discover(ctx context.Context) ([]*Migration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.discovered != nil {
		return l.discovered, nil
	}
	ms, err := l.source.Migrations(ctx)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		ms = []*Migration{}
	}
	l.discovered = ms
	return ms, nil
}

// Applied returns the recorded migrations in ascending version order.
func (l *Ledger) Applied(ctx context.Context) ([]history.Record, error) {
	if err := l.Setup(ctx); err != nil {
		return nil, err
	}
	return l.store.Versions(ctx, l.client)
}

// Pending returns the discovered migrations newer than the newest applied
// one, in the order Run applies them.
func (l *Ledger) Pending(ctx context.Context) ([]*Migration, error) {
	ms, err := l.Discover(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := l.Applied(ctx)
	if err != nil {
		return nil, err
	}
	return pending(ms, applied), nil
}

func pending(ms []*Migration, applied []history.Record) []*Migration {
	if len(applied) == 0 {
		return ms
	}
	newest := applied[len(applied)-1].Version
	var out []*Migration
	for _, m := range ms {
		if CompareVersions(m.Version, newest) > 0 {
			out = append(out, m)
		}
	}
	return out
}

// Status reports every discovered and every recorded migration.
func (l *Ledger) Status(ctx context.Context) ([]Entry, error) {
	ms, err := l.Discover(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := l.Applied(ctx)
	if err != nil {
		return nil, err
	}

	runOn := make(map[string]time.Time, len(applied))
	for _, r := range applied {
		runOn[r.Version] = r.RunOn
	}
	next := make(map[string]bool)
	for _, m := range pending(ms, applied) {
		next[m.Version] = true
	}

	var entries []Entry
	known := make(map[string]bool, len(ms))
	for _, m := range ms {
		known[m.Version] = true
		e := Entry{Version: m.Version, Name: m.Name}
		switch at, ok := runOn[m.Version]; {
		case ok:
			e.State, e.RunOn = StateApplied, at
		case next[m.Version]:
			e.State = StatePending
		default:
			e.State = StateSkipped
		}
		entries = append(entries, e)
	}
	for _, r := range applied {
		if !known[r.Version] {
			entries = append(entries, Entry{Version: r.Version, State: StateMissing, RunOn: r.RunOn})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return CompareVersions(entries[i].Version, entries[j].Version) < 0
	})
	return entries, nil
}

// Run applies every pending migration and returns the applied versions. It
// stops at the first failure.
func (l *Ledger) Run(ctx context.Context) ([]string, error) {
	return l.RunN(ctx, -1)
}

// RunN applies at most n pending migrations; a negative n applies all.
func (l *Ledger) RunN(ctx context.Context, n int) ([]string, error) {
	ms, err := l.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && n < len(ms) {
		ms = ms[:n]
	}
	var done []string
	for _, m := range ms {
		if err := l.apply(ctx, m); err != nil {
			return done, err
		}
		done = append(done, m.Version)
	}
	return done, nil
}

// Revert reverts the n most recently applied migrations, newest first, and
// returns the reverted versions.
func (l *Ledger) Revert(ctx context.Context, n int) ([]string, error) {
	ms, err := l.Discover(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := l.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > len(applied) {
		n = len(applied)
	}

	byVersion := make(map[string]*Migration, len(ms))
	for _, m := range ms {
		byVersion[m.Version] = m
	}

	var done []string
	for i := len(applied) - 1; i >= len(applied)-n; i-- {
		v := applied[i].Version
		m, ok := byVersion[v]
		if !ok {
			return done, &typedsql.MigrationError{Version: v, Direction: down, Cause: ErrUnknownVersion}
		}
		if err := l.revert(ctx, m); err != nil {
			return done, err
		}
		done = append(done, v)
	}
	return done, nil
}

// RevertAll reverts every applied migration.
func (l *Ledger) RevertAll(ctx context.Context) ([]string, error) {
	return l.Revert(ctx, -1)
}

// Redo reverts the n most recently applied migrations and applies them
// again. It returns the reapplied versions.
func (l *Ledger) Redo(ctx context.Context, n int) ([]string, error) {
	reverted, err := l.Revert(ctx, n)
	if err != nil {
		return nil, err
	}
	return l.RunN(ctx, len(reverted))
}

// Show returns the discovered migration with the given version. The version
// may be written with dashes, as in a migration directory name.
func (l *Ledger) Show(ctx context.Context, version string) (*Migration, error) {
	ms, err := l.Discover(ctx)
	if err != nil {
		return nil, err
	}
	version = strings.ReplaceAll(version, "-", "")
	for _, m := range ms {
		if CompareVersions(m.Version, version) == 0 {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
}

func (l *Ledger) apply(ctx context.Context, m *Migration) error {
	return l.step(ctx, m, up, func(ctx context.Context, s client.Session) error {
		if err := m.run(ctx, s, up); err != nil {
			return err
		}
		return l.store.Insert(ctx, s, m.Version)
	})
}

func (l *Ledger) revert(ctx context.Context, m *Migration) error {
	return l.step(ctx, m, down, func(ctx context.Context, s client.Session) error {
		if err := m.run(ctx, s, down); err != nil {
			return err
		}
		return l.store.Delete(ctx, s, m.Version)
	})
}

// step runs fn for one migration, inside a transaction unless the migration
// opts out, and wraps failures in a MigrationError.
func (l *Ledger) step(ctx context.Context, m *Migration, direction string, fn Func) error {
	start := time.Now()
	logger := l.logger.With("version", m.Version, "name", m.Name, "direction", direction)

	if !l.client.Dialect().Supports(dialect.FeatureTransactionalDDL) {
		logger.Warn("DDL is not transactional on this backend; a failing migration may leave partial changes",
			"dialect", l.client.Dialect().Name())
	}

	var err error
	if m.NoTransaction {
		logger.Warn("running migration outside a transaction")
		err = fn(ctx, l.client)
	} else {
		err = l.client.Transaction(ctx, func(tx *client.Tx) error {
			return fn(ctx, tx)
		})
	}
	if err != nil {
		logger.Error("migration failed", "error", err)
		return &typedsql.MigrationError{Version: m.Version, Name: m.Name, Direction: direction, Cause: err}
	}

	switch direction {
	case up:
		logger.Info("applied migration", "duration", time.Since(start))
	default:
		logger.Info("reverted migration", "duration", time.Since(start))
	}
	return nil
}
