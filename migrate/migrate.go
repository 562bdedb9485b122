// Package migrate applies and reverts versioned schema migrations and keeps
// track of them in a bookkeeping table.
package migrate

import (
	"context"
	"fmt"

	"github.com/satishbabariya/typedsql/runtime/client"
)

// Func is a migration step written in Go.
type Func func(ctx context.Context, s client.Session) error

// Migration is one versioned schema change. Up and Down hold SQL scripts;
// UpFunc and DownFunc, when set, run instead of the scripts.
type Migration struct {
	Version string
	Name    string

	Up       string
	Down     string
	UpFunc   Func
	DownFunc Func

	// NoTransaction runs the migration outside a transaction. It is set by
	// run_in_transaction: false in metadata.yaml.
	NoTransaction bool
}

// String returns the migration directory name.
func (m *Migration) String() string {
	if m.Name == "" {
		return m.Version
	}
	return m.Version + "_" + m.Name
}

func (m *Migration) run(ctx context.Context, s client.Session, direction string) error {
	fn, script := m.UpFunc, m.Up
	if direction == down {
		fn, script = m.DownFunc, m.Down
	}
	if fn != nil {
		return fn(ctx, s)
	}
	if script == "" {
		return nil
	}
	if _, err := s.ExecRaw(ctx, script); err != nil {
		return fmt.Errorf("execute %s script: %w", direction, err)
	}
	return nil
}

const (
	up   = "up"
	down = "down"
)
