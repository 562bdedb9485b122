// Package client executes built queries against a database/sql connection
// and decodes their rows through the type registry.
package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/internal/debug"
	"github.com/satishbabariya/typedsql/query/builder"
	"github.com/satishbabariya/typedsql/query/decode"
	"github.com/satishbabariya/typedsql/query/sqlgen"
	"github.com/satishbabariya/typedsql/query/types"
)

// ErrNoRows is returned by First when the query yields no rows.
var ErrNoRows = sql.ErrNoRows

// Session runs statements on a connection or inside a transaction.
type Session interface {
	Dialect() dialect.Dialect
	Load(ctx context.Context, q *builder.SelectQuery) ([]decode.Row, error)
	First(ctx context.Context, q *builder.SelectQuery) (decode.Row, error)
	Execute(ctx context.Context, q builder.Query) (int64, error)
	ExecuteReturning(ctx context.Context, q builder.Query) ([]decode.Row, error)
	ExecRaw(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// conn is satisfied by *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type config struct {
	dialect     dialect.Dialect
	renderer    *sqlgen.Renderer
	registry    *types.Registry
	logger      *slog.Logger
	middlewares []Middleware
}

// Option configures a Client.
type Option func(*config)

// WithLogger sets the logger used by the client. It defaults to the debug
// logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRegistry sets the type registry used to bind arguments and decode
// rows. It defaults to types.Default().
func WithRegistry(r *types.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithMiddleware appends middlewares to the statement chain.
func WithMiddleware(m ...Middleware) Option {
	return func(c *config) { c.middlewares = append(c.middlewares, m...) }
}

// Client is the database client
type Client struct {
	executor
	db *sql.DB
}

// Open opens a connection pool for the provider ("postgres", "mysql",
// "sqlite", ...). The driver must be registered by the caller.
func Open(provider, dsn string, opts ...Option) (*Client, error) {
	d, err := dialect.Get(provider)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", provider, err)
	}
	return New(db, d, opts...), nil
}

// New creates a client from an existing connection pool.
func New(db *sql.DB, d dialect.Dialect, opts ...Option) *Client {
	cfg := &config{
		dialect:  d,
		renderer: sqlgen.NewRenderer(d),
		registry: types.Default(),
		logger:   debug.Logger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = debug.Logger()
	}
	if cfg.registry == nil {
		cfg.registry = types.Default()
	}
	return &Client{executor: executor{conn: db, cfg: cfg}, db: db}
}

// Use adds a middleware to the chain
func (c *Client) Use(m Middleware) {
	c.cfg.middlewares = append(c.cfg.middlewares, m)
}

// Ping verifies the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Registry returns the type registry used for binding and decoding.
func (c *Client) Registry() *types.Registry {
	return c.cfg.registry
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.cfg.logger
}

type executor struct {
	conn conn
	cfg  *config
	inTx bool
}

func (e *executor) Dialect() dialect.Dialect { return e.cfg.dialect }

// Load runs a SELECT and decodes every row into the query's result types.
func (e *executor) Load(ctx context.Context, q *builder.SelectQuery) ([]decode.Row, error) {
	return e.query(ctx, q, 0)
}

// First runs a SELECT and decodes its first row. It returns ErrNoRows when
// there is none.
func (e *executor) First(ctx context.Context, q *builder.SelectQuery) (decode.Row, error) {
	rows, err := e.query(ctx, q, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}

// Execute runs an INSERT, UPDATE or DELETE and returns the number of
// affected rows.
func (e *executor) Execute(ctx context.Context, q builder.Query) (int64, error) {
	out, args, err := e.render(q)
	if err != nil {
		return 0, err
	}
	var affected int64
	err = e.run(ctx, out.SQL, args, func() error {
		res, err := e.conn.ExecContext(ctx, out.SQL, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ExecuteReturning runs a statement with a RETURNING clause and decodes the
// returned rows.
func (e *executor) ExecuteReturning(ctx context.Context, q builder.Query) ([]decode.Row, error) {
	if len(q.ResultTypes()) == 0 {
		return nil, errors.New("client: statement has no RETURNING clause")
	}
	return e.query(ctx, q, 0)
}

// ExecRaw runs SQL text as is. Arguments are passed to the driver
// unchanged.
func (e *executor) ExecRaw(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := e.run(ctx, query, args, func() error {
		var err error
		res, err = e.conn.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// render renders q and converts its canonical arguments for the driver.
func (e *executor) render(q builder.Query) (*sqlgen.Query, []any, error) {
	out, err := e.cfg.renderer.Render(q)
	if err != nil {
		return nil, nil, err
	}
	args := make([]any, len(out.Args))
	for i, a := range out.Args {
		v, err := e.cfg.registry.DriverValue(e.cfg.dialect.Name(), out.ArgTypes[i], a)
		if err != nil {
			return nil, nil, fmt.Errorf("client: argument %d: %w", i+1, err)
		}
		args[i] = v
	}
	return out, args, nil
}

// query runs q and decodes up to limit rows; zero means all rows.
func (e *executor) query(ctx context.Context, q builder.Query, limit int) ([]decode.Row, error) {
	out, args, err := e.render(q)
	if err != nil {
		return nil, err
	}
	dec := decode.New(e.cfg.registry, e.cfg.dialect, q.ResultTypes())

	var result []decode.Row
	err = e.run(ctx, out.SQL, args, func() error {
		rows, err := e.conn.QueryContext(ctx, out.SQL, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.ColumnTypes()
		if err != nil {
			return err
		}
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		for rows.Next() {
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			cells := make([]types.Cell, len(cols))
			for i, ct := range cols {
				cells[i] = types.Cell{Value: values[i], Tag: ct.DatabaseTypeName()}
			}
			row, err := dec.Decode(cells)
			if err != nil {
				return fmt.Errorf("row %d: %w", len(result), err)
			}
			result = append(result, row)
			if limit > 0 && len(result) == limit {
				break
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LoadInto runs a SELECT and assigns each row to a T positionally.
func LoadInto[T any](ctx context.Context, s Session, q *builder.SelectQuery) ([]T, error) {
	rows, err := s.Load(ctx, q)
	if err != nil {
		return nil, err
	}
	return decode.IntoAll[T](rows)
}

// FirstInto is First followed by decode.Into.
func FirstInto[T any](ctx context.Context, s Session, q *builder.SelectQuery) (T, error) {
	row, err := s.First(ctx, q)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode.Into[T](row)
}
