// Package postgres stores users, login requests and sessions in PostgreSQL
// through database/sql and the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/jrsteele09/go-marathon-server/storage/postgres/migrations"
	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

const foreignKeyViolation = "23503"

var (
	_ users.Repo    = (*Store)(nil)
	_ sessions.Repo = (*Store)(nil)
)

type Store struct {
	db *sql.DB
}

// Open prepares a connection pool for dsn. No connection is made until the
// first query; use Ping to wait for the database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.Open] sql.Open")
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.Upstream(err, "ping postgres")
	}
	return nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "[Store.Migrate] goose.SetDialect")
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return errors.Wrap(err, "[Store.Migrate] goose.UpContext")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func dbError(err error, what string) error {
	var pgErr *pgconn.PgError
	if apperrors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return apperrors.Wrapf(apperrors.ErrNotFound, "%s: unknown user", what)
	}
	return apperrors.Upstream(err, "%s", what)
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
