package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/spam-detector/internal/core"
	"go.uber.org/zap"
)

// Dialect selects the database/sql driver of an artifact registry
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "pgx"
)

const pingTimeout = 10 * time.Second

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads artifacts from a registry table with the layout
//
//	name    TEXT PRIMARY KEY
//	payload BLOB
//
// The source only ever issues SELECT statements.
type SQLSource struct {
	db      *sql.DB
	dialect Dialect
	query   string
	logger  *zap.Logger
}

// NewSQLSource opens a database connection and checks that it is reachable
func NewSQLSource(ctx context.Context, dialect Dialect, dsn string, table string, logger *zap.Logger) (*SQLSource, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	src, err := NewSQLSourceFromDB(db, dialect, table, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

// NewSQLSourceFromDB wraps an already open database
func NewSQLSourceFromDB(db *sql.DB, dialect Dialect, table string, logger *zap.Logger) (*SQLSource, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid artifact table name: %q", table)
	}

	placeholder := "?"
	if dialect == DialectPostgres {
		placeholder = "$1"
	}

	return &SQLSource{
		db:      db,
		dialect: dialect,
		query:   fmt.Sprintf("SELECT payload FROM %s WHERE name = %s", table, placeholder),
		logger:  logger,
	}, nil
}

var _ core.ArtifactSource = (*SQLSource)(nil)

// Fetch returns the payload stored under name
func (s *SQLSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.query, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NotFound(name, err)
		}
		return nil, fmt.Errorf("failed to query artifact: %w", err)
	}

	s.logger.Debug("Read artifact row",
		zap.String("dialect", string(s.dialect)),
		zap.String("name", name),
		zap.Int("bytes", len(payload)))
	return payload, nil
}

// Describe returns the driver name of the source
func (s *SQLSource) Describe() string {
	return "sql:" + string(s.dialect)
}

// Stop closes the database connection
func (s *SQLSource) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close artifact database", zap.Error(err))
	}
}
