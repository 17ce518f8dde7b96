package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"MCNews/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	defaultSQLitePath = "data/mcnews.db"

	keyLastArticleID = "last_article_id"
	keyLastVersionID = "last_version_id"

	historyArticles = "notified_articles"
	historyVersions = "notified_versions"
)

type sqliteBackend struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, path string) (*sqliteBackend, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultSQLitePath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Load(ctx context.Context) (domain.Document, bool, error) {
	doc := domain.NewDocument()

	query, args, err := sq.Select("key", "value").From("state").ToSql()
	if err != nil {
		return doc, false, fmt.Errorf("build state query: %w", err)
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return doc, false, fmt.Errorf("query state: %w", err)
	}
	found := false
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			_ = rows.Close()
			return doc, false, fmt.Errorf("%w: scan state: %v", domain.ErrCorruptDocument, err)
		}
		found = true
		switch key {
		case keyLastArticleID:
			doc.LastArticleID = value
		case keyLastVersionID:
			doc.LastVersionID = value
		}
	}
	if err := closeRows(rows); err != nil {
		return doc, false, err
	}
	if !found {
		return doc, false, nil
	}

	query, args, err = sq.Select("name", "status").From("services_status").ToSql()
	if err != nil {
		return doc, false, fmt.Errorf("build status query: %w", err)
	}
	rows, err = b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return doc, false, fmt.Errorf("query services status: %w", err)
	}
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			_ = rows.Close()
			return doc, false, fmt.Errorf("%w: scan status: %v", domain.ErrCorruptDocument, err)
		}
		doc.LastServicesStatus[name] = status
	}
	if err := closeRows(rows); err != nil {
		return doc, false, err
	}

	if doc.NotifiedArticles, err = b.loadHistory(ctx, historyArticles); err != nil {
		return doc, false, err
	}
	if doc.NotifiedVersions, err = b.loadHistory(ctx, historyVersions); err != nil {
		return doc, false, err
	}
	return doc, true, nil
}

func (b *sqliteBackend) loadHistory(ctx context.Context, kind string) ([]string, error) {
	query, args, err := sq.Select("value").
		From("history").
		Where(sq.Eq{"kind": kind}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	out := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%w: scan %s: %v", domain.ErrCorruptDocument, kind, err)
		}
		out = append(out, value)
	}
	return out, closeRows(rows)
}

// Save replaces every row in one transaction.
func (b *sqliteBackend) Save(ctx context.Context, doc domain.Document) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []sq.Sqlizer{
		sq.Delete("state"),
		sq.Delete("services_status"),
		sq.Delete("history"),
		sq.Insert("state").
			Columns("key", "value").
			Values(keyLastArticleID, doc.LastArticleID).
			Values(keyLastVersionID, doc.LastVersionID),
	}

	if len(doc.LastServicesStatus) > 0 {
		ins := sq.Insert("services_status").Columns("name", "status")
		for name, status := range doc.LastServicesStatus {
			ins = ins.Values(name, status)
		}
		stmts = append(stmts, ins)
	}

	for kind, values := range map[string][]string{
		historyArticles: doc.NotifiedArticles,
		historyVersions: doc.NotifiedVersions,
	} {
		if len(values) == 0 {
			continue
		}
		ins := sq.Insert("history").Columns("kind", "position", "value")
		for i, v := range values {
			ins = ins.Values(kind, i, v)
		}
		stmts = append(stmts, ins)
	}

	for _, stmt := range stmts {
		query, args, err := stmt.ToSql()
		if err != nil {
			return fmt.Errorf("build statement: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("exec %q: %w", query, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("rows iteration: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close rows: %w", err)
	}
	return nil
}
