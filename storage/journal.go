// Package storage keeps a local journal of the operations hopper submitted.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Operation kinds
const (
	KindSwap     = "swap"
	KindBridge   = "bridge"
	KindTransfer = "transfer"
)

// Operation statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Entry is one journaled operation.
type Entry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Network   string    `json:"network"`
	Kind      string    `json:"kind"`
	Account   string    `json:"account"`
	Summary   string    `json:"summary"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Network string
	Account string
	Kind    string
	Status  string
	Limit   int
	Offset  int
}

type Journal struct {
	db *sql.DB
}

func Open(dbPath string) (*Journal, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			network TEXT NOT NULL,
			kind TEXT NOT NULL,
			account TEXT NOT NULL,
			summary TEXT NOT NULL,
			tx_hash TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS operations_account ON operations (account, created_at)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record stores e and returns its id.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := j.db.ExecContext(ctx, `INSERT INTO operations (created_at, network, kind, account, summary, tx_hash, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CreatedAt.UnixMilli(), e.Network, e.Kind, strings.ToLower(e.Account), e.Summary, e.TxHash, e.Status, e.Error)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns entries newest first.
func (j *Journal) List(ctx context.Context, filter Filter) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where, args := filter.where()

	query := `SELECT id, created_at, network, kind, account, summary, tx_hash, status, error FROM operations`
	query += where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &created, &e.Network, &e.Kind, &e.Account, &e.Summary, &e.TxHash, &e.Status, &e.Error); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns how many entries match filter, ignoring Limit and Offset.
func (j *Journal) Count(ctx context.Context, filter Filter) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where, args := filter.where()
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (f Filter) where() (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 6)

	if f.Network != "" {
		clauses = append(clauses, "network = ?")
		args = append(args, f.Network)
	}
	if f.Account != "" {
		clauses = append(clauses, "account = ?")
		args = append(args, strings.ToLower(f.Account))
	}
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (j *Journal) Close() error {
	return j.db.Close()
}
