package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/shindan/internal/responselog"
)

const defaultResponsesTable = "diagnosis_responses"

// ResponseLog is the remote tabular log store. Its columns are
// responselog.Header, all text; the table is created on the first append.
type ResponseLog struct {
	store *Store
	table string

	mu    sync.Mutex
	ready bool
}

func (s *Store) ResponseLog() *ResponseLog {
	return &ResponseLog{store: s, table: defaultResponsesTable}
}

func (l *ResponseLog) Name() string { return "postgres" }

func (l *ResponseLog) ensureTable(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready {
		return nil
	}
	if _, err := l.store.pool.Exec(ctx, createTableSQL(l.table)); err != nil {
		return err
	}
	l.ready = true
	return nil
}

// Append inserts one row. Rows are not keyed, so a retried append that had
// already succeeded adds a duplicate.
func (l *ResponseLog) Append(ctx context.Context, row responselog.Row) error {
	if err := l.ensureTable(ctx); err != nil {
		return fmt.Errorf("%w: create table %s: %v", responselog.ErrAppendFailed, l.table, err)
	}

	values := row.Values()
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	if _, err := l.store.pool.Exec(ctx, insertSQL(l.table), args...); err != nil {
		return fmt.Errorf("%w: insert into %s: %v", responselog.ErrAppendFailed, l.table, err)
	}
	return nil
}

// Count returns the number of logged rows.
func (l *ResponseLog) Count(ctx context.Context) (int64, error) {
	var n int64
	err := l.store.pool.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{l.table}.Sanitize()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", l.table, err)
	}
	return n, nil
}

func createTableSQL(table string) string {
	cols := make([]string, 0, len(responselog.Header)+1)
	cols = append(cols, "id BIGSERIAL PRIMARY KEY")
	for _, h := range responselog.Header {
		cols = append(cols, pgx.Identifier{h}.Sanitize()+" TEXT NOT NULL DEFAULT ''")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		pgx.Identifier{table}.Sanitize(), strings.Join(cols, ",\n\t"))
}

func insertSQL(table string) string {
	cols := make([]string, len(responselog.Header))
	params := make([]string, len(responselog.Header))
	for i, h := range responselog.Header {
		cols[i] = pgx.Identifier{h}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(), strings.Join(cols, ", "), strings.Join(params, ", "))
}
