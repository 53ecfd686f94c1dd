package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig defines a single-row INSERT ... ON CONFLICT statement.
type UpsertConfig struct {
	Table        string   // target table, optionally schema-qualified
	Columns      []string // columns in argument order
	ConflictKeys []string // columns forming the unique constraint
	UpdateCols   []string // columns to update on conflict; nil = all non-conflict columns
}

// SQL renders the statement with $n placeholders in Columns order.
func (c UpsertConfig) SQL() (string, error) {
	if len(c.Columns) == 0 {
		return "", eris.New("db: upsert: no columns specified")
	}
	if len(c.ConflictKeys) == 0 {
		return "", eris.New("db: upsert: no conflict keys specified")
	}

	updateCols := c.UpdateCols
	if updateCols == nil {
		conflictSet := make(map[string]bool, len(c.ConflictKeys))
		for _, k := range c.ConflictKeys {
			conflictSet[k] = true
		}
		for _, col := range c.Columns {
			if !conflictSet[col] {
				updateCols = append(updateCols, col)
			}
		}
	}

	placeholders := make([]string, len(c.Columns))
	for i := range c.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	action := "DO NOTHING"
	if len(updateCols) > 0 {
		setClauses := make([]string, len(updateCols))
		for i, col := range updateCols {
			id := pgx.Identifier{col}.Sanitize()
			setClauses[i] = fmt.Sprintf("%s = EXCLUDED.%s", id, id)
		}
		action = "DO UPDATE SET " + strings.Join(setClauses, ", ")
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		sanitizeTable(c.Table),
		quoteAndJoin(c.Columns),
		strings.Join(placeholders, ", "),
		quoteAndJoin(c.ConflictKeys),
		action,
	), nil
}

// Upsert inserts one row or updates it when the conflict keys match.
func Upsert(ctx context.Context, q Execer, cfg UpsertConfig, values ...any) error {
	if len(values) != len(cfg.Columns) {
		return eris.Errorf("db: upsert: %d values for %d columns", len(values), len(cfg.Columns))
	}
	stmt, err := cfg.SQL()
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, stmt, values...); err != nil {
		return eris.Wrapf(err, "db: upsert into %s", cfg.Table)
	}
	return nil
}

// sanitizeTable handles schema-qualified table names like "gate.artifact_state".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
