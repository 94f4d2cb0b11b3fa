package source

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/postgres"
)

// PostgresLoader reads documents from a table with columns
// id TEXT, links TEXT[], words TEXT[].
type PostgresLoader struct {
	db    *postgres.Client
	table string
}

func NewPostgresLoader(db *postgres.Client, table string) *PostgresLoader {
	return &PostgresLoader{db: db, table: table}
}

// Load reads the whole table inside one read-only repeatable-read
// transaction so every row comes from the same snapshot.
func (l *PostgresLoader) Load(ctx context.Context) (corpus.Set, error) {
	query := "SELECT id, links, words FROM " + pq.QuoteIdentifier(l.table) + " ORDER BY id"

	var docs []corpus.Document
	opts := &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}
	err := l.db.InTx(ctx, opts, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				d            corpus.Document
				links, words []string
			)
			if err := rows.Scan(&d.ID, pq.Array(&links), pq.Array(&words)); err != nil {
				return err
			}
			d.Links, d.Words = links, words
			docs = append(docs, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unavailable("loading table %s: %v", l.table, err)
	}
	return corpus.NewSet(docs...)
}
