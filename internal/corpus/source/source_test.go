package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/postgres"
)

const sampleCorpus = `{"id":"a","links":["b"],"words":["graph","rank"]}

{"id":"b","links":["a","c"],"text":"Ranking the graphs"}
{"id":"c"}
`

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadDocuments(t *testing.T) {
	docs, err := ReadDocuments(context.Background(), strings.NewReader(sampleCorpus), tokenizer.Default())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, []string{"graph", "rank"}, docs[0].Words)
	assert.Equal(t, []string{"rank", "graph"}, docs[1].Words)
	assert.Equal(t, []string{"a", "c"}, docs[1].Links)
	assert.Empty(t, docs[2].Words)
}

func TestReadDocumentsMalformed(t *testing.T) {
	_, err := ReadDocuments(context.Background(), strings.NewReader("{\"id\":\"a\"}\n{oops\n"), tokenizer.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFileLoader(t *testing.T) {
	set, err := NewFileLoader(writeCorpus(t, sampleCorpus)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.True(t, corpus.Contains(set, "c"))

	_, err = NewFileLoader(filepath.Join(t.TempDir(), "absent.jsonl")).Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnavailable)

	_, err = NewFileLoader(writeCorpus(t, "{\"id\":\"a\"}\n{\"id\":\"a\"}\n")).Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDocument)
}

func TestNew(t *testing.T) {
	l, err := New(config.CorpusConfig{Source: SourceFile, Path: "x.jsonl"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileLoader{}, l)

	_, err = New(config.CorpusConfig{Source: SourcePostgres}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = New(config.CorpusConfig{Source: "s3"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

type flakyLoader struct {
	failures int
	err      error
	calls    int
}

func (l *flakyLoader) Load(context.Context) (corpus.Set, error) {
	l.calls++
	if l.calls <= l.failures {
		return nil, l.err
	}
	return corpus.MustSet(corpus.Document{ID: "a"}), nil
}

func TestLoadRetriesTransientErrors(t *testing.T) {
	l := &flakyLoader{failures: 1, err: unavailable("connection reset")}
	set, err := Load(context.Background(), l, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 2, l.calls)
}

func TestLoadDoesNotRetryBadInput(t *testing.T) {
	l := &flakyLoader{failures: 10, err: apperrors.InvalidArgf("line 1: bad json")}
	_, err := Load(context.Background(), l, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 1, l.calls)
}

func TestLoadTimeout(t *testing.T) {
	l := &flakyLoader{failures: 10, err: errors.New("still down")}
	_, err := Load(context.Background(), l, 100*time.Millisecond)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	cfg := config.Default().Postgres
	if v := os.Getenv("TEST_POSTGRES_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("TEST_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresLoader(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	table := "rank_docs_test"

	db.DB.SetMaxOpenConns(1)
	_, err := db.DB.ExecContext(ctx, `CREATE TEMP TABLE `+table+` (id TEXT PRIMARY KEY, links TEXT[], words TEXT[])`)
	require.NoError(t, err)
	_, err = db.DB.ExecContext(ctx, `INSERT INTO `+table+` VALUES
		('a', ARRAY['b'], ARRAY['graph','rank']),
		('b', NULL, ARRAY['vector'])`)
	require.NoError(t, err)

	set, err := NewPostgresLoader(db, table).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	for d := range set.All() {
		if d.ID == "a" {
			assert.Equal(t, []string{"b"}, d.Links)
			assert.Equal(t, []string{"graph", "rank"}, d.Words)
		}
	}
}
