package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
)

const maxLineBytes = 16 << 20

// record is one line of a corpus file. Words wins over Text; Text is
// tokenized only when Words is absent.
type record struct {
	ID    string   `json:"id"`
	Links []string `json:"links"`
	Words []string `json:"words"`
	Text  string   `json:"text"`
}

// FileLoader reads a JSON-lines corpus file.
type FileLoader struct {
	Path      string
	Tokenizer tokenizer.Tokenizer
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path, Tokenizer: tokenizer.Default()}
}

func (l *FileLoader) Load(ctx context.Context) (corpus.Set, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, unavailable("opening %s: %v", l.Path, err)
	}
	defer f.Close()

	docs, err := ReadDocuments(ctx, f, l.Tokenizer)
	if err != nil {
		return nil, err
	}
	return corpus.NewSet(docs...)
}

// ReadDocuments decodes JSON-lines documents from r. Blank lines are skipped.
func ReadDocuments(ctx context.Context, r io.Reader, tok tokenizer.Tokenizer) ([]corpus.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []corpus.Document
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, apperrors.InvalidArgf("line %d: %v", line, err)
		}
		words := rec.Words
		if words == nil && rec.Text != "" {
			words = tok.Tokenize(rec.Text)
		}
		docs = append(docs, corpus.Document{ID: rec.ID, Links: rec.Links, Words: words})
	}
	if err := scanner.Err(); err != nil {
		return nil, unavailable("reading corpus: %v", err)
	}
	return docs, nil
}
