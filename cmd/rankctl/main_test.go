package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpusFile = `{"id":"a","links":["b","c"],"text":"graph ranking with links"}
{"id":"b","links":["c"],"text":"graph vectors"}
{"id":"c","links":["a"],"text":"cosine vectors and weights"}
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"rankctl"}, args...))
	return out.String(), err
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(corpusFile), 0o644))
	return path
}

func TestImportanceCommand(t *testing.T) {
	out, err := run(t, "", "importance", "--corpus", writeCorpus(t), "--doc", "c")
	require.NoError(t, err)

	var resp struct {
		DocID      string  `json:"doc_id"`
		Importance float64 `json:"importance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "c", resp.DocID)
	assert.Greater(t, resp.Importance, 0.0)

	_, err = run(t, "", "importance", "--corpus", writeCorpus(t), "--doc", "zzz")
	assert.ErrorContains(t, err, "not in the corpus")
}

func TestRelevanceCommandFromStdin(t *testing.T) {
	out, err := run(t, corpusFile, "relevance", "-c", "-", "-q", "vectors", "-d", "b")
	require.NoError(t, err)

	var resp struct {
		Terms     []string `json:"terms"`
		Relevance float64  `json:"relevance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"vector"}, resp.Terms)
	assert.InDelta(t, 0.7071, resp.Relevance, 1e-4)
}

func TestTopCommand(t *testing.T) {
	path := writeCorpus(t)

	out, err := run(t, "", "top", "--corpus", path, "--k", "2")
	require.NoError(t, err)
	var byImportance []struct {
		DocID string  `json:"doc_id"`
		Score float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &byImportance))
	require.Len(t, byImportance, 2)
	assert.GreaterOrEqual(t, byImportance[0].Score, byImportance[1].Score)

	out, err = run(t, "", "top", "--corpus", path, "--query", "vectors")
	require.NoError(t, err)
	var byRelevance []struct {
		DocID string `json:"doc_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &byRelevance))
	require.Len(t, byRelevance, 2)
	assert.Equal(t, "b", byRelevance[0].DocID)

	_, err = run(t, "", "top", "--corpus", path, "--k", "-1")
	assert.Error(t, err)
}

func TestStatsCommandRejectsBadDecay(t *testing.T) {
	_, err := run(t, "", "stats", "--corpus", writeCorpus(t), "--decay", "1.5")
	assert.ErrorContains(t, err, "decay")
}

func TestCorpusFlagRequired(t *testing.T) {
	_, err := run(t, "", "stats")
	assert.ErrorContains(t, err, "corpus")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "", "--log-level", "loud", "stats", "--corpus", writeCorpus(t))
	assert.ErrorContains(t, err, "invalid log level")
}
