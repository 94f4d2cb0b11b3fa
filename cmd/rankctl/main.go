package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus/source"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/events"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	corpusFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "corpus",
			Aliases:  []string{"c"},
			Usage:    "JSON-lines corpus file, or - for stdin",
			Required: true,
		},
		&cli.Float64Flag{
			Name:  "decay",
			Usage: "Importance decay factor in [0,1]",
			Value: config.Default().Analyzer.Decay,
		},
		&cli.Float64Flag{
			Name:  "epsilon",
			Usage: "Convergence threshold",
			Value: config.Default().Analyzer.Epsilon,
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum solver iterations",
			Value: config.Default().Analyzer.Limit,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Solver partitions per iteration",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "pool-size",
			Usage: "Vector-building worker pool size",
			Value: 1,
		},
	}
	with := func(extra ...cli.Flag) []cli.Flag {
		return append(append([]cli.Flag{}, corpusFlags...), extra...)
	}

	return &cli.App{
		Name:  "rankctl",
		Usage: "Compute document importance and query relevance over a corpus file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "importance",
				Usage:  "Print the importance score of a document",
				Action: importanceCommand,
				Flags: with(&cli.StringFlag{
					Name:     "doc",
					Aliases:  []string{"d"},
					Usage:    "Document id",
					Required: true,
				}),
			},
			{
				Name:   "relevance",
				Usage:  "Print the relevance of a document to a query",
				Action: relevanceCommand,
				Flags: with(
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Query text", Required: true},
					&cli.StringFlag{Name: "doc", Aliases: []string{"d"}, Usage: "Document id", Required: true},
				),
			},
			{
				Name:   "top",
				Usage:  "Print the k best documents by importance, or by relevance when --query is set",
				Action: topCommand,
				Flags: with(
					&cli.IntFlag{Name: "k", Usage: "Number of documents", Value: 10},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Rank by relevance to this query"},
				),
			},
			{
				Name:   "stats",
				Usage:  "Print corpus and solver statistics",
				Action: statsCommand,
				Flags:  with(),
			},
			{
				Name:   "events",
				Usage:  "Follow analysis-completed events from Kafka",
				Action: eventsCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "brokers", Usage: "Kafka brokers", Value: cli.NewStringSlice("localhost:9092")},
					&cli.StringFlag{Name: "topic", Usage: "Topic name", Value: config.Default().Kafka.Topics.AnalysisComplete},
					&cli.StringFlag{Name: "group", Usage: "Consumer group", Value: config.Default().Kafka.ConsumerGroup},
					&cli.BoolFlag{Name: "from-start", Usage: "Read from the earliest offset"},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	level := strings.ToLower(c.String("log-level"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}
	logger.SetupWriter(c.App.ErrWriter, level, "text")
	return nil
}

func buildAnalyzer(c *cli.Context) (*analyzer.Analyzer, error) {
	ctx := c.Context
	var (
		docs corpus.Set
		err  error
	)
	if path := c.String("corpus"); path == "-" {
		var list []corpus.Document
		list, err = source.ReadDocuments(ctx, c.App.Reader, tokenizer.Default())
		if err == nil {
			docs, err = corpus.NewSet(list...)
		}
	} else {
		docs, err = source.NewFileLoader(path).Load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	cfg := config.AnalyzerConfig{
		Decay:    c.Float64("decay"),
		Epsilon:  c.Float64("epsilon"),
		Limit:    c.Int("limit"),
		Workers:  c.Int("workers"),
		PoolSize: c.Int("pool-size"),
	}
	return analyzer.New(ctx, docs, cfg)
}

func importanceCommand(c *cli.Context) error {
	a, err := buildAnalyzer(c)
	if err != nil {
		return err
	}
	id := c.String("doc")
	if !a.Contains(id) {
		return fmt.Errorf("document %q is not in the corpus", id)
	}
	return writeJSON(c, map[string]any{"doc_id": id, "importance": a.ImportanceOf(id)})
}

func relevanceCommand(c *cli.Context) error {
	a, err := buildAnalyzer(c)
	if err != nil {
		return err
	}
	id := c.String("doc")
	if !a.Contains(id) {
		return fmt.Errorf("document %q is not in the corpus", id)
	}
	terms := tokenizer.Tokenize(c.String("query"))
	score, err := a.RelevanceOf(terms, id)
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]any{"doc_id": id, "terms": terms, "relevance": score})
}

func topCommand(c *cli.Context) error {
	a, err := buildAnalyzer(c)
	if err != nil {
		return err
	}
	k := c.Int("k")
	if query := c.String("query"); query != "" {
		results, err := a.TopByRelevance(tokenizer.Tokenize(query), k)
		if err != nil {
			return err
		}
		return writeJSON(c, results)
	}
	results, err := a.TopByImportance(k)
	if err != nil {
		return err
	}
	return writeJSON(c, results)
}

func statsCommand(c *cli.Context) error {
	a, err := buildAnalyzer(c)
	if err != nil {
		return err
	}
	return writeJSON(c, a.Stats())
}

func eventsCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.KafkaConfig{
		Brokers:       c.StringSlice("brokers"),
		ConsumerGroup: c.String("group"),
	}
	consumer := kafka.NewConsumer(cfg, c.String("topic"), c.Bool("from-start"), func(_ context.Context, _, value []byte) error {
		ev, err := kafka.DecodeJSON[events.AnalysisCompleted](value)
		if err != nil {
			return err
		}
		return writeJSON(c, ev)
	})
	return consumer.Run(ctx)
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
