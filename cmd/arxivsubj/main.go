package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/arxivsubj/internal/app"
	"github.com/hyperifyio/arxivsubj/internal/fetch"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := loadConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := run(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
	fmt.Printf("Train score: %.4f\n", res.TrainScore)
	if res.TestSize > 0 {
		fmt.Printf("Test score: %.4f\n", res.TestScore)
	}
}

// exitCode maps run errors to the process exit status: 2 when the run had
// no usable data, 1 otherwise.
func exitCode(err error) int {
	var re *fetch.RetrievalError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoReferences), errors.Is(err, app.ErrEmptyCorpus), errors.As(err, &re):
		return 2
	default:
		return 1
	}
}

// bindFlags registers every Config flag on fs, writing into cfg.
func bindFlags(fs *flag.FlagSet, cfg *app.Config) {
	fs.StringVar(&cfg.BaseURL, "base", cfg.BaseURL, "arXiv base URL")
	fs.StringVar(&cfg.Archive, "archive", cfg.Archive, "Archive whose past-week listing is scraped")
	fs.IntVar(&cfg.NumPapers, "n", cfg.NumPapers, "Number of listing entries to request (show=)")
	fs.StringVar(&cfg.ListingFile, "listing.file", cfg.ListingFile, "Read the listing page from this saved HTML file")
	fs.StringVar(&cfg.AbstractDir, "abstract.dir", cfg.AbstractDir, "Read abstract pages from <dir>/<ref>.html when present")
	fs.StringVar(&cfg.Encoding, "encoding", cfg.Encoding, "Page text encoding (WHATWG label, default utf-8)")
	fs.StringVar(&cfg.Extractor, "extractor", cfg.Extractor, "Extractor: regex or dom")
	fs.StringVar(&cfg.MathPlaceholder, "math.placeholder", cfg.MathPlaceholder, "Token replacing $...$ math spans (default mathmod)")
	fs.StringVar(&cfg.Vectorizer, "vectorizer", cfg.Vectorizer, "Vectorizer: tfidf or embeddings")
	fs.StringVar(&cfg.EmbedBaseURL, "embed.base", cfg.EmbedBaseURL, "OpenAI-compatible base URL for embeddings")
	fs.StringVar(&cfg.EmbedModel, "embed.model", cfg.EmbedModel, "Embedding model name")
	fs.StringVar(&cfg.EmbedAPIKey, "embed.key", cfg.EmbedAPIKey, "API key for the embeddings server")
	fs.Float64Var(&cfg.TestFraction, "test.fraction", cfg.TestFraction, "Share of records held out for testing")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Shuffle seed for the train/test split")
	fs.Float64Var(&cfg.C, "svm.c", cfg.C, "SVM penalty C")
	fs.Float64Var(&cfg.Gamma, "svm.gamma", cfg.Gamma, "RBF gamma; 0 means 1/n_features")
	fs.StringVar(&cfg.UserAgent, "ua", cfg.UserAgent, "User-Agent for arXiv requests")
	fs.DurationVar(&cfg.RequestInterval, "interval", cfg.RequestInterval, "Minimum spacing between requests (raised by robots Crawl-delay)")
	fs.BoolVar(&cfg.IgnoreRobots, "robots.ignore", cfg.IgnoreRobots, "Do not consult robots.txt")
	fs.StringVar(&cfg.CacheDir, "cache.dir", cfg.CacheDir, "Cache directory path; empty disables caching")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", cfg.CacheMaxAge, "Purge cache entries older than this (e.g. 72h); 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", cfg.CacheClear, "Clear cache directory before run")
	fs.BoolVar(&cfg.CacheBypass, "cache.bypass", cfg.CacheBypass, "Refetch pages without conditional headers; responses are still cached")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", cfg.CacheStrictPerms, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&cfg.HTTPCacheOnly, "cache.only", cfg.HTTPCacheOnly, "Serve pages only from the cache; never touch the network")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Write a Markdown run summary (plus .manifest.json) here")
	fs.StringVar(&cfg.OutputPDFPath, "output.pdf", cfg.OutputPDFPath, "Also render the summary as PDF")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
}

// loadConfig resolves configuration with precedence flags > env > config
// file > defaults.
func loadConfig(fs *flag.FlagSet, args []string) (app.Config, error) {
	parsed := app.DefaultConfig()
	var configPath, envFiles string
	fs.StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load")
	bindFlags(fs, &parsed)
	if err := fs.Parse(args); err != nil {
		return app.Config{}, err
	}

	if err := app.LoadEnvFiles(strings.Split(envFiles, ",")...); err != nil {
		return app.Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := app.DefaultConfig()
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("config file: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	// Replay explicitly set flags on top.
	replay := flag.NewFlagSet("replay", flag.ContinueOnError)
	bindFlags(replay, &cfg)
	var replayErr error
	fs.Visit(func(f *flag.Flag) {
		if replayErr != nil || replay.Lookup(f.Name) == nil {
			return
		}
		replayErr = replay.Set(f.Name, f.Value.String())
	})
	if replayErr != nil {
		return app.Config{}, replayErr
	}
	if err := app.ValidateConfig(cfg); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg app.Config) (app.Result, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return app.Result{}, fmt.Errorf("init app: %w", err)
	}
	return a.Run(ctx)
}
