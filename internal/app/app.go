package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/arxivsubj/internal/cache"
	"github.com/hyperifyio/arxivsubj/internal/corpus"
	"github.com/hyperifyio/arxivsubj/internal/extract"
	"github.com/hyperifyio/arxivsubj/internal/features"
	"github.com/hyperifyio/arxivsubj/internal/fetch"
	"github.com/hyperifyio/arxivsubj/internal/robots"
	"github.com/hyperifyio/arxivsubj/internal/svm"
	"github.com/hyperifyio/arxivsubj/internal/textnorm"
)

var (
	// ErrNoReferences is returned when the listing page yields no paper
	// references. The CLI exits with code 2.
	ErrNoReferences = errors.New("no paper references on listing page")
	// ErrEmptyCorpus is returned when no abstract page produced a complete
	// record. The CLI exits with code 2.
	ErrEmptyCorpus = errors.New("no complete abstract records")
)

type App struct {
	cfg        Config
	src        PageSource
	extractor  extract.PageExtractor
	normalizer *textnorm.Normalizer
	vectorizer features.Vectorizer
	pageCache  *cache.PageCache
}

// StageTiming records the wall time of one pipeline stage.
type StageTiming struct {
	Stage   string        `json:"stage"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Result summarizes a completed run.
type Result struct {
	ListingURL     string
	References     int
	Corpus         corpus.Corpus
	Vectorizer     string
	Features       int
	Classes        []string
	TrainSize      int
	TestSize       int
	TrainScore     float64
	TestScore      float64
	SupportVectors int
	Timings        []StageTiming
	GeneratedAt    time.Time
}

// New wires the page source, extractor, normalizer and vectorizer from cfg.
func New(ctx context.Context, cfg Config) (*App, error) {
	ex, err := extract.ForKind(cfg.Extractor, extract.WithEncoding(cfg.Encoding))
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}
	norm := textnorm.New()
	if cfg.MathPlaceholder != "" {
		norm.MathPlaceholder = cfg.MathPlaceholder
	}
	a := &App{cfg: cfg, extractor: ex, normalizer: norm}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.Clear(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeOlderThan(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.pageCache = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	a.src = a.buildSource()

	switch cfg.Vectorizer {
	case "", "tfidf":
		a.vectorizer = features.NewTFIDF()
	case "embeddings":
		emb := &features.Embeddings{
			Client:    features.NewOpenAIClient(cfg.EmbedBaseURL, cfg.EmbedAPIKey),
			Model:     cfg.EmbedModel,
			BatchSize: 64,
		}
		if cfg.CacheDir != "" {
			emb.Cache = &cache.VectorCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
		}
		a.vectorizer = emb
	default:
		return nil, fmt.Errorf("unknown vectorizer %q", cfg.Vectorizer)
	}
	return a, nil
}

func (a *App) buildSource() PageSource {
	client := &fetch.Client{
		HTTPClient:        newPoliteHTTPClient(60 * time.Second),
		UserAgent:         a.cfg.UserAgent,
		MaxAttempts:       3,
		PerRequestTimeout: 30 * time.Second,
		Cache:             a.pageCache,
		BypassCache:       a.cfg.CacheBypass,
		CacheOnly:         a.cfg.HTTPCacheOnly,
		MinInterval:       a.cfg.RequestInterval,
	}
	remote := &HTTPSource{Client: client}
	if !a.cfg.IgnoreRobots && !a.cfg.HTTPCacheOnly {
		remote.Robots = &robots.Manager{
			UserAgent: a.cfg.UserAgent,
			Getter: &fetch.Client{
				HTTPClient:        client.HTTPClient,
				UserAgent:         a.cfg.UserAgent,
				MaxAttempts:       2,
				PerRequestTimeout: 15 * time.Second,
				Cache:             a.pageCache,
				ContentTypes:      []string{"text/plain"},
			},
		}
	}
	if a.cfg.ListingFile == "" && a.cfg.AbstractDir == "" {
		return remote
	}
	return &FileSource{ListingFile: a.cfg.ListingFile, AbstractDir: a.cfg.AbstractDir, Fallback: remote}
}

// Run executes listing → abstracts → normalization → vectorization →
// split → training and writes the configured reports.
func (a *App) Run(ctx context.Context) (Result, error) {
	res := Result{GeneratedAt: time.Now().UTC(), Vectorizer: a.vectorizer.Name()}
	timer := stageTimer{start: time.Now()}

	// Listing
	res.ListingURL = ListingURL(a.cfg.BaseURL, a.cfg.Archive, a.cfg.NumPapers)
	page, err := a.src.Get(ctx, res.ListingURL)
	if err != nil {
		return res, fmt.Errorf("listing: %w", err)
	}
	refs, err := a.extractor.References(page)
	if err != nil {
		return res, fmt.Errorf("listing: %w", err)
	}
	res.References = len(refs)
	timer.done("listing", log.Info().Int("references", len(refs)))
	if len(refs) == 0 {
		return res, ErrNoReferences
	}

	// Abstracts
	c, err := a.collect(ctx, refs)
	if err != nil {
		return res, err
	}
	res.Corpus = c
	timer.done("abstracts", log.Info().Int("records", c.Len()).Int("skipped", c.Skips.Total()))
	if err := c.Validate(); err != nil {
		return res, err
	}
	if c.Len() == 0 {
		return res, ErrEmptyCorpus
	}

	// Normalization
	docs := a.normalizer.NormalizeAll(c.Texts)
	timer.done("tokenize", log.Info().Int("documents", len(docs)))

	// Vectorization
	x, err := a.vectorizer.FitTransform(ctx, docs)
	if err != nil {
		return res, fmt.Errorf("vectorize: %w", err)
	}
	res.Features = x.Dim
	timer.done("vectorize", log.Info().Str("vectorizer", res.Vectorizer).Int("features", x.Dim))

	// Split and train
	trainIdx, testIdx, err := svm.Split(x.Len(), a.cfg.TestFraction, a.cfg.Seed)
	if errors.Is(err, svm.ErrSplit) {
		log.Warn().Int("records", x.Len()).Msg("too few records to hold out a test set; training on all")
		trainIdx, testIdx = allIndices(x.Len()), nil
	} else if err != nil {
		return res, err
	}
	xTrain, yTrain := x.Subset(trainIdx), svm.Labels(c.Labels, trainIdx)
	model, err := svm.Train(ctx, xTrain, yTrain, svm.Params{C: a.cfg.C, Gamma: a.cfg.Gamma})
	if err != nil {
		return res, fmt.Errorf("train: %w", err)
	}
	res.Classes = model.Classes
	res.SupportVectors = model.SupportVectors()
	res.TrainSize, res.TestSize = len(trainIdx), len(testIdx)
	if res.TrainScore, err = model.Score(xTrain, yTrain); err != nil {
		return res, err
	}
	if len(testIdx) > 0 {
		if res.TestScore, err = model.Score(x.Subset(testIdx), svm.Labels(c.Labels, testIdx)); err != nil {
			return res, err
		}
	}
	timer.done("train", log.Info().Int("classes", len(model.Classes)).Float64("train_score", res.TrainScore).Float64("test_score", res.TestScore))
	res.Timings = timer.timings

	if err := a.writeOutputs(res); err != nil {
		return res, err
	}
	return res, nil
}

// collect fetches and extracts every abstract page. Per-page failures are
// logged and counted; only cancellation aborts.
func (a *App) collect(ctx context.Context, refs []extract.PaperReference) (corpus.Corpus, error) {
	c := corpus.New()
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		u := AbstractURL(a.cfg.BaseURL, ref)
		page, err := a.src.Get(ctx, u)
		if err == nil {
			var rec extract.AbstractRecord
			if rec, err = a.extractor.Abstract(page); err == nil {
				c.Add(u, rec)
				log.Debug().Int("n", i+1).Str("url", u).Str("label", rec.Label).Msg("abstract")
				continue
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c, ctxErr
		}
		kind := classifySkip(err)
		c.Skip(kind)
		log.Warn().Err(err).Str("url", u).Str("reason", string(kind)).Msg("skipping page")
	}
	return c, nil
}

func classifySkip(err error) corpus.SkipKind {
	var re *fetch.RetrievalError
	switch {
	case errors.Is(err, ErrDisallowed):
		return corpus.SkipRobots
	case errors.Is(err, extract.ErrLabelNotFound):
		return corpus.SkipLabelNotFound
	case errors.Is(err, extract.ErrAbstractNotFound):
		return corpus.SkipAbstractNotFound
	case errors.Is(err, extract.ErrDecode):
		return corpus.SkipDecode
	case errors.As(err, &re):
		return corpus.SkipRetrieval
	default:
		return corpus.SkipOther
	}
}

func (a *App) writeOutputs(res Result) error {
	if a.cfg.OutputPath == "" {
		return nil
	}
	md := renderSummary(res)
	md = appendReproFooter(md, a.cfg, a.pageCache != nil)
	if err := os.WriteFile(a.cfg.OutputPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	side, err := marshalManifestJSON(buildManifest(res, a.cfg))
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(deriveManifestSidecarPath(a.cfg.OutputPath), side, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if a.cfg.OutputPDFPath != "" {
		if err := writeSimplePDF(res, a.cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	log.Info().Str("path", a.cfg.OutputPath).Msg("wrote run summary")
	return nil
}

type stageTimer struct {
	start   time.Time
	timings []StageTiming
}

// done closes the current stage, logs it on ev and starts the next one.
func (t *stageTimer) done(stage string, ev *zerolog.Event) {
	now := time.Now()
	elapsed := now.Sub(t.start)
	t.timings = append(t.timings, StageTiming{Stage: stage, Elapsed: elapsed})
	ev.Str("stage", stage).Dur("elapsed", elapsed).Msg(stage + " done")
	t.start = now
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
