package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Build information populated via -ldflags at build time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
)

// manifestEntry is a compact record of one abstract that entered the corpus.
type manifestEntry struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Label  string `json:"label"`
	SHA256 string `json:"sha256"`
	Chars  int    `json:"chars"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	Version     string         `json:"version"`
	Commit      string         `json:"commit"`
	ListingURL  string         `json:"listing_url"`
	Encoding    string         `json:"encoding"`
	Extractor   string         `json:"extractor"`
	Vectorizer  string         `json:"vectorizer"`
	Features    int            `json:"features"`
	Classes     []string       `json:"classes"`
	Seed        int64          `json:"seed"`
	TrainSize   int            `json:"train_size"`
	TestSize    int            `json:"test_size"`
	TrainScore  float64        `json:"train_score"`
	TestScore   float64        `json:"test_score"`
	Skipped     map[string]int `json:"skipped"`
	Timings     []StageTiming  `json:"timings"`
	HTTPCache   bool           `json:"http_cache"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func buildManifest(res Result, cfg Config) (manifestMeta, []manifestEntry) {
	enc := cfg.Encoding
	if enc == "" {
		enc = "utf-8"
	}
	meta := manifestMeta{
		Version:     BuildVersion,
		Commit:      BuildCommit,
		ListingURL:  res.ListingURL,
		Encoding:    enc,
		Extractor:   orDefault(cfg.Extractor, "regex"),
		Vectorizer:  res.Vectorizer,
		Features:    res.Features,
		Classes:     res.Classes,
		Seed:        cfg.Seed,
		TrainSize:   res.TrainSize,
		TestSize:    res.TestSize,
		TrainScore:  res.TrainScore,
		TestScore:   res.TestScore,
		Skipped:     map[string]int{},
		Timings:     res.Timings,
		HTTPCache:   cfg.CacheDir != "",
		GeneratedAt: res.GeneratedAt,
	}
	for _, k := range res.Corpus.Skips.Kinds() {
		meta.Skipped[string(k)] = res.Corpus.Skips[k]
	}
	c := res.Corpus
	entries := make([]manifestEntry, 0, c.Len())
	for i := range c.Labels {
		text := strings.TrimSpace(c.Texts[i])
		entries = append(entries, manifestEntry{
			Index:  i + 1,
			URL:    c.URLs[i],
			Label:  c.Labels[i],
			SHA256: computeSHA256Hex(text),
			Chars:  len(text),
		})
	}
	return meta, entries
}

// marshalManifestJSON encodes a machine-readable sidecar manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta    manifestMeta    `json:"meta"`
		Records []manifestEntry `json:"records"`
	}{Meta: meta, Records: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output Markdown.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
