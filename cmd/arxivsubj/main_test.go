package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/arxivsubj/internal/app"
	"github.com/hyperifyio/arxivsubj/internal/fetch"
)

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "arxivsubj.yaml")
	yaml := "arxiv:\n  archive: math.AG\n  numPapers: 40\ntrain:\n  seed: 7\ncache:\n  dir: /tmp/from-file\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NUM_PAPERS", "50")
	t.Setenv("CACHE_DIR", "/tmp/from-env")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := loadConfig(fs, []string{"-config", cfgPath, "-env", filepath.Join(dir, "missing.env"), "-cache.dir", "/tmp/from-flag", "-interval", "5s"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Archive != "math.AG" {
		t.Fatalf("file should set archive, got %q", cfg.Archive)
	}
	if cfg.Seed != 7 {
		t.Fatalf("file should set seed, got %d", cfg.Seed)
	}
	if cfg.NumPapers != 50 {
		t.Fatalf("env should beat file, got %d", cfg.NumPapers)
	}
	if cfg.CacheDir != "/tmp/from-flag" {
		t.Fatalf("flag should beat env, got %q", cfg.CacheDir)
	}
	if cfg.RequestInterval != 5*time.Second {
		t.Fatalf("interval = %v", cfg.RequestInterval)
	}
	if cfg.TestFraction != app.DefaultTestFraction || cfg.BaseURL != app.DefaultBaseURL {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestLoadConfig_DotenvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("ARXIV_ARCHIVE=math.NT\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("ARXIV_ARCHIVE", "")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := loadConfig(fs, []string{"-env", envPath})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Archive != "math.NT" {
		t.Fatalf("archive from dotenv = %q", cfg.Archive)
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	t.Setenv("EMBED_MODEL", "")
	t.Setenv("NUM_PAPERS", "")
	cases := [][]string{
		{"-test.fraction", "1.5"},
		{"-extractor", "xpath"},
		{"-vectorizer", "embeddings"},
		{"-n", "0"},
	}
	for _, args := range cases {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.SetOutput(new(strings.Builder))
		args = append(args, "-env", filepath.Join(t.TempDir(), "none.env"))
		if _, err := loadConfig(fs, args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("run: %w", app.ErrNoReferences), 2},
		{app.ErrEmptyCorpus, 2},
		{fmt.Errorf("listing: %w", &fetch.RetrievalError{URL: "http://x/list", Status: 503}), 2},
		{errors.New("init app: boom"), 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Fatalf("exitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func abstractPage(label, body string) string {
	return "<html><body><blockquote class=\"abstract\"><span class=\"descriptor\">Abstract:</span>" + body +
		"</blockquote><span class=\"primary-subject\">" + label + "</span></body></html>"
}

func TestRun_LocalDumps(t *testing.T) {
	dir := t.TempDir()
	absDir := filepath.Join(dir, "abs")
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var listing strings.Builder
	listing.WriteString("<html><body>\n")
	for i := 0; i < 10; i++ {
		ref := fmt.Sprintf("2403.%05d", i)
		fmt.Fprintf(&listing, "<a href=\"/abs/%s\" title=\"Abstract\">%s</a>\n", ref, ref)
		page := abstractPage("Number Theory (math.NT)", fmt.Sprintf("We count primes in residue class $a_%d$ modulo q.", i))
		if i%2 == 1 {
			page = abstractPage("Algebraic Geometry (math.AG)", fmt.Sprintf("We study sheaves on a projective curve $C_%d$.", i))
		}
		if err := os.WriteFile(filepath.Join(absDir, app.AbstractFileName(ref)), []byte(page), 0o644); err != nil {
			t.Fatalf("write page: %v", err)
		}
	}
	listing.WriteString("</body></html>\n")
	listingPath := filepath.Join(dir, "listing.html")
	if err := os.WriteFile(listingPath, []byte(listing.String()), 0o644); err != nil {
		t.Fatalf("write listing: %v", err)
	}

	cfg := app.DefaultConfig()
	cfg.ListingFile = listingPath
	cfg.AbstractDir = absDir
	cfg.IgnoreRobots = true
	cfg.CacheDir = ""
	cfg.OutputPath = filepath.Join(dir, "summary.md")

	res, err := run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Corpus.Len() != 10 || res.TrainSize != 8 || res.TestSize != 2 {
		t.Fatalf("records=%d train=%d test=%d", res.Corpus.Len(), res.TrainSize, res.TestSize)
	}
	if res.TrainScore != 1 {
		t.Fatalf("train score = %v", res.TrainScore)
	}
	b, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.Contains(string(b), "Number Theory (math.NT)") {
		t.Fatalf("summary missing subject table:\n%s", b)
	}
}
