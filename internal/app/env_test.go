package app

import (
    "os"
    "path/filepath"
    "testing"
)

// LoadEnvFiles reads KEY=VALUE pairs into the process environment.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
    t.Setenv("ARXIV_ARCHIVE", "")
    t.Setenv("EMBED_MODEL", "")
    t.Setenv("CACHE_BYPASS", "true")

    dir := t.TempDir()
    envPath := filepath.Join(dir, ".env.test")
    content := "\n# sample dotenv file\nARXIV_ARCHIVE=math\nEMBED_MODEL=\"text-embed-small\"\n"
    if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }

    if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("ARXIV_ARCHIVE"); got != "math" {
        t.Fatalf("ARXIV_ARCHIVE=%q, want math", got)
    }
    if got := os.Getenv("EMBED_MODEL"); got != "text-embed-small" {
        t.Fatalf("EMBED_MODEL=%q, want unquoted value", got)
    }
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
    t.Setenv("K", "")
    dir := t.TempDir()
    a := filepath.Join(dir, ".env.a")
    b := filepath.Join(dir, ".env.b")
    if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil { t.Fatalf("write a: %v", err) }
    if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil { t.Fatalf("write b: %v", err) }

    if err := LoadEnvFiles(a, b); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("K"); got != "second" {
        t.Fatalf("override order failed: got %q, want second", got)
    }
}

func TestApplyEnvOverrides_ReplacesFileValues(t *testing.T) {
    t.Setenv("ARXIV_ARCHIVE", "math")
    t.Setenv("NUM_PAPERS", "not-a-number")
    t.Setenv("EMBED_MODEL", "")
    cfg := Config{Archive: "cs", NumPapers: 10, EmbedModel: "from-file"}
    ApplyEnvOverrides(&cfg)
    if cfg.Archive != "math" {
        t.Fatalf("env should override file value, got %q", cfg.Archive)
    }
    if cfg.NumPapers != 10 {
        t.Fatalf("invalid NUM_PAPERS must be ignored, got %d", cfg.NumPapers)
    }
    if cfg.EmbedModel != "from-file" {
        t.Fatalf("empty env must not clear value, got %q", cfg.EmbedModel)
    }
    if !cfg.CacheBypass {
        t.Fatalf("CACHE_BYPASS not applied")
    }
}
