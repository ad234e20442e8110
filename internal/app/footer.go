package app

import (
    "fmt"
    "strings"
)

// appendReproFooter appends a deterministic footer recording the settings
// needed to reproduce the run: listing archive and size, encoding,
// vectorizer, split seed and whether the page cache was active.
func appendReproFooter(markdown string, cfg Config, httpCacheActive bool) string {
    var b strings.Builder
    b.WriteString(markdown)
    b.WriteString("\n\n---\n")
    b.WriteString("Reproducibility: ")
    fmt.Fprintf(&b, "archive=%s; show=%d", strings.TrimSpace(cfg.Archive), cfg.NumPapers)
    fmt.Fprintf(&b, "; encoding=%s; extractor=%s", orDefault(cfg.Encoding, "utf-8"), orDefault(cfg.Extractor, "regex"))
    fmt.Fprintf(&b, "; vectorizer=%s", orDefault(cfg.Vectorizer, "tfidf"))
    if cfg.Vectorizer == "embeddings" {
        fmt.Fprintf(&b, "; embed_model=%s", strings.TrimSpace(cfg.EmbedModel))
    }
    fmt.Fprintf(&b, "; seed=%d; test_fraction=%g", cfg.Seed, cfg.TestFraction)
    fmt.Fprintf(&b, "; http_cache=%t; version=%s", httpCacheActive, BuildVersion)
    b.WriteString("\n")
    return b.String()
}
