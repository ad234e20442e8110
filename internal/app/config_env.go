package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("ARXIV_BASE_URL"); v != "" { cfg.BaseURL = v }
    if v := os.Getenv("ARXIV_ARCHIVE"); v != "" { cfg.Archive = v }
    if v := os.Getenv("CACHE_DIR"); v != "" { cfg.CacheDir = v }
    if v := os.Getenv("ENCODING"); v != "" { cfg.Encoding = v }
    if v := os.Getenv("EMBED_BASE_URL"); v != "" { cfg.EmbedBaseURL = v }
    if v := os.Getenv("EMBED_MODEL"); v != "" { cfg.EmbedModel = v }
    if v := os.Getenv("EMBED_API_KEY"); v != "" { cfg.EmbedAPIKey = v }
    if n, ok := envInt("NUM_PAPERS"); ok { cfg.NumPapers = n }
    if d, ok := envDuration("CACHE_MAX_AGE"); ok { cfg.CacheMaxAge = d }

    if envTrue("VERBOSE") { cfg.Verbose = true }
    if envTrue("CACHE_CLEAR") { cfg.CacheClear = true }
    if envTrue("CACHE_BYPASS") { cfg.CacheBypass = true }
    if envTrue("CACHE_STRICT_PERMS") { cfg.CacheStrictPerms = true }
    if envTrue("HTTP_CACHE_ONLY") { cfg.HTTPCacheOnly = true }
}

func envTrue(key string) bool {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
    case "1", "true", "yes", "on":
        return true
    }
    return false
}

func envInt(key string) (int, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    n, err := strconv.Atoi(s)
    if err != nil || n <= 0 { return 0, false }
    return n, true
}

func envDuration(key string) (time.Duration, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    d, err := time.ParseDuration(s)
    if err != nil { return 0, false }
    return d, true
}
