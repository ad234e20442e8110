package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags/env.
type FileConfig struct {
    Output    string `yaml:"output" json:"output"`
    OutputPDF string `yaml:"outputPDF" json:"outputPDF"`
    Verbose   bool   `yaml:"verbose" json:"verbose"`

    Arxiv struct {
        BaseURL   string `yaml:"base" json:"base"`
        Archive   string `yaml:"archive" json:"archive"`
        NumPapers int    `yaml:"numPapers" json:"numPapers"`
        UA        string `yaml:"ua" json:"ua"`
        Interval  time.Duration `yaml:"interval" json:"interval"`
        IgnoreRobots bool `yaml:"ignoreRobots" json:"ignoreRobots"`
    } `yaml:"arxiv" json:"arxiv"`

    Local struct {
        ListingFile string `yaml:"listingFile" json:"listingFile"`
        AbstractDir string `yaml:"abstractDir" json:"abstractDir"`
    } `yaml:"local" json:"local"`

    Encoding  string `yaml:"encoding" json:"encoding"`
    Extractor string `yaml:"extractor" json:"extractor"`

    Normalize struct {
        MathPlaceholder string `yaml:"mathPlaceholder" json:"mathPlaceholder"`
    } `yaml:"normalize" json:"normalize"`

    Vectorizer string `yaml:"vectorizer" json:"vectorizer"`
    Embed struct {
        BaseURL string `yaml:"base" json:"base"`
        Model   string `yaml:"model" json:"model"`
        APIKey  string `yaml:"key" json:"key"`
    } `yaml:"embed" json:"embed"`

    Train struct {
        TestFraction float64 `yaml:"testFraction" json:"testFraction"`
        Seed         int64   `yaml:"seed" json:"seed"`
        C            float64 `yaml:"c" json:"c"`
        Gamma        float64 `yaml:"gamma" json:"gamma"`
    } `yaml:"train" json:"train"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool          `yaml:"clear" json:"clear"`
        Bypass      bool          `yaml:"bypass" json:"bypass"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
        Only        bool          `yaml:"only" json:"only"`
    } `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still at their flag default. Flags should already have been
// parsed; this lets the file supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if cfg.OutputPath == "" && fc.Output != "" { cfg.OutputPath = fc.Output }
    if cfg.OutputPDFPath == "" && fc.OutputPDF != "" { cfg.OutputPDFPath = fc.OutputPDF }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }

    if (cfg.BaseURL == "" || cfg.BaseURL == DefaultBaseURL) && fc.Arxiv.BaseURL != "" { cfg.BaseURL = fc.Arxiv.BaseURL }
    if (cfg.Archive == "" || cfg.Archive == DefaultArchive) && fc.Arxiv.Archive != "" { cfg.Archive = fc.Arxiv.Archive }
    if (cfg.NumPapers == 0 || cfg.NumPapers == DefaultNumPapers) && fc.Arxiv.NumPapers > 0 { cfg.NumPapers = fc.Arxiv.NumPapers }
    if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && fc.Arxiv.UA != "" { cfg.UserAgent = fc.Arxiv.UA }
    if (cfg.RequestInterval == 0 || cfg.RequestInterval == DefaultRequestInterval) && fc.Arxiv.Interval > 0 { cfg.RequestInterval = fc.Arxiv.Interval }
    if !cfg.IgnoreRobots && fc.Arxiv.IgnoreRobots { cfg.IgnoreRobots = true }

    if cfg.ListingFile == "" && fc.Local.ListingFile != "" { cfg.ListingFile = fc.Local.ListingFile }
    if cfg.AbstractDir == "" && fc.Local.AbstractDir != "" { cfg.AbstractDir = fc.Local.AbstractDir }

    if cfg.Encoding == "" && fc.Encoding != "" { cfg.Encoding = fc.Encoding }
    if (cfg.Extractor == "" || cfg.Extractor == "regex") && fc.Extractor != "" { cfg.Extractor = fc.Extractor }
    if cfg.MathPlaceholder == "" && fc.Normalize.MathPlaceholder != "" { cfg.MathPlaceholder = fc.Normalize.MathPlaceholder }

    if (cfg.Vectorizer == "" || cfg.Vectorizer == "tfidf") && fc.Vectorizer != "" { cfg.Vectorizer = fc.Vectorizer }
    if cfg.EmbedBaseURL == "" && fc.Embed.BaseURL != "" { cfg.EmbedBaseURL = fc.Embed.BaseURL }
    if cfg.EmbedModel == "" && fc.Embed.Model != "" { cfg.EmbedModel = fc.Embed.Model }
    if cfg.EmbedAPIKey == "" && fc.Embed.APIKey != "" { cfg.EmbedAPIKey = fc.Embed.APIKey }

    if (cfg.TestFraction == 0 || cfg.TestFraction == DefaultTestFraction) && fc.Train.TestFraction > 0 { cfg.TestFraction = fc.Train.TestFraction }
    if (cfg.Seed == 0 || cfg.Seed == DefaultSeed) && fc.Train.Seed != 0 { cfg.Seed = fc.Train.Seed }
    if (cfg.C == 0 || cfg.C == DefaultC) && fc.Train.C > 0 { cfg.C = fc.Train.C }
    if cfg.Gamma == 0 && fc.Train.Gamma > 0 { cfg.Gamma = fc.Train.Gamma }

    if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheBypass && fc.Cache.Bypass { cfg.CacheBypass = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }
    if !cfg.HTTPCacheOnly && fc.Cache.Only { cfg.HTTPCacheOnly = true }
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
    if strings.TrimSpace(cfg.ListingFile) == "" && strings.TrimSpace(cfg.BaseURL) == "" {
        return errors.New("config: arxiv base URL is required (or set ARXIV_BASE_URL)")
    }
    if strings.TrimSpace(cfg.Archive) == "" {
        return errors.New("config: archive is required")
    }
    if cfg.NumPapers <= 0 {
        return errors.New("config: numPapers must be positive")
    }
    if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
        return errors.New("config: test fraction must be between 0 and 1")
    }
    if cfg.C < 0 || cfg.Gamma < 0 || cfg.RequestInterval < 0 || cfg.CacheMaxAge < 0 {
        return errors.New("config: negative values are not allowed")
    }
    switch cfg.Extractor {
    case "", "regex", "dom":
    default:
        return fmt.Errorf("config: unknown extractor %q", cfg.Extractor)
    }
    switch cfg.Vectorizer {
    case "", "tfidf":
    case "embeddings":
        if strings.TrimSpace(cfg.EmbedModel) == "" {
            return errors.New("config: embed.model is required for the embeddings vectorizer (or set EMBED_MODEL)")
        }
    default:
        return fmt.Errorf("config: unknown vectorizer %q", cfg.Vectorizer)
    }
    return nil
}
