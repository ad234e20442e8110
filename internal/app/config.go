package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// arXiv
	BaseURL   string
	Archive   string
	NumPapers int

	// Local dumps instead of the network
	ListingFile string
	AbstractDir string

	// Extraction / normalization
	Encoding        string
	Extractor       string
	MathPlaceholder string

	// Vectorization
	Vectorizer   string
	EmbedBaseURL string
	EmbedModel   string
	EmbedAPIKey  string

	// Training
	TestFraction float64
	Seed         int64
	C            float64
	Gamma        float64

	// HTTP behaviour
	UserAgent       string
	RequestInterval time.Duration
	IgnoreRobots    bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheBypass      bool
	CacheStrictPerms bool
	HTTPCacheOnly    bool

	// Output
	OutputPath    string
	OutputPDFPath string
	Verbose       bool
}

// Defaults applied by flags and by ApplyFileConfig when a value is unset.
const (
	DefaultBaseURL         = "http://arxiv.org"
	DefaultArchive         = "math"
	DefaultNumPapers       = 100
	DefaultTestFraction    = 0.2
	DefaultSeed            = 69
	DefaultC               = 1e6
	DefaultUserAgent       = "arxivsubj/1.0 (+https://github.com/hyperifyio/arxivsubj)"
	DefaultRequestInterval = 3 * time.Second
	DefaultCacheDir        = ".arxivsubj-cache"
)

// DefaultConfig returns a Config populated with the defaults above.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		Archive:         DefaultArchive,
		NumPapers:       DefaultNumPapers,
		Extractor:       "regex",
		Vectorizer:      "tfidf",
		TestFraction:    DefaultTestFraction,
		Seed:            DefaultSeed,
		C:               DefaultC,
		UserAgent:       DefaultUserAgent,
		RequestInterval: DefaultRequestInterval,
		CacheDir:        DefaultCacheDir,
	}
}
