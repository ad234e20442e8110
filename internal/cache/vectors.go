package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const vectorSuffix = ".vec.json"

// VectorCache stores embedding vectors keyed by model and input text.
type VectorCache struct {
	Dir         string
	StrictPerms bool
}

// VectorKey derives the cache key for text embedded by model.
func VectorKey(model, text string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + text))
	return hex.EncodeToString(h[:])
}

func (c *VectorCache) path(key string) string {
	return filepath.Join(c.Dir, key+vectorSuffix)
}

// Get returns the cached vector for key. A miss is (nil, false, nil).
func (c *VectorCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	if c == nil || c.Dir == "" {
		return nil, false, errors.New("cache dir not configured")
	}
	p := c.path(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	var v []float32
	if err := json.Unmarshal(b, &v); err != nil {
		// corrupt entries count as misses and get rewritten
		return nil, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return v, true, nil
}

// Put stores vec under key.
func (c *VectorCache) Put(_ context.Context, key string, vec []float32) error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := mkdir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), b, fileMode(c.StrictPerms))
}
