package main

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// embeddingRequest accepts a single string or a list, like the real API.
type embeddingRequest struct {
	Model string          `json:"model"`
	Input json.RawMessage `json:"input"`
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// hashedEmbedding maps whitespace tokens into dim buckets by FNV hash and
// L2-normalizes the counts. Identical texts always embed identically.
func hashedEmbedding(text string, dim int) []float32 {
	v := make([]float64, dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[int(h.Sum32()%uint32(dim))]++
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	out := make([]float32, dim)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

func decodeInputs(raw json.RawMessage) ([]string, error) {
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []string{one}, nil
}

func newMux(model string, dim int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		inputs, err := decodeInputs(req.Input)
		if err != nil {
			http.Error(w, "bad input: "+err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]embeddingItem, len(inputs))
		tokens := 0
		for i, in := range inputs {
			data[i] = embeddingItem{Object: "embedding", Index: i, Embedding: hashedEmbedding(in, dim)}
			tokens += len(strings.Fields(in))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": tokens, "total_tokens": tokens},
		})
		log.Debug().Int("inputs", len(inputs)).Msg("embeddings served")
	})
	return mux
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "stub-embed"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	dim := 256
	if s := os.Getenv("EMBED_DIM"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			dim = n
		}
	}

	log.Info().Str("addr", addr).Str("model", model).Int("dim", dim).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model, dim)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}
