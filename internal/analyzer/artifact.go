package analyzer

import (
	"encoding/json"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/model"
)

// Vectorizer maps a text to a sparse term-weight vector.
type Vectorizer interface {
	Transform(text string) map[string]float64
}

// CategoryModel produces per-class probabilities over the three scorable
// categories from a feature vector. Probabilities sum to 1.
type CategoryModel interface {
	Probabilities(features map[string]float64) (map[model.Category]float64, error)
}

// Artifact is an immutable trained classifier: a vectorizer paired with a
// category model. Once published it is never mutated.
type Artifact struct {
	Vectorizer Vectorizer
	Model      CategoryModel
}

// Predict runs the artifact on a text, returning the predicted label and
// the full probability vector.
func (a *Artifact) Predict(text string) (model.Category, map[model.Category]float64, error) {
	features := a.Vectorizer.Transform(text)
	probs, err := a.Model.Probabilities(features)
	if err != nil {
		return "", nil, err
	}

	best := model.Category("")
	bestP := math.Inf(-1)
	for _, c := range model.ScorableCategories {
		if p := probs[c]; p > bestP {
			best, bestP = c, p
		}
	}
	return best, probs, nil
}

// ArtifactHandle owns the process-wide classifier artifact. The artifact
// is loaded from disk at most once, on first use; retraining publishes a
// replacement atomically so concurrent readers never observe a partial
// model. A missing or corrupt artifact leaves the handle empty and
// classification runs in keyword-only mode.
type ArtifactHandle struct {
	path string
	once sync.Once
	cur  atomic.Pointer[Artifact]
}

// NewArtifactHandle creates a handle that lazily loads from path.
// An empty path yields a permanently empty handle.
func NewArtifactHandle(path string) *ArtifactHandle {
	return &ArtifactHandle{path: path}
}

// NewStaticArtifactHandle wraps an already-built artifact, bypassing disk.
// Used for injected stubs.
func NewStaticArtifactHandle(a *Artifact) *ArtifactHandle {
	h := &ArtifactHandle{}
	h.once.Do(func() {})
	h.cur.Store(a)
	return h
}

// Get returns the current artifact, loading it on first call. Returns nil
// when no artifact is available.
func (h *ArtifactHandle) Get() *Artifact {
	h.once.Do(func() {
		if h.path == "" {
			return
		}
		a, err := loadArtifact(h.path)
		if err != nil {
			zap.L().Warn("analyzer: classifier artifact unavailable, keyword-only mode",
				zap.String("path", h.path),
				zap.Error(err))
			return
		}
		h.cur.Store(a)
		zap.L().Info("analyzer: classifier artifact loaded",
			zap.String("path", h.path))
	})
	return h.cur.Load()
}

// Publish atomically replaces the current artifact. Retraining (outside
// core scope) constructs a fresh Artifact and publishes it here.
func (h *ArtifactHandle) Publish(a *Artifact) {
	h.once.Do(func() {})
	h.cur.Store(a)
}

// artifactFile is the on-disk JSON layout of a trained artifact: inverse
// document frequencies for the vectorizer plus per-class term weights and
// biases for a linear model.
type artifactFile struct {
	IDF     map[string]float64                    `json:"idf"`
	Weights map[model.Category]map[string]float64 `json:"weights"`
	Bias    map[model.Category]float64            `json:"bias"`
}

func loadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: read artifact")
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "analyzer: parse artifact")
	}
	if len(file.IDF) == 0 || len(file.Weights) == 0 {
		return nil, eris.New("analyzer: artifact missing idf or weights")
	}

	return &Artifact{
		Vectorizer: &tfidfVectorizer{idf: file.IDF},
		Model:      &linearModel{weights: file.Weights, bias: file.Bias},
	}, nil
}

// tfidfVectorizer weights token counts by stored inverse document
// frequencies. Tokens without an IDF entry are out of vocabulary.
type tfidfVectorizer struct {
	idf map[string]float64
}

func (v *tfidfVectorizer) Transform(text string) map[string]float64 {
	features := make(map[string]float64)
	for _, tok := range tokenize(strings.ToLower(text)) {
		if w, ok := v.idf[tok]; ok {
			features[tok] += w
		}
	}
	return features
}

// linearModel scores each class as a dot product plus bias and converts
// scores to probabilities with a softmax.
type linearModel struct {
	weights map[model.Category]map[string]float64
	bias    map[model.Category]float64
}

func (m *linearModel) Probabilities(features map[string]float64) (map[model.Category]float64, error) {
	scores := make(map[model.Category]float64, len(model.ScorableCategories))
	maxScore := math.Inf(-1)
	for _, c := range model.ScorableCategories {
		w, ok := m.weights[c]
		if !ok {
			return nil, eris.Errorf("analyzer: artifact missing weights for %s", c)
		}
		s := m.bias[c]
		for term, v := range features {
			s += w[term] * v
		}
		scores[c] = s
		if s > maxScore {
			maxScore = s
		}
	}

	var sum float64
	probs := make(map[model.Category]float64, len(scores))
	for c, s := range scores {
		p := math.Exp(s - maxScore)
		probs[c] = p
		sum += p
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs, nil
}
