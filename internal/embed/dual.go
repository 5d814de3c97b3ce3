package embed

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/codeintel/engine/internal/cerrors"
)

// DualServiceConfig configures the text/code dual-embedding service
// (spec §4.7).
type DualServiceConfig struct {
	// Mock, when true, skips both model loads and uses MockEmbedder for
	// both domains — deterministic, zero-cost, for dev/test.
	Mock bool

	TextModel OllamaConfig
	CodeModel OllamaConfig

	// SingleTimeout bounds one generate_embedding call.
	SingleTimeout time.Duration
	// BatchTimeout bounds one generate_embeddings_batch call.
	BatchTimeout time.Duration

	// CodeModelMemoryCapBytes overrides CodeModelMemoryCapBytes; 0 keeps
	// the package default, a negative value disables the guard.
	CodeModelMemoryCapBytes int64

	CircuitBreaker *cerrors.CircuitBreaker
}

func (c DualServiceConfig) singleTimeout() time.Duration {
	if c.SingleTimeout > 0 {
		return c.SingleTimeout
	}
	return DefaultWarmTimeout
}

func (c DualServiceConfig) batchTimeout() time.Duration {
	if c.BatchTimeout > 0 {
		return c.BatchTimeout
	}
	return DefaultColdTimeout
}

func (c DualServiceConfig) memoryCap() uint64 {
	if c.CodeModelMemoryCapBytes < 0 {
		return 0
	}
	if c.CodeModelMemoryCapBytes > 0 {
		return uint64(c.CodeModelMemoryCapBytes)
	}
	return CodeModelMemoryCapBytes
}

// DualService produces 768-dimensional vectors in two domains — a
// general-purpose text encoder and a code-specialized encoder — behind a
// shared circuit breaker, with lazy double-checked-locking model loads
// and a mock mode for development (spec §4.7, C7).
type DualService struct {
	cfg DualServiceConfig
	cb  *cerrors.CircuitBreaker

	mu        sync.Mutex
	textModel Embedder
	codeModel Embedder
}

// NewDualService constructs the service without loading either model;
// models load lazily on first use (or eagerly via PreloadModels).
func NewDualService(cfg DualServiceConfig) *DualService {
	cb := cfg.CircuitBreaker
	if cb == nil {
		cb = cerrors.NewCircuitBreaker("embedding",
			cerrors.WithMaxFailures(5),
			cerrors.WithResetTimeout(60*time.Second),
		)
	}
	return &DualService{cfg: cfg, cb: cb}
}

// GenerateEmbedding implements `generate_embedding(text, domain)`: empty
// input yields a zero-vector for each requested domain (spec §4.7).
func (s *DualService) GenerateEmbedding(ctx context.Context, text string, domain Domain) (EmbeddingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.singleTimeout())
	defer cancel()

	var result EmbeddingResult
	var err error

	if domain == DomainText || domain == DomainHybrid {
		result.Text, err = s.embedOne(ctx, text, DomainText)
		if err != nil {
			return EmbeddingResult{}, err
		}
	}
	if domain == DomainCode || domain == DomainHybrid {
		result.Code, err = s.embedOne(ctx, text, DomainCode)
		if err != nil {
			return EmbeddingResult{}, err
		}
	}
	return result, nil
}

// GenerateEmbeddingLegacy implements `generate_embedding_legacy(text)`:
// text-domain vector only, for backward compatibility (spec §4.7).
func (s *DualService) GenerateEmbeddingLegacy(ctx context.Context, text string) ([]float32, error) {
	result, err := s.GenerateEmbedding(ctx, text, DomainText)
	if err != nil {
		return nil, err
	}
	return result.Text, nil
}

// GenerateEmbeddingsBatch implements `generate_embeddings_batch(texts,
// domain)`: encodes all non-empty texts in one batched forward pass per
// requested domain and fills empties with zero-vectors at their original
// positions (spec §4.7).
func (s *DualService) GenerateEmbeddingsBatch(ctx context.Context, texts []string, domain Domain) ([]EmbeddingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.batchTimeout())
	defer cancel()

	results := make([]EmbeddingResult, len(texts))

	if domain == DomainText || domain == DomainHybrid {
		vecs, err := s.embedBatch(ctx, texts, DomainText)
		if err != nil {
			return nil, err
		}
		for i, v := range vecs {
			results[i].Text = v
		}
	}
	if domain == DomainCode || domain == DomainHybrid {
		vecs, err := s.embedBatch(ctx, texts, DomainCode)
		if err != nil {
			return nil, err
		}
		for i, v := range vecs {
			results[i].Code = v
		}
	}

	s.forceMemoryCleanup()
	return results, nil
}

func (s *DualService) embedOne(ctx context.Context, text string, domain Domain) ([]float32, error) {
	model, err := s.modelFor(ctx, domain)
	if err != nil {
		return nil, err
	}
	return cerrors.CircuitExecuteWithResult(s.cb,
		func() ([]float32, error) { return model.Embed(ctx, text) },
		func() ([]float32, error) { return nil, cerrors.ErrCircuitOpen },
	)
}

func (s *DualService) embedBatch(ctx context.Context, texts []string, domain Domain) ([][]float32, error) {
	model, err := s.modelFor(ctx, domain)
	if err != nil {
		return nil, err
	}
	return cerrors.CircuitExecuteWithResult(s.cb,
		func() ([][]float32, error) { return model.EmbedBatch(ctx, texts) },
		func() ([][]float32, error) { return nil, cerrors.ErrCircuitOpen },
	)
}

// modelFor lazily loads the requested domain's model via double-checked
// locking, so concurrent first-callers don't race to load it twice (spec
// §4.7 "loaded lazily on first use via double-checked locking").
func (s *DualService) modelFor(ctx context.Context, domain Domain) (Embedder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch domain {
	case DomainText:
		if s.textModel != nil {
			return s.textModel, nil
		}
		m, err := s.loadModel(ctx, s.cfg.TextModel, false)
		if err != nil {
			return nil, err
		}
		s.textModel = m
		return m, nil

	case DomainCode:
		if s.codeModel != nil {
			return s.codeModel, nil
		}
		if err := checkMemoryBudget(s.cfg.memoryCap()); err != nil {
			return nil, cerrors.New(cerrors.ErrCodeEmbeddingUnavailable,
				fmt.Sprintf("refusing to load code model: %v", err), err)
		}
		m, err := s.loadModel(ctx, s.cfg.CodeModel, true)
		if err != nil {
			return nil, err
		}
		s.codeModel = m
		return m, nil

	default:
		return nil, cerrors.New(cerrors.ErrCodeEmbeddingUnavailable, "unknown embedding domain: "+string(domain), nil)
	}
}

func (s *DualService) loadModel(ctx context.Context, cfg OllamaConfig, codeDomain bool) (Embedder, error) {
	if s.cfg.Mock {
		return NewMockEmbedder(DefaultDimensions), nil
	}
	embedder, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		code := cerrors.ErrCodeEmbeddingUnavailable
		return nil, cerrors.New(code, fmt.Sprintf("failed to load %s model: %v", domainLabel(codeDomain), err), err)
	}
	return embedder, nil
}

func domainLabel(codeDomain bool) string {
	if codeDomain {
		return "code"
	}
	return "text"
}

// PreloadModels loads both models during startup so the first indexing
// request does not pay the cold-start cost (spec §4.7 "preload_models").
func (s *DualService) PreloadModels(ctx context.Context) error {
	if _, err := s.modelFor(ctx, DomainText); err != nil {
		return err
	}
	if _, err := s.modelFor(ctx, DomainCode); err != nil {
		return err
	}
	return nil
}

// forceMemoryCleanup runs the garbage collector and returns freed memory
// to the OS, matching the entry point spec §4.7 describes for use "when
// processing long file sequences" — Go has no GPU cache to clear, so the
// cache-clear half of the teacher's language has no equivalent here.
func (s *DualService) forceMemoryCleanup() {
	runtime.GC()
	debug.FreeOSMemory()
}

// Close releases both models' resources.
func (s *DualService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.textModel != nil {
		if err := s.textModel.Close(); err != nil {
			firstErr = err
		}
		s.textModel = nil
	}
	if s.codeModel != nil {
		if err := s.codeModel.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.codeModel = nil
	}
	return firstErr
}
