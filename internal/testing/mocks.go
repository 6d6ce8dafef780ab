package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/finsight/finsight/internal/clients/aiadvisor"
	"github.com/finsight/finsight/internal/domain"
)

// MockProfileSource is an in-memory stand-in for the profile store
type MockProfileSource struct {
	mu         sync.RWMutex
	profile    *domain.RiskProfile
	err        error
	finProfile *domain.FinancialProfile
	finErr     error
}

// NewMockProfileSource creates a new mock profile source
func NewMockProfileSource() *MockProfileSource {
	return &MockProfileSource{}
}

// SetProfile sets the profile to return
func (m *MockProfileSource) SetProfile(p domain.RiskProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = &p
}

// SetError sets the error to return
func (m *MockProfileSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetFinancialProfile sets the financial profile to return
func (m *MockProfileSource) SetFinancialProfile(p domain.FinancialProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finProfile = &p
}

// SetFinancialError sets the error GetFinancialProfile returns
func (m *MockProfileSource) SetFinancialError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finErr = err
}

// GetRiskProfile returns the configured profile or error
func (m *MockProfileSource) GetRiskProfile(userID string) (*domain.RiskProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.profile == nil {
		return nil, errors.New("no profile configured")
	}
	p := *m.profile
	p.UserID = userID
	return &p, nil
}

// GetFinancialProfile returns the configured financial profile or error
func (m *MockProfileSource) GetFinancialProfile(userID string) (*domain.FinancialProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.finErr != nil {
		return nil, m.finErr
	}
	if m.finProfile == nil {
		return nil, errors.New("no financial profile configured")
	}
	p := *m.finProfile
	p.UserID = userID
	return &p, nil
}

// MockProductSource is an in-memory stand-in for the product catalog
type MockProductSource struct {
	mu       sync.RWMutex
	products []domain.Product
	err      error
}

// NewMockProductSource creates a new mock product source
func NewMockProductSource() *MockProductSource {
	return &MockProductSource{products: make([]domain.Product, 0)}
}

// SetProducts sets the products to return
func (m *MockProductSource) SetProducts(products []domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
}

// SetError sets the error to return
func (m *MockProductSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ListActive returns the configured products or error
func (m *MockProductSource) ListActive() ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

// RecommendedForLevel filters the configured products the way the catalog
// service does: each level sees its own tier and every tier below it
func (m *MockProductSource) RecommendedForLevel(level domain.RiskLevel) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	allowed := map[domain.RiskLevel]bool{domain.RiskLevelLow: true}
	switch level {
	case domain.RiskLevelMedium:
		allowed[domain.RiskLevelMedium] = true
	case domain.RiskLevelHigh:
		allowed[domain.RiskLevelMedium] = true
		allowed[domain.RiskLevelHigh] = true
	}
	var out []domain.Product
	for _, p := range m.products {
		if allowed[p.RiskLevel] {
			out = append(out, p)
		}
	}
	return out, nil
}

// MockChatClient is a scripted stand-in for the AI chat upstream.
// Chunks are delivered in order with an optional delay per chunk; an error can
// be injected after a given number of chunks to simulate a mid-stream failure.
type MockChatClient struct {
	mu         sync.Mutex
	chunks     []string
	chunkDelay time.Duration
	failAfter  int // -1 = never fail
	failErr    error
	enabled    bool
	lastReq    *aiadvisor.ChatRequest
}

// NewMockChatClient creates an enabled mock chat client replaying the given chunks
func NewMockChatClient(chunks ...string) *MockChatClient {
	return &MockChatClient{chunks: chunks, failAfter: -1, enabled: true}
}

// SetChunkDelay sets a delay before each chunk delivery
func (m *MockChatClient) SetChunkDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunkDelay = d
}

// FailAfter injects err once n chunks have been delivered
func (m *MockChatClient) FailAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.failErr = err
}

// SetEnabled toggles the Enabled() report
func (m *MockChatClient) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// LastRequest returns the most recent request passed to the client
func (m *MockChatClient) LastRequest() *aiadvisor.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

// Enabled reports whether the upstream is configured
func (m *MockChatClient) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// StreamChat replays the scripted chunks through onChunk, honoring ctx
func (m *MockChatClient) StreamChat(ctx context.Context, req aiadvisor.ChatRequest, onChunk func(string) error) error {
	m.mu.Lock()
	m.lastReq = &req
	chunks := m.chunks
	delay := m.chunkDelay
	failAfter := m.failAfter
	failErr := m.failErr
	m.mu.Unlock()

	for i, chunk := range chunks {
		if failAfter >= 0 && i >= failAfter {
			return failErr
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
	}

	if failAfter >= len(chunks) && failAfter >= 0 {
		return failErr
	}
	return nil
}

// Complete replays the scripted chunks as a single response
func (m *MockChatClient) Complete(ctx context.Context, req aiadvisor.ChatRequest) (string, error) {
	var full string
	err := m.StreamChat(ctx, req, func(chunk string) error {
		full += chunk
		return nil
	})
	if err != nil {
		return "", err
	}
	return full, nil
}
