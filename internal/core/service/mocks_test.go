package service

import (
	"context"
	"net/http"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ports"
)

type mockAdapter struct {
	name              string
	CreateSessionFunc func(ctx context.Context, req domain.PaymentSessionRequest) (*domain.SessionHandle, error)
	calls             int
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.SessionHandle, error) {
	m.calls++
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return &domain.SessionHandle{
		Provider:      m.name,
		RequestID:     "req-1",
		TransactionID: "tx-1",
		RedirectURL:   "https://checkout.test/req-1",
	}, nil
}

type verifyingAdapter struct {
	mockAdapter
	VerifyFunc func(payload map[string]any, header http.Header) error
	EnrichFunc func(ctx context.Context, payload map[string]any) (map[string]any, error)
}

func (v *verifyingAdapter) VerifyNotification(payload map[string]any, header http.Header) error {
	if v.VerifyFunc != nil {
		return v.VerifyFunc(payload, header)
	}
	return nil
}

func (v *verifyingAdapter) EnrichNotification(ctx context.Context, payload map[string]any) (map[string]any, error) {
	if v.EnrichFunc != nil {
		return v.EnrichFunc(ctx, payload)
	}
	return payload, nil
}

type mockResolver struct {
	adapters map[string]ports.ProviderAdapter
	fallback string
}

func newResolver(fallback string, adapters ...ports.ProviderAdapter) *mockResolver {
	r := &mockResolver{adapters: map[string]ports.ProviderAdapter{}, fallback: fallback}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *mockResolver) Get(name string) (ports.ProviderAdapter, error) {
	if name == "" {
		name = r.fallback
	}
	a, ok := r.adapters[name]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return a, nil
}

func (r *mockResolver) Default() string { return r.fallback }

func (r *mockResolver) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	return names
}

// conflictingStore fails the first n updates with a version conflict, after
// bumping the stored order so the retry sees a new version.
type conflictingStore struct {
	ports.OrderStore
	conflicts int
}

func (s *conflictingStore) Update(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	if s.conflicts > 0 {
		s.conflicts--
		if _, err := s.OrderStore.Update(ctx, id, domain.OrderPatch{
			ExpectedVersion: patch.ExpectedVersion,
			Metadata:        map[string]string{"touchedBy": "other-writer"},
		}); err != nil {
			return nil, err
		}
		return nil, domain.ErrVersionConflict
	}
	return s.OrderStore.Update(ctx, id, patch)
}

type failingStore struct {
	ports.OrderStore
	err error
}

func (s *failingStore) GetByID(context.Context, string) (*domain.Order, error) {
	return nil, s.err
}
