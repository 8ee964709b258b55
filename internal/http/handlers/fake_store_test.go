package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paylink/backend/internal/models"
	"paylink/backend/internal/repository"
)

// fakeStore is an in-memory TokenStore for handler tests. It enforces the
// same conditional-consume semantics as the Postgres repository.
type fakeStore struct {
	mu      sync.Mutex
	byOrder map[string]*models.PayLinkToken
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byOrder: make(map[string]*models.PayLinkToken)}
}

func (s *fakeStore) CreatePayLinkToken(_ context.Context, params models.CreatePayLinkTokenParams) (models.PayLinkToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec := &models.PayLinkToken{
		ID:         fmt.Sprintf("tok-%d", s.nextID),
		TokenHash:  params.TokenHash,
		OrderID:    params.OrderID,
		Amount:     params.Amount,
		OrderName:  params.OrderName,
		OrderItems: params.OrderItems,
		ExpiresAt:  params.ExpiresAt,
		CreatedAt:  time.Now(),
	}
	s.byOrder[params.OrderID] = rec
	return *rec, nil
}

func (s *fakeStore) GetPayLinkTokenByHash(_ context.Context, tokenHash string) (models.PayLinkToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.byOrder {
		if rec.TokenHash == tokenHash {
			return *rec, nil
		}
	}
	return models.PayLinkToken{}, repository.ErrPayTokenNotFound
}

func (s *fakeStore) GetPayLinkTokenByOrderID(_ context.Context, orderID string) (models.PayLinkToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byOrder[orderID]
	if !ok {
		return models.PayLinkToken{}, repository.ErrPayTokenNotFound
	}
	return *rec, nil
}

func (s *fakeStore) ConsumePayLinkToken(_ context.Context, orderID string) (models.PayLinkToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byOrder[orderID]
	if !ok {
		return models.PayLinkToken{}, repository.ErrPayTokenNotFound
	}
	if rec.Used {
		return models.PayLinkToken{}, repository.ErrPayTokenAlreadyUsed
	}
	now := time.Now()
	rec.Used = true
	rec.UsedAt = &now
	return *rec, nil
}

func (s *fakeStore) ListPayLinkTokens(_ context.Context, limit int) ([]models.PayLinkToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PayLinkToken, 0, len(s.byOrder))
	for _, rec := range s.byOrder {
		out = append(out, *rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// persistedValues returns every stored string field, used to assert the
// plaintext token never lands in persisted state.
func (s *fakeStore) persistedValues() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, rec := range s.byOrder {
		out = append(out, rec.TokenHash, rec.OrderID, rec.OrderName, rec.OrderItems)
	}
	return out
}
