package csrf

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore guarda tokens en proceso. Sirve para una sola instancia,
// detrás de un balanceador hace falta el backend Redis.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{cache: gocache.New(ttl, 2*ttl)}
}

func (s *MemoryStore) Issue(_ context.Context) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	s.cache.SetDefault(tok, struct{}{})
	return tok, nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) bool {
	if token == "" {
		return false
	}
	if _, ok := s.cache.Get(token); !ok {
		return false
	}
	s.cache.Delete(token)
	return true
}
