// Package memory implementa core.Repository sobre maps en proceso.
// Sirve para tests y para el driver "memory" en desarrollo; un solo mutex
// alcanza para dar la misma atomicidad que las transacciones de Postgres.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sebastos1/auth/internal/store/core"
)

type Store struct {
	mu      sync.Mutex
	clients map[string]core.Client
	users   map[string]core.User
	codes   map[string]core.AuthorizationCode
	access  map[string]core.AccessToken
	refresh map[string]core.RefreshToken
	nowFunc func() time.Time
}

func New() *Store {
	return &Store{
		clients: make(map[string]core.Client),
		users:   make(map[string]core.User),
		codes:   make(map[string]core.AuthorizationCode),
		access:  make(map[string]core.AccessToken),
		refresh: make(map[string]core.RefreshToken),
		nowFunc: time.Now,
	}
}

// SetNow reemplaza el reloj del store. Solo para tests de expiración.
func (s *Store) SetNow(f func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = f
}

func (s *Store) now() time.Time { return s.nowFunc() }

func (s *Store) Ping(ctx context.Context) error { return nil }

// ─── Clients ───

func (s *Store) GetClientByID(ctx context.Context, clientID string) (*core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ClientID]; ok {
		return core.ErrConflict
	}
	s.clients[c.ClientID] = *c
	return nil
}

// ─── Users ───

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, login) || u.Username == login {
			u := u
			return &u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return core.ErrConflict
	}
	for _, other := range s.users {
		if strings.EqualFold(other.Email, u.Email) || other.Username == u.Username {
			return core.ErrConflict
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return core.ErrNotFound
	}
	// mismo contrato de unicidad que el UNIQUE de Postgres
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) || other.Username == u.Username {
			return core.ErrConflict
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.LastLoginAt = &at
	s.users[userID] = u
	return nil
}

// ─── Authorization codes ───

func (s *Store) CreateAuthorizationCode(ctx context.Context, ac *core.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[ac.Code]; ok {
		return core.ErrConflict
	}
	s.codes[ac.Code] = *ac
	return nil
}

func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*core.AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ac, ok := s.codes[code]
	if !ok || !ac.ExpiresAt.After(s.now()) {
		return nil, core.ErrNotFound
	}
	return &ac, nil
}

// ─── Tokens ───

func (s *Store) GetAccessToken(ctx context.Context, token string) (*core.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.access[token]
	if !ok || !at.ExpiresAt.After(s.now()) {
		return nil, core.ErrNotFound
	}
	return &at, nil
}

func (s *Store) GetRefreshToken(ctx context.Context, token string) (*core.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.refresh[token]
	if !ok || !rt.ExpiresAt.After(s.now()) {
		return nil, core.ErrNotFound
	}
	return &rt, nil
}

// ─── Operaciones compuestas ───

func (s *Store) RedeemAuthorizationCode(ctx context.Context, code string, at *core.AccessToken, rt *core.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// primero el delete: si el code ya no está, otra request ganó la carrera
	if _, ok := s.codes[code]; !ok {
		return core.ErrNotFound
	}
	delete(s.codes, code)
	s.access[at.Token] = *at
	s.refresh[rt.Token] = *rt
	return nil
}

func (s *Store) RotateRefreshToken(ctx context.Context, old *core.RefreshToken, at *core.AccessToken, rt *core.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refresh[old.Token]; !ok {
		return core.ErrNotFound
	}
	delete(s.refresh, old.Token)
	delete(s.access, old.AccessToken)
	s.access[at.Token] = *at
	s.refresh[rt.Token] = *rt
	return nil
}

func (s *Store) RevokeAccessToken(ctx context.Context, token, clientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.access[token]
	if !ok || at.ClientID != clientID {
		return false, nil
	}
	delete(s.access, token)
	for k, rt := range s.refresh {
		if rt.AccessToken == token {
			delete(s.refresh, k)
		}
	}
	return true, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, token, clientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.refresh[token]
	if !ok || rt.ClientID != clientID {
		return false, nil
	}
	delete(s.refresh, token)
	delete(s.access, rt.AccessToken)
	return true, nil
}
