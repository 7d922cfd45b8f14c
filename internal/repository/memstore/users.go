package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
)

// UserStore é um Credential Store em memória, indexado por email.
type UserStore struct {
	mu      sync.RWMutex
	byEmail map[string]domain.User
}

// NewUserStore cria um Credential Store vazio.
func NewUserStore() *UserStore {
	return &UserStore{byEmail: make(map[string]domain.User)}
}

// Save grava o usuário; falha com Conflict se o email já existir.
func (s *UserStore) Save(ctx context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return domain.User{}, apperror.NewConflictError(fmt.Sprintf("O email '%s' já está em uso.", user.Email))
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	s.byEmail[user.Email] = user
	return user, nil
}

// FindByEmail busca o usuário pelo email exato.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com email '%s' não encontrado", email))
	}
	return user, nil
}
