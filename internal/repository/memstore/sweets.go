package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
)

// sweetEntry guarda um doce e a trava que serializa as mutações deste id.
type sweetEntry struct {
	mu      sync.Mutex
	sweet   domain.Sweet
	deleted bool
}

// SweetStore é um Catalog Store em memória.
// O RWMutex protege apenas o mapa e a ordem de inserção; cada item tem sua própria trava,
// então compras em ids diferentes rodam em paralelo.
type SweetStore struct {
	mu      sync.RWMutex
	entries map[string]*sweetEntry
	order   []string
	now     func() time.Time
}

// NewSweetStore cria um catálogo vazio.
func NewSweetStore() *SweetStore {
	return &SweetStore{
		entries: make(map[string]*sweetEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func notFound(id string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Doce com ID %s não existe.", id))
}

// lookup devolve a entrada do id sem travá-la.
func (s *SweetStore) lookup(id string) (*sweetEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// snapshot copia os doces na ordem de inserção.
func (s *SweetStore) snapshot() []*sweetEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*sweetEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// List devolve todos os doces na ordem de inserção.
func (s *SweetStore) List(ctx context.Context) ([]domain.Sweet, error) {
	return s.filter(func(domain.Sweet) bool { return true }), nil
}

// Search faz busca por substring, sem diferenciar maiúsculas, em nome ou categoria.
func (s *SweetStore) Search(ctx context.Context, query string) ([]domain.Sweet, error) {
	q := strings.ToLower(query)
	return s.filter(func(sw domain.Sweet) bool {
		return strings.Contains(strings.ToLower(sw.Name), q) ||
			strings.Contains(strings.ToLower(sw.Category), q)
	}), nil
}

func (s *SweetStore) filter(match func(domain.Sweet) bool) []domain.Sweet {
	out := make([]domain.Sweet, 0)
	for _, e := range s.snapshot() {
		e.mu.Lock()
		sw, deleted := e.sweet, e.deleted
		e.mu.Unlock()
		if !deleted && match(sw) {
			out = append(out, sw)
		}
	}
	return out
}

// FindByID busca um doce pelo id.
func (s *SweetStore) FindByID(ctx context.Context, id string) (domain.Sweet, error) {
	e, ok := s.lookup(id)
	if !ok {
		return domain.Sweet{}, notFound(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Sweet{}, notFound(id)
	}
	return e.sweet, nil
}

// Insert grava um novo doce, gerando id e timestamps.
func (s *SweetStore) Insert(ctx context.Context, sweet domain.Sweet) (domain.Sweet, error) {
	if sweet.ID == "" {
		sweet.ID = uuid.NewString()
	}
	now := s.now()
	sweet.CreatedAt = now
	sweet.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[sweet.ID]; exists {
		return domain.Sweet{}, apperror.NewConflictError(fmt.Sprintf("Doce com ID %s já existe.", sweet.ID))
	}
	s.entries[sweet.ID] = &sweetEntry{sweet: sweet}
	s.order = append(s.order, sweet.ID)
	return sweet, nil
}

// mutate executa fn com a trava do item, sob a garantia de que ele ainda existe.
func (s *SweetStore) mutate(id string, fn func(*domain.Sweet) error) (domain.Sweet, error) {
	e, ok := s.lookup(id)
	if !ok {
		return domain.Sweet{}, notFound(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Sweet{}, notFound(id)
	}

	next := e.sweet
	if err := fn(&next); err != nil {
		return domain.Sweet{}, err
	}
	next.UpdatedAt = s.now()
	e.sweet = next
	return next, nil
}

// Update aplica o patch parcial sobre o doce.
func (s *SweetStore) Update(ctx context.Context, id string, patch domain.SweetPatch) (domain.Sweet, error) {
	return s.mutate(id, func(sw *domain.Sweet) error {
		*sw = patch.Apply(*sw)
		return nil
	})
}

// Purchase decrementa a quantidade em 1; falha com OutOfStock se ela for menor que 1.
func (s *SweetStore) Purchase(ctx context.Context, id string) (domain.Sweet, error) {
	return s.mutate(id, func(sw *domain.Sweet) error {
		if sw.Quantity < 1 {
			return apperror.NewOutOfStockError(fmt.Sprintf("o doce '%s' está esgotado.", sw.Name))
		}
		sw.Quantity--
		return nil
	})
}

// Restock incrementa a quantidade pelo valor informado (já validado como positivo).
func (s *SweetStore) Restock(ctx context.Context, id string, amount int) (domain.Sweet, error) {
	if amount <= 0 {
		return domain.Sweet{}, apperror.NewInvalidAmountError("a quantidade de reposição deve ser positiva.")
	}
	return s.mutate(id, func(sw *domain.Sweet) error {
		sw.Quantity += amount
		return nil
	})
}

// Delete remove o doce imediatamente.
func (s *SweetStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return notFound(id)
	}
	// Espera mutações em andamento neste item terminarem antes de removê-lo.
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()

	delete(s.entries, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
