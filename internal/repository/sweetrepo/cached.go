package sweetrepo

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"sweetshop/internal/domain"
	"sweetshop/internal/pkg/cache"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/metrics"
)

// Chaves de cache do catálogo.
const (
	listCacheKey   = "sweets:list"
	listVersionKey = "sweets:list:ver"
)

// cachedList é a lista gravada no Redis junto com a versão lida antes da carga.
// Toda mutação incrementa a versão, então uma carga que cruzou uma escrita nunca é servida.
type cachedList struct {
	Version int64          `json:"version"`
	Sweets  []domain.Sweet `json:"sweets"`
}

// CachedRepository aplica a estratégia Cache-Aside sobre outro Catalog Store.
// Só a listagem completa passa pelo cache; mutações vão direto ao repositório interno
// e invalidam a lista. As invariantes de estoque continuam no repositório interno.
type CachedRepository struct {
	inner   domain.SweetRepository
	cache   cache.Client
	ttl     time.Duration
	logger  logger.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewCachedRepository envolve inner com cache Redis. m pode ser nil.
func NewCachedRepository(inner domain.SweetRepository, cacheClient cache.Client, ttl time.Duration, logger logger.Logger, m *metrics.Metrics) *CachedRepository {
	return &CachedRepository{
		inner:   inner,
		cache:   cacheClient,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// listVersion lê a versão atual da lista. Chave ausente vale 0; ok=false se o Redis falhar.
func (r *CachedRepository) listVersion(ctx context.Context) (version int64, ok bool) {
	raw, err := r.cache.Get(ctx, listVersionKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, true
	}
	if err != nil {
		r.logger.Warn("Falha ao ler versão do cache Redis.", map[string]interface{}{"key": listVersionKey, "error": err.Error()})
		return 0, false
	}
	version, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return version, true
}

// readList devolve a lista cacheada somente se ela foi gravada na versão atual.
func (r *CachedRepository) readList(ctx context.Context) (sweets []domain.Sweet, hit bool) {
	defer func() { r.metrics.ObserveCache("list", hit) }()

	version, ok := r.listVersion(ctx)
	if !ok {
		return nil, false
	}

	raw, err := r.cache.Get(ctx, listCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": listCacheKey, "error": err.Error()})
		}
		return nil, false
	}

	var entry cachedList
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// Dado corrompido: remove e segue para o repositório
		_ = r.cache.Delete(ctx, listCacheKey)
		return nil, false
	}
	if entry.Version != version {
		return nil, false
	}
	return entry.Sweets, true
}

func (r *CachedRepository) writeList(ctx context.Context, entry cachedList) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, listCacheKey, data, r.ttl); err != nil {
		r.logger.Warn("Falha ao gravar no cache Redis.", map[string]interface{}{"key": listCacheKey, "error": err.Error()})
	}
}

// invalidate avança a versão da lista e apaga a cópia atual.
func (r *CachedRepository) invalidate(ctx context.Context) {
	if _, err := r.cache.Incr(ctx, listVersionKey); err != nil {
		r.logger.Warn("Falha ao avançar versão do cache.", map[string]interface{}{"key": listVersionKey, "error": err.Error()})
	}
	if err := r.cache.Delete(ctx, listCacheKey); err != nil {
		r.logger.Warn("Falha ao invalidar cache.", map[string]interface{}{"key": listCacheKey, "error": err.Error()})
	}
}

// List usa o cache e coalesce cargas concorrentes do repositório com singleflight.
func (r *CachedRepository) List(ctx context.Context) ([]domain.Sweet, error) {
	if sweets, hit := r.readList(ctx); hit {
		return sweets, nil
	}

	v, err, _ := r.group.Do(listCacheKey, func() (interface{}, error) {
		// A carga é compartilhada: o cancelamento de quem chegou primeiro não derruba os demais.
		loadCtx := context.WithoutCancel(ctx)

		version, versioned := r.listVersion(loadCtx)
		loaded, err := r.inner.List(loadCtx)
		if err != nil {
			return nil, err
		}
		if versioned {
			r.writeList(loadCtx, cachedList{Version: version, Sweets: loaded})
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Sweet), nil
}

// Search não é cacheado: o espaço de consultas é aberto.
func (r *CachedRepository) Search(ctx context.Context, query string) ([]domain.Sweet, error) {
	return r.inner.Search(ctx, query)
}

// FindByID vai direto ao repositório: é usado para resolver existência antes de erros de entrada.
func (r *CachedRepository) FindByID(ctx context.Context, id string) (domain.Sweet, error) {
	return r.inner.FindByID(ctx, id)
}

func (r *CachedRepository) Insert(ctx context.Context, sweet domain.Sweet) (domain.Sweet, error) {
	created, err := r.inner.Insert(ctx, sweet)
	if err != nil {
		return domain.Sweet{}, err
	}
	r.invalidate(ctx)
	return created, nil
}

func (r *CachedRepository) Update(ctx context.Context, id string, patch domain.SweetPatch) (domain.Sweet, error) {
	updated, err := r.inner.Update(ctx, id, patch)
	if err != nil {
		return domain.Sweet{}, err
	}
	r.invalidate(ctx)
	return updated, nil
}

func (r *CachedRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) Purchase(ctx context.Context, id string) (domain.Sweet, error) {
	sweet, err := r.inner.Purchase(ctx, id)
	if err != nil {
		return domain.Sweet{}, err
	}
	r.invalidate(ctx)
	return sweet, nil
}

func (r *CachedRepository) Restock(ctx context.Context, id string, amount int) (domain.Sweet, error) {
	sweet, err := r.inner.Restock(ctx, id, amount)
	if err != nil {
		return domain.Sweet{}, err
	}
	r.invalidate(ctx)
	return sweet, nil
}
