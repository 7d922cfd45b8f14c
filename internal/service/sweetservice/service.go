package sweetservice

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/metrics"
)

// Service implementa domain.SweetService (o Stock Ledger).
// A atomicidade de Purchase e Restock é garantida pelo repositório; o serviço valida e traduz.
type Service struct {
	repo    domain.SweetRepository
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewService cria e retorna uma nova instância do Serviço de Doces. m pode ser nil.
func NewService(repo domain.SweetRepository, logger logger.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, logger: logger, metrics: m}
}

// classify garante que todo erro que sai do serviço tenha uma categoria.
func classify(err error, msg string) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.NewInternalError(msg, err)
}

func (s *Service) ListSweets(ctx context.Context) ([]domain.Sweet, error) {
	sweets, err := s.repo.List(ctx)
	if err != nil {
		return nil, classify(err, "Falha ao listar doces.")
	}
	return sweets, nil
}

// SearchSweets filtra por substring de nome ou categoria, sem diferenciar maiúsculas.
func (s *Service) SearchSweets(ctx context.Context, query string) ([]domain.Sweet, error) {
	sweets, err := s.repo.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, classify(err, "Falha ao buscar doces.")
	}
	return sweets, nil
}

func (s *Service) CreateSweet(ctx context.Context, input domain.SweetInput) (sweet domain.Sweet, err error) {
	defer func() { s.metrics.ObserveLedger("create", err) }()

	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Category) == "" || input.Price == nil || input.Quantity == nil {
		return domain.Sweet{}, apperror.NewValidationError("Nome, categoria, preço e quantidade são obrigatórios.")
	}
	if err := validateBounds(input.Price, input.Quantity); err != nil {
		return domain.Sweet{}, err
	}

	created, err := s.repo.Insert(ctx, domain.Sweet{
		Name:     strings.TrimSpace(input.Name),
		Category: strings.TrimSpace(input.Category),
		Price:    *input.Price,
		Quantity: *input.Quantity,
	})
	if err != nil {
		return domain.Sweet{}, classify(err, "Falha ao criar doce.")
	}

	s.logger.Info("Doce criado.", map[string]interface{}{"id": created.ID, "name": created.Name, "quantity": created.Quantity})
	return created, nil
}

// UpdateSweet aplica um merge parcial. Um patch vazio devolve o doce sem alterações de campo.
func (s *Service) UpdateSweet(ctx context.Context, id string, patch domain.SweetPatch) (sweet domain.Sweet, err error) {
	defer func() { s.metrics.ObserveLedger("update", err) }()

	if err := validatePatch(patch); err != nil {
		return domain.Sweet{}, s.rejectInput(ctx, id, err)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Sweet{}, classify(err, "Falha ao atualizar doce.")
	}

	s.logger.Info("Doce atualizado.", map[string]interface{}{"id": id})
	return updated, nil
}

func (s *Service) DeleteSweet(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.ObserveLedger("delete", err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		return classify(err, "Falha ao deletar doce.")
	}

	s.logger.Info("Doce deletado.", map[string]interface{}{"id": id})
	return nil
}

// PurchaseSweet vende exatamente uma unidade. Falha com OutOfStock se a quantidade for zero.
func (s *Service) PurchaseSweet(ctx context.Context, id string) (sweet domain.Sweet, err error) {
	defer func() { s.metrics.ObserveLedger("purchase", err) }()

	sweet, err = s.repo.Purchase(ctx, id)
	if err != nil {
		if apperror.CategoryOf(err) == apperror.CategoryOutOfStock {
			s.logger.Info("Compra recusada: sem estoque.", map[string]interface{}{"id": id})
		}
		return domain.Sweet{}, classify(err, "Falha ao comprar doce.")
	}

	s.logger.Info("Compra registrada.", map[string]interface{}{"id": id, "remaining": sweet.Quantity})
	return sweet, nil
}

// RestockSweet soma amount ao estoque. amount vem do corpo JSON: número ou string numérica.
func (s *Service) RestockSweet(ctx context.Context, id string, amount interface{}) (sweet domain.Sweet, err error) {
	defer func() { s.metrics.ObserveLedger("restock", err) }()

	n, err := ParseAmount(amount)
	if err != nil {
		return domain.Sweet{}, s.rejectInput(ctx, id, err)
	}

	sweet, err = s.repo.Restock(ctx, id, n)
	if err != nil {
		return domain.Sweet{}, classify(err, "Falha ao repor estoque.")
	}

	s.logger.Info("Estoque reposto.", map[string]interface{}{"id": id, "amount": n, "quantity": sweet.Quantity})
	return sweet, nil
}

// rejectInput decide o erro de uma entrada inválida: id inexistente tem precedência (NotFound).
func (s *Service) rejectInput(ctx context.Context, id string, inputErr error) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return classify(err, "Falha ao buscar doce.")
	}
	return inputErr
}

func validatePatch(patch domain.SweetPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return apperror.NewValidationError("O nome não pode ser vazio.")
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		return apperror.NewValidationError("A categoria não pode ser vazia.")
	}
	return validateBounds(patch.Price, patch.Quantity)
}

func validateBounds(price *float64, quantity *int) error {
	if price != nil && (*price < 0 || math.IsNaN(*price) || math.IsInf(*price, 0)) {
		return apperror.NewValidationError("O preço não pode ser negativo.")
	}
	if quantity != nil && *quantity < 0 {
		return apperror.NewValidationError("A quantidade não pode ser negativa.")
	}
	return nil
}

// ParseAmount converte a quantidade de reposição em um inteiro positivo.
// Aceita números JSON inteiros e strings com um inteiro em base 10; qualquer outra coisa é InvalidAmount.
func ParseAmount(amount interface{}) (int, error) {
	var n int64

	switch v := amount.(type) {
	case nil:
		return 0, apperror.NewInvalidAmountError("a quantidade é obrigatória.")
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, apperror.NewInvalidAmountError(fmt.Sprintf("'%v' não é um número inteiro válido.", v))
		}
		n = int64(v)
	case int:
		n = int64(v)
	case int64:
		n = v
	case json.Number:
		parsed, err := strconv.ParseInt(v.String(), 10, 32)
		if err != nil {
			return 0, apperror.NewInvalidAmountError(fmt.Sprintf("'%s' não é um número inteiro válido.", v))
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return 0, apperror.NewInvalidAmountError(fmt.Sprintf("'%s' não é um número inteiro válido.", v))
		}
		n = parsed
	default:
		return 0, apperror.NewInvalidAmountError("a quantidade deve ser um número.")
	}

	if n <= 0 {
		return 0, apperror.NewInvalidAmountError("a quantidade de reposição deve ser positiva.")
	}
	return int(n), nil
}
