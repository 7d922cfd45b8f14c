package sweetrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
)

// SQLSTATE 22P02: texto que não é um UUID válido. Um id assim não existe no catálogo.
const pqInvalidTextRepresentation = "22P02"

const sweetColumns = `id, name, category, price, quantity, created_at, updated_at`

// SweetRepository implementa domain.SweetRepository sobre PostgreSQL.
type SweetRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSweetRepository cria e retorna uma nova instância do Repositório de Doces.
func NewSweetRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *SweetRepository {
	return &SweetRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSweet(row rowScanner) (domain.Sweet, error) {
	var s domain.Sweet
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func notFound(id string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Doce com ID %s não existe na base de dados.", id))
}

// isMissingRow trata "nenhuma linha" e "id não é UUID" como ausência do registro.
func isMissingRow(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation
}

// escapeLike escapa os curingas do LIKE para que a busca seja por substring literal.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *SweetRepository) query(ctx context.Context, q string, args ...interface{}) ([]domain.Sweet, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sweets := make([]domain.Sweet, 0)
	for rows.Next() {
		s, err := scanSweet(rows)
		if err != nil {
			return nil, err
		}
		sweets = append(sweets, s)
	}
	return sweets, rows.Err()
}

// List devolve todos os doces na ordem de inserção.
func (r *SweetRepository) List(ctx context.Context) ([]domain.Sweet, error) {
	r.logger.Debug("Listando doces no repositório.", nil)

	sweets, err := r.query(ctx, `SELECT `+sweetColumns+` FROM sweets ORDER BY seq`)
	if err != nil {
		r.logger.Error("Falha ao listar doces no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar doces", err)
	}
	return sweets, nil
}

// Search busca por substring (ILIKE) em nome ou categoria, na ordem de inserção.
func (r *SweetRepository) Search(ctx context.Context, query string) ([]domain.Sweet, error) {
	r.logger.Debug("Buscando doces no repositório.", map[string]interface{}{"query": query})

	pattern := "%" + escapeLike(query) + "%"
	sweets, err := r.query(ctx, `SELECT `+sweetColumns+` FROM sweets
        WHERE name ILIKE $1 OR category ILIKE $1
        ORDER BY seq`, pattern)
	if err != nil {
		r.logger.Error("Falha ao buscar doces no DB.", err)
		return nil, apperror.NewDBError("Falha ao buscar doces", err)
	}
	return sweets, nil
}

// FindByID busca um doce pelo ID.
func (r *SweetRepository) FindByID(ctx context.Context, id string) (domain.Sweet, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := r.DB.QueryRowContext(ctxTimeout, `SELECT `+sweetColumns+` FROM sweets WHERE id = $1`, id)
	sweet, err := scanSweet(row)
	if isMissingRow(err) {
		r.logger.Info("Doce não encontrado.", map[string]interface{}{"id": id})
		return domain.Sweet{}, notFound(id)
	}
	if err != nil {
		r.logger.Error("Falha ao buscar doce no DB.", err)
		return domain.Sweet{}, apperror.NewDBError("Falha ao buscar doce", err)
	}
	return sweet, nil
}

// Insert persiste um novo doce.
func (r *SweetRepository) Insert(ctx context.Context, sweet domain.Sweet) (domain.Sweet, error) {
	r.logger.Debug("Iniciando Insert de doce no repositório.", map[string]interface{}{"name": sweet.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if sweet.ID == "" {
		sweet.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	row := r.DB.QueryRowContext(ctxTimeout, `
        INSERT INTO sweets (id, name, category, price, quantity, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+sweetColumns,
		sweet.ID, sweet.Name, sweet.Category, sweet.Price, sweet.Quantity, now, now,
	)
	created, err := scanSweet(row)
	if err != nil {
		r.logger.Error("Falha ao inserir doce no DB.", err)
		return domain.Sweet{}, apperror.NewDBError("Falha ao inserir doce", err)
	}

	r.logger.Info("Doce salvo com sucesso no repositório.", map[string]interface{}{"id": created.ID, "name": created.Name})
	return created, nil
}

// Update aplica um merge parcial numa única instrução: campos nulos mantêm o valor atual.
func (r *SweetRepository) Update(ctx context.Context, id string, patch domain.SweetPatch) (domain.Sweet, error) {
	r.logger.Debug("Iniciando Update de doce no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := r.DB.QueryRowContext(ctxTimeout, `
        UPDATE sweets SET
            name       = COALESCE($2, name),
            category   = COALESCE($3, category),
            price      = COALESCE($4, price),
            quantity   = COALESCE($5, quantity),
            updated_at = $6
        WHERE id = $1
        RETURNING `+sweetColumns,
		id, patch.Name, patch.Category, patch.Price, patch.Quantity, time.Now().UTC(),
	)
	updated, err := scanSweet(row)
	if isMissingRow(err) {
		return domain.Sweet{}, notFound(id)
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar doce no DB.", err)
		return domain.Sweet{}, apperror.NewDBError("Falha ao atualizar doce", err)
	}

	r.logger.Info("Doce atualizado com sucesso.", map[string]interface{}{"id": id})
	return updated, nil
}

// Delete remove o doce; NotFound se nenhuma linha for afetada.
func (r *SweetRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM sweets WHERE id = $1`, id)
	if isMissingRow(err) {
		return notFound(id)
	}
	if err != nil {
		r.logger.Error("Falha ao deletar doce no DB.", err)
		return apperror.NewDBError("Falha ao deletar doce", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		return notFound(id)
	}

	r.logger.Info("Doce deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// Purchase decrementa o estoque em exatamente 1 unidade.
func (r *SweetRepository) Purchase(ctx context.Context, id string) (domain.Sweet, error) {
	return r.adjustQuantity(ctx, id, -1)
}

// Restock incrementa o estoque pela quantidade informada.
func (r *SweetRepository) Restock(ctx context.Context, id string, amount int) (domain.Sweet, error) {
	if amount <= 0 {
		return domain.Sweet{}, apperror.NewInvalidAmountError("a quantidade de reposição deve ser positiva.")
	}
	return r.adjustQuantity(ctx, id, amount)
}

// adjustQuantity aplica delta ao estoque dentro de uma transação.
// O SELECT ... FOR UPDATE trava a linha, então leitura, verificação e escrita
// são atômicas em relação a outras mutações do mesmo id.
func (r *SweetRepository) adjustQuantity(ctx context.Context, id string, delta int) (domain.Sweet, error) {
	r.logger.Debug("Iniciando ajuste de estoque no repositório.", map[string]interface{}{"id": id, "delta": delta})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para ajuste de estoque.", err)
		return domain.Sweet{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro; no-op após Commit

	current, err := scanSweet(tx.QueryRowContext(ctxTimeout,
		`SELECT `+sweetColumns+` FROM sweets WHERE id = $1 FOR UPDATE`, id))
	if isMissingRow(err) {
		return domain.Sweet{}, notFound(id)
	}
	if err != nil {
		r.logger.Error("Falha ao selecionar doce para ajuste de estoque.", err)
		return domain.Sweet{}, apperror.NewDBError("Falha ao buscar estoque para atualização", err)
	}

	newQuantity := current.Quantity + delta
	if newQuantity < 0 {
		r.logger.Warn("Tentativa de compra sem estoque.", map[string]interface{}{"id": id, "quantity": current.Quantity})
		return domain.Sweet{}, apperror.NewOutOfStockError(fmt.Sprintf("o doce '%s' está esgotado.", current.Name))
	}

	updated, err := scanSweet(tx.QueryRowContext(ctxTimeout, `
        UPDATE sweets SET quantity = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+sweetColumns,
		id, newQuantity, time.Now().UTC(),
	))
	if err != nil {
		r.logger.Error("Falha ao atualizar estoque.", err)
		return domain.Sweet{}, apperror.NewDBError("Falha ao atualizar estoque", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de estoque.", err)
		return domain.Sweet{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Estoque ajustado com sucesso.", map[string]interface{}{"id": id, "new_quantity": updated.Quantity})
	return updated, nil
}
