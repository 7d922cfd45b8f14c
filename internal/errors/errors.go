package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do SweetShop.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND", "OUT_OF_STOCK")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// Categorias expostas no corpo das respostas de erro.
const (
	CategoryValidation         = "VALIDATION_ERROR"
	CategoryConflict           = "CONFLICT"
	CategoryInvalidCredentials = "INVALID_CREDENTIALS"
	CategoryUnauthorized       = "UNAUTHORIZED"
	CategoryForbidden          = "FORBIDDEN"
	CategoryNotFound           = "NOT_FOUND"
	CategoryOutOfStock         = "OUT_OF_STOCK"
	CategoryInvalidAmount      = "INVALID_AMOUNT"
	CategoryRateLimited        = "RATE_LIMITED"
	CategoryInternal           = "INTERNAL_ERROR"
	CategoryUnknown            = "UNKNOWN_ERROR"
)

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return CategoryValidation }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return CategoryNotFound }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa uma chave única duplicada (e.g., email já cadastrado).
// A API publica responde 400 para este caso, e não 409.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return CategoryConflict }
func (e *ConflictError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// InvalidCredentialsError é usado no login tanto para email inexistente quanto para senha errada.
// Os dois casos devem ser indistinguíveis para quem chama.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string    { return "Credenciais inválidas." }
func (e *InvalidCredentialsError) Category() string { return CategoryInvalidCredentials }
func (e *InvalidCredentialsError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *InvalidCredentialsError) Unwrap() error    { return nil }

// NewInvalidCredentialsError cria o erro único de falha de login.
func NewInvalidCredentialsError() AppError {
	return &InvalidCredentialsError{}
}

// UnauthorizedError representa token ausente, malformado ou expirado.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autenticado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return CategoryUnauthorized }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa um usuário autenticado sem o papel necessário.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return CategoryForbidden }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um novo erro de autorização.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// OutOfStockError é a falha da pré-condição de compra (quantity < 1).
type OutOfStockError struct {
	Msg string
}

func (e *OutOfStockError) Error() string    { return fmt.Sprintf("Sem estoque: %s", e.Msg) }
func (e *OutOfStockError) Category() string { return CategoryOutOfStock }
func (e *OutOfStockError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *OutOfStockError) Unwrap() error    { return nil }

// NewOutOfStockError cria um novo erro de estoque esgotado.
func NewOutOfStockError(msg string) AppError {
	return &OutOfStockError{Msg: msg}
}

// InvalidAmountError é a falha da pré-condição de reposição (quantidade ausente ou não positiva).
type InvalidAmountError struct {
	Msg string
}

func (e *InvalidAmountError) Error() string    { return fmt.Sprintf("Quantidade inválida: %s", e.Msg) }
func (e *InvalidAmountError) Category() string { return CategoryInvalidAmount }
func (e *InvalidAmountError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *InvalidAmountError) Unwrap() error    { return nil }

// NewInvalidAmountError cria um novo erro de quantidade inválida.
func NewInvalidAmountError(msg string) AppError {
	return &InvalidAmountError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return CategoryInternal }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helpers ---

// As procura o primeiro AppError na cadeia de erros.
func As(err error) (AppError, bool) {
	if err == nil {
		return nil, false
	}
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CategoryOf devolve a categoria do erro, ou CategoryUnknown se ele não for tipado.
func CategoryOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Category()
	}
	return CategoryUnknown
}

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
// Erros InternalError não expõem a causa subjacente ao cliente.
func MapToHTTPStatus(err error) (int, string, string) {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError, CategoryUnknown, "Ocorreu um erro inesperado."
	}
	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		return appErr.HTTPStatus(), appErr.Category(), "Ocorreu um erro interno no servidor."
	}
	return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
}
