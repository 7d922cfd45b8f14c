package domain

import (
	"context"
	"time"
)

// Sweet representa o item do catálogo (a Entidade).
// Quantity é o único contador de estoque mutável e nunca fica negativo.
type Sweet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InStock indica se o doce pode ser comprado.
func (s Sweet) InStock() bool {
	return s.Quantity > 0
}

// SweetInput é o payload de criação. Campos ponteiro distinguem "ausente" de "zero".
type SweetInput struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

// SweetPatch é o payload de atualização parcial: apenas os campos não nulos são aplicados.
type SweetPatch struct {
	Name     *string  `json:"name,omitempty"`
	Category *string  `json:"category,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
}

// IsEmpty indica que nenhum campo foi enviado.
func (p SweetPatch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Quantity == nil
}

// Apply mescla o patch sobre um doce existente e devolve o resultado.
func (p SweetPatch) Apply(s Sweet) Sweet {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	return s
}

// RestockRequest é o payload de reposição de estoque.
// Quantity aceita número ou string numérica; a validação fica no serviço.
type RestockRequest struct {
	Quantity interface{} `json:"quantity" swaggertype:"integer"`
}

// DeleteConfirmation é a resposta de uma exclusão bem-sucedida.
type DeleteConfirmation struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// --- Interfaces de Contrato ---

// SweetRepository é o Catalog Store: a camada de persistência dos doces.
// Purchase e Restock são read-modify-write atômicos por item.
type SweetRepository interface {
	List(ctx context.Context) ([]Sweet, error)
	Search(ctx context.Context, query string) ([]Sweet, error)
	FindByID(ctx context.Context, id string) (Sweet, error)
	Insert(ctx context.Context, sweet Sweet) (Sweet, error)
	Update(ctx context.Context, id string, patch SweetPatch) (Sweet, error)
	Delete(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string) (Sweet, error)
	Restock(ctx context.Context, id string, amount int) (Sweet, error)
}

// SweetService é o Stock Ledger: regras de negócio sobre o catálogo.
type SweetService interface {
	ListSweets(ctx context.Context) ([]Sweet, error)
	SearchSweets(ctx context.Context, query string) ([]Sweet, error)
	CreateSweet(ctx context.Context, input SweetInput) (Sweet, error)
	UpdateSweet(ctx context.Context, id string, patch SweetPatch) (Sweet, error)
	DeleteSweet(ctx context.Context, id string) error
	PurchaseSweet(ctx context.Context, id string) (Sweet, error)
	RestockSweet(ctx context.Context, id string, amount interface{}) (Sweet, error)
}
