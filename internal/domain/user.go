package domain

import (
	"context"
	"time"
)

// User representa a entidade do usuário no sistema.
// Email é único (sensível a maiúsculas); IsAdmin é fixado na criação.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRole é um tipo string para representar o papel do usuário no token.
type UserRole string

// Constantes para os papéis de usuário
const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// Role deriva o papel a partir da flag IsAdmin.
func (u User) Role() UserRole {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse é a visão pública do usuário somada ao token emitido.
type AuthResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	Token    string `json:"token"`
}

// Identity é o resultado de um token válido: quem chama e com qual papel.
type Identity struct {
	UserID string
	Role   UserRole
}

// IsAdmin indica se a identidade tem papel de administrador.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// UserRepository é o Credential Store.
type UserRepository interface {
	Save(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

// UserService é o Auth Service.
type UserService interface {
	Register(ctx context.Context, registration UserRegistration) (AuthResponse, error)
	Login(ctx context.Context, credentials LoginRequest) (AuthResponse, error)
	Verify(token string) (Identity, error)
}
