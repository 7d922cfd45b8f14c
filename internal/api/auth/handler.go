package auth

import (
	"net/http"

	"sweetshop/internal/api/response"
	"sweetshop/internal/domain"
	"sweetshop/internal/pkg/logger"
)

// Handler expõe o registro e o login.
type Handler struct {
	Service domain.UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc domain.UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// RegisterHandler lida com a requisição POST /auth/register.
// @Summary Registra um novo usuário
// @Description Cria a conta, guarda o hash da senha e devolve o usuário com um token.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Nome, email e senha"
// @Success 201 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse
// @Router /auth/register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := response.Decode(w, r, &reg); err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	resp, err := h.Service.Register(r.Context(), reg)
	response.Handle(w, h.Logger, resp, err, http.StatusCreated)
}

// LoginHandler lida com a requisição POST /auth/login.
// @Summary Autentica um usuário
// @Description Verifica email e senha e emite um token novo.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body domain.LoginRequest true "Email e senha"
// @Success 200 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	resp, err := h.Service.Login(r.Context(), req)
	response.Handle(w, h.Logger, resp, err, http.StatusOK)
}
