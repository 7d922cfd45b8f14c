package sweet

import (
	"net/http"

	"github.com/gorilla/mux"

	"sweetshop/internal/api/response"
	"sweetshop/internal/domain"
	"sweetshop/internal/pkg/logger"
)

// Handler agrupa os endpoints do catálogo.
type Handler struct {
	Service domain.SweetService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc domain.SweetService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// ListHandler lida com GET /sweets.
// @Summary Lista os doces
// @Tags sweets
// @Produce json
// @Success 200 {array} domain.Sweet
// @Failure 500 {object} domain.ErrorResponse
// @Router /sweets [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	sweets, err := h.Service.ListSweets(r.Context())
	response.Handle(w, h.Logger, sweets, err, http.StatusOK)
}

// SearchHandler lida com GET /sweets/search?query=.
// @Summary Busca doces por nome ou categoria
// @Description Substring sem diferenciar maiúsculas; consulta vazia devolve todos.
// @Tags sweets
// @Produce json
// @Param query query string false "Texto buscado"
// @Success 200 {array} domain.Sweet
// @Failure 500 {object} domain.ErrorResponse
// @Router /sweets/search [get]
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	sweets, err := h.Service.SearchSweets(r.Context(), r.URL.Query().Get("query"))
	response.Handle(w, h.Logger, sweets, err, http.StatusOK)
}

// CreateHandler lida com POST /sweets.
// @Summary Cria um doce
// @Tags sweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sweet body domain.SweetInput true "Nome, categoria, preço e quantidade"
// @Success 201 {object} domain.Sweet
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /sweets [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input domain.SweetInput
	if err := response.Decode(w, r, &input); err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	created, err := h.Service.CreateSweet(r.Context(), input)
	response.Handle(w, h.Logger, created, err, http.StatusCreated)
}

// UpdateHandler lida com PUT /sweets/{id}.
// @Summary Atualiza campos de um doce
// @Tags sweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do doce"
// @Param patch body domain.SweetPatch true "Campos a alterar"
// @Success 200 {object} domain.Sweet
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /sweets/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	var patch domain.SweetPatch
	if err := response.Decode(w, r, &patch); err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	updated, err := h.Service.UpdateSweet(r.Context(), mux.Vars(r)["id"], patch)
	response.Handle(w, h.Logger, updated, err, http.StatusOK)
}

// DeleteHandler lida com DELETE /sweets/{id}.
// @Summary Remove um doce
// @Tags sweets
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do doce"
// @Success 200 {object} domain.DeleteConfirmation
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /sweets/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.DeleteSweet(r.Context(), id); err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.JSON(w, http.StatusOK, domain.DeleteConfirmation{Message: "Doce removido com sucesso.", ID: id})
}

// PurchaseHandler lida com POST /sweets/{id}/purchase.
// @Summary Compra uma unidade
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do doce"
// @Success 200 {object} domain.Sweet
// @Failure 400 {object} domain.ErrorResponse "Sem estoque"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /sweets/{id}/purchase [post]
func (h *Handler) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	sweet, err := h.Service.PurchaseSweet(r.Context(), mux.Vars(r)["id"])
	response.Handle(w, h.Logger, sweet, err, http.StatusOK)
}

// RestockHandler lida com POST /sweets/{id}/restock.
// @Summary Repõe o estoque
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do doce"
// @Param restock body domain.RestockRequest true "Quantidade a somar"
// @Success 200 {object} domain.Sweet
// @Failure 400 {object} domain.ErrorResponse "Quantidade inválida"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /sweets/{id}/restock [post]
func (h *Handler) RestockHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RestockRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	sweet, err := h.Service.RestockSweet(r.Context(), mux.Vars(r)["id"], req.Quantity)
	response.Handle(w, h.Logger, sweet, err, http.StatusOK)
}
