// Package response centraliza a serialização JSON e o mapeamento de erros dos handlers.
package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
)

// maxBodyBytes limita o corpo das requisições JSON.
const maxBodyBytes = 1 << 20

// JSON escreve data com o status informado.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error traduz err para status HTTP e corpo domain.ErrorResponse. Só erros 5xx são logados como erro.
func Error(w http.ResponseWriter, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("Erro interno ao processar requisição.", err)
	}
	JSON(w, status, domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// Handle escreve data com successStatus, ou o erro mapeado se err != nil.
func Handle(w http.ResponseWriter, log logger.Logger, data interface{}, err error, successStatus int) {
	if err != nil {
		Error(w, log, err)
		return
	}
	JSON(w, successStatus, data)
}

// Decode lê o corpo JSON em dst. Corpo vazio é tratado como objeto vazio.
// Números ficam como json.Number quando o destino é interface{}.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.UseNumber()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.NewValidationError("Payload JSON inválido.")
	}
	return nil
}
