package shopper

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     svc,
	}
}

// IssueToken handles POST /api/v1/shopper/token
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var dto TokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.IssueCartToken(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    resp.CartToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.WriteJSON(w, http.StatusOK, resp)
}
