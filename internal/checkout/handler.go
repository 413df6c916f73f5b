package checkout

import (
	"context"
	"crypto/subtle"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
	"github.com/frahmantamala/hosted-checkout/internal/transport"
)

// ShopLoader assembles the shop context of a cart: its items, owner and invoice address.
type ShopLoader interface {
	LoadShop(ctx context.Context, cartID int64) (ShopContext, error)
}

type OrderReader interface {
	GetByReference(ctx context.Context, reference string) (*order.Order, error)
}

type Handler struct {
	transport.BaseHandler
	Orchestrator *Orchestrator
	Shops        ShopLoader
	Orders       OrderReader
	Page         *template.Template
	Logger       *slog.Logger
}

func NewHandler(orchestrator *Orchestrator, shops ShopLoader, orders OrderReader, page *template.Template, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:  *transport.NewBaseHandler(logger),
		Orchestrator: orchestrator,
		Shops:        shops,
		Orders:       orders,
		Page:         page,
		Logger:       logger,
	}
}

// HostedCheckout handles GET|POST /checkout/hosted
func (h *Handler) HostedCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings := h.Orchestrator.Settings()

	// cancel wins over whatever else was sent, malformed or not
	params := ParamsFromRequest(r)
	if SelectPhase(params) != PhaseCancel {
		if err := params.Validate(); err != nil {
			h.Logger.Warn("HostedCheckout: invalid parameters", "error", err)
			h.writeOutcome(w, r, Outcome{
				Kind:     KindRedirect,
				Location: settings.CheckoutURL,
				Err:      err,
				Notices:  []Notice{{Level: NoticeError, Message: errorMessage(err)}},
			})
			return
		}
	}

	shop, err := h.loadShop(ctx)
	if err != nil {
		h.Logger.Error("HostedCheckout: failed to load cart", "error", err)
		h.writeOutcome(w, r, Outcome{
			Kind:     KindRedirect,
			Location: settings.CartURL,
			Err:      err,
			Notices:  []Notice{{Level: NoticeError, Message: errorMessage(err)}},
		})
		return
	}

	h.writeOutcome(w, r, h.Orchestrator.Handle(ctx, params, shop))
}

// CreateSession handles POST /api/v1/checkout/session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	shop, err := h.loadShop(r.Context())
	if err != nil {
		h.Logger.Error("CreateSession: failed to load cart", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	out := h.Orchestrator.CreateSession(r.Context(), shop)
	if out.Err != nil {
		h.Logger.Warn("CreateSession: session not created", "cart_id", shop.CartID(), "error", out.Err)
		h.HandleServiceError(w, out.Err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, NewSessionResponse(out.Session))
}

// GetOrder handles GET /api/v1/orders/{reference}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	key := r.URL.Query().Get("key")
	if reference == "" || key == "" {
		h.HandleError(w, errors.NewValidationError("reference and key are required", errors.ErrCodeValidationFailed))
		return
	}

	o, err := h.Orders.GetByReference(r.Context(), reference)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(o.SecureKey)) != 1 {
		h.HandleError(w, errors.ErrOrderNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, order.ToView(o))
}

func (h *Handler) loadShop(ctx context.Context) (ShopContext, error) {
	cartID := errors.CartIDFromContext(ctx)
	if cartID == 0 {
		return ShopContext{}, nil
	}

	shop, err := h.Shops.LoadShop(ctx, cartID)
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			return ShopContext{}, nil
		}
		return ShopContext{}, err
	}
	return shop, nil
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, out Outcome) {
	if out.Kind == KindRender {
		h.renderPage(w, r, out)
		return
	}

	if isXHR(r) {
		if out.Kind == KindSession && out.Session != nil {
			h.WriteJSON(w, http.StatusOK, NewSessionResponse(out.Session))
			return
		}
		status := http.StatusOK
		if appErr, ok := errors.IsAppError(out.Err); ok {
			status = appErr.StatusCode
		}
		h.WriteJSON(w, status, RedirectResponse{RedirectURL: out.Location, Notices: out.Notices})
		return
	}

	setNotices(w, out.Notices)
	http.Redirect(w, r, out.Location, http.StatusSeeOther)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, out Outcome) {
	view := pageView{Page: out.Page, Notices: popNotices(w, r)}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.Page.Execute(w, view); err != nil {
		h.Logger.Error("failed to render payment page", "error", err)
	}
}

func isXHR(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
