package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/ogozo/service-storefront/internal/catalog"
)

// DefaultMaxCookieBytes is the Set-Cookie size every browser is required to
// store. Larger cookies may be dropped silently.
const DefaultMaxCookieBytes = 4096

type CookieSettings struct {
	Name   string
	MaxAge time.Duration
	Secure bool
	// MaxBytes bounds the full Set-Cookie value, attributes included.
	MaxBytes int
}

// Handler exposes the cart over HTTP. The cart token lives in a cookie: it is
// read at the start of each request and written at most once at the end.
type Handler struct {
	service *Service
	logger  *zap.Logger
	cookie  CookieSettings
}

func NewHandler(service *Service, logger *zap.Logger, cookie CookieSettings) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cookie.Name == "" {
		cookie.Name = "cart"
	}
	if cookie.MaxBytes <= 0 {
		cookie.MaxBytes = DefaultMaxCookieBytes
	}
	return &Handler{service: service, logger: logger, cookie: cookie}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", h.GetCart)
	mux.HandleFunc("DELETE /cart", h.ClearCart)
	mux.HandleFunc("POST /cart/items/{productId}", h.AddItem)
	mux.HandleFunc("POST /cart/items/{productId}/decrement", h.DecrementItem)
	mux.HandleFunc("DELETE /cart/items/{productId}", h.RemoveItem)
	mux.HandleFunc("POST /checkout", h.Checkout)
	return otelhttp.NewHandler(mux, "cart")
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(r.Context(), h.readToken(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Add)
}

func (h *Handler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Decrement)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Remove)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.writeToken(w, h.service.Clear())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid checkout body"})
		return
	}

	receipt, err := h.service.Checkout(r.Context(), h.readToken(r), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeToken(w, h.service.Clear())
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op func(token, productID string) (string, error)) {
	next, err := op(h.readToken(r), r.PathValue("productId"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	c := h.tokenCookie(next)
	if size := len(c.String()); size > h.cookie.MaxBytes {
		h.writeError(w, fmt.Errorf("%w: cookie of %d bytes exceeds %d", ErrLedgerTooLarge, size, h.cookie.MaxBytes))
		return
	}
	http.SetCookie(w, c)
	w.WriteHeader(http.StatusNoContent)
}

// readToken returns "" for a missing, oversize or undecodable cookie.
func (h *Handler) readToken(r *http.Request) string {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	// an escaped byte takes at most three
	if len(c.Value) > 3*h.service.MaxTokenBytes() {
		h.logger.Warn("ignoring oversize cart cookie", zap.Int("bytes", len(c.Value)))
		return ""
	}
	token, err := url.QueryUnescape(c.Value)
	if err != nil {
		h.logger.Warn("ignoring undecodable cart cookie", zap.Error(err))
		return ""
	}
	return token
}

func (h *Handler) writeToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, h.tokenCookie(token))
}

// tokenCookie stores token URL-escaped; an empty token deletes the cookie.
func (h *Handler) tokenCookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
	} else {
		c.Value = url.QueryEscape(token)
		c.MaxAge = int(h.cookie.MaxAge.Seconds())
	}
	return c
}

type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidProductID), errors.Is(err, ErrInvalidCheckout):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, ErrEmptyCart):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, ErrLedgerTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
	case errors.Is(err, catalog.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "cart is temporarily unavailable", Retryable: true})
	case errors.Is(err, ErrCheckoutDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	default:
		h.logger.Error("cart request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
