package checkout

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/shared"
	"github.com/odyssey-erp/storefront/internal/view"
)

// Handler serves the cart pages and the quote API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cart", h.showCart)
	r.Post("/cart", h.addToCart)
	r.Post("/cart/{productID}", h.updateLine)
	r.Post("/cart/{productID}/remove", h.removeLine)
}

// MountAPI registers JSON checkout endpoints.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/checkout/quote", h.quoteJSON)
}

type quoteRequest struct {
	Lines []Line `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) showCart(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	cart, err := LoadCart(sess)
	if err != nil {
		h.log(r).Warn("discard unreadable cart", slog.Any("error", err))
	}

	removed, err := h.service.Reconcile(r.Context(), cart)
	if err != nil {
		h.log(r).Error("reconcile cart", slog.Any("error", err))
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if len(removed) > 0 {
		if err := cart.Save(sess); err != nil {
			h.log(r).Error("save cart", slog.Any("error", err))
		}
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Some products are no longer available and were removed."})
		}
	}

	quote, err := h.service.Quote(r.Context(), cart.Lines())
	if err != nil {
		h.log(r).Error("quote cart", slog.Any("error", err))
		http.Error(w, "Failed to price cart", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/cart.html", map[string]any{"Quote": quote}, http.StatusOK)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	productID, _ := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	quantity, _ := strconv.Atoi(r.PostFormValue("quantity"))
	line := Line{ProductID: productID, Quantity: quantity}
	if err := h.validator.Struct(line); err != nil {
		h.redirectWithFlash(w, r, "/cart", "error", "Choose a product and a quantity of at least 1.")
		return
	}
	if _, err := h.service.Quote(r.Context(), []Line{line}); err != nil {
		h.log(r).Warn("reject cart line", slog.Any("error", err), slog.Int64("product_id", productID))
		h.redirectWithFlash(w, r, "/cart", "error", "That product is not available.")
		return
	}

	h.mutateCart(w, r, func(c *Cart) { c.Add(productID, quantity) }, "Added to cart.")
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	quantity, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil || quantity > MaxLineQuantity {
		h.redirectWithFlash(w, r, "/cart", "error", "Quantity must be between 1 and 999.")
		return
	}
	h.mutateCart(w, r, func(c *Cart) { c.SetQuantity(productID, quantity) }, "Cart updated.")
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product", http.StatusBadRequest)
		return
	}
	h.mutateCart(w, r, func(c *Cart) { c.Remove(productID) }, "Removed from cart.")
}

func (h *Handler) quoteJSON(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	quote, err := h.service.Quote(r.Context(), req.Lines)
	if err != nil {
		if !errors.Is(err, httpx.ErrValidation) {
			h.log(r).Error("quote api", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, mutate func(*Cart), message string) {
	sess := shared.SessionFromContext(r.Context())
	cart, err := LoadCart(sess)
	if err != nil {
		h.log(r).Warn("discard unreadable cart", slog.Any("error", err))
	}
	mutate(cart)
	if err := cart.Save(sess); err != nil {
		h.log(r).Error("save cart", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/cart", "error", "Could not update cart.")
		return
	}
	h.redirectWithFlash(w, r, "/cart", "success", message)
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Namespace()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(sess)
		flash = sess.PopFlash()
	}

	viewData := view.TemplateData{
		Title:       "Cart",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}

	w.WriteHeader(status)
	if err := h.templates.Render(w, tmpl, viewData); err != nil {
		h.log(r).Error("template render failed", slog.Any("error", err), slog.String("template", tmpl))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, flashType, message string) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: flashType, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	return shared.RequestLogger(r.Context(), h.logger)
}
