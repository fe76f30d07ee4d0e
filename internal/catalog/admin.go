package catalog

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/pricing"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Invalidator drops cached listings after a catalog write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// RefreshScheduler queues a background catalog refresh.
type RefreshScheduler interface {
	EnqueueCatalogRefresh(ctx context.Context) error
}

// AdminHandler exposes catalog management as a token-protected JSON API.
type AdminHandler struct {
	logger      *slog.Logger
	store       Store
	writer      Writer
	invalidator Invalidator
	scheduler   RefreshScheduler
	token       string
	validator   *validator.Validate
}

// NewAdminHandler builds AdminHandler. invalidator and scheduler may be nil.
func NewAdminHandler(logger *slog.Logger, store Store, writer Writer, invalidator Invalidator, scheduler RefreshScheduler, token string) *AdminHandler {
	return &AdminHandler{
		logger:      logger,
		store:       store,
		writer:      writer,
		invalidator: invalidator,
		scheduler:   scheduler,
		token:       token,
		validator:   validator.New(),
	}
}

// MountRoutes registers admin routes behind bearer token auth.
func (h *AdminHandler) MountRoutes(r chi.Router) {
	r.Use(h.requireToken)
	r.Post("/products", h.createProduct)
	r.Post("/categories", h.createCategory)
	r.Post("/products/{id}/categories", h.attachCategory)
	r.Post("/products/{id}/offers", h.createOffer)
}

type productPayload struct {
	Name        string `json:"name" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"omitempty,max=200"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"gte=0"`
	Featured    bool   `json:"featured"`
}

type categoryPayload struct {
	Name string `json:"name" validate:"required,max=120"`
	Slug string `json:"slug" validate:"omitempty,max=120"`
}

type attachPayload struct {
	CategoryID int64 `json:"category_id" validate:"required,gt=0"`
}

type offerPayload struct {
	MinQuantity int    `json:"min_quantity" validate:"required,min=1"`
	Price       int64  `json:"price" validate:"gte=0"`
	Kind        string `json:"kind" validate:"omitempty,oneof=unit bundle"`
}

func (h *AdminHandler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		supplied, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !h.tokenMatches(supplied) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenMatches accepts either the configured token or, when the configured
// value is a bcrypt hash, any token hashing to it.
func (h *AdminHandler) tokenMatches(supplied string) bool {
	if strings.HasPrefix(h.token, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(h.token), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(h.token)) == 1
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if !h.decode(w, r, &payload) {
		return
	}
	slug := payload.Slug
	if slug == "" {
		slug = Slugify(payload.Name)
	}
	product, err := h.writer.CreateProduct(r.Context(), Product{
		Name:        payload.Name,
		Slug:        slug,
		Description: payload.Description,
		Price:       payload.Price,
		Featured:    payload.Featured,
	})
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	h.afterWrite(r.Context())
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if !h.decode(w, r, &payload) {
		return
	}
	slug := payload.Slug
	if slug == "" {
		slug = Slugify(payload.Name)
	}
	category, err := h.writer.CreateCategory(r.Context(), Category{Name: payload.Name, Slug: slug})
	if err != nil {
		h.fail(w, "create category", err)
		return
	}
	h.afterWrite(r.Context())
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *AdminHandler) attachCategory(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var payload attachPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.writer.AttachCategory(r.Context(), productID, payload.CategoryID); err != nil {
		h.fail(w, "attach category", err)
		return
	}
	h.afterWrite(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) createOffer(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var payload offerPayload
	if !h.decode(w, r, &payload) {
		return
	}
	kind, err := pricing.ParseOfferKind(payload.Kind)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	product, err := h.store.GetProduct(r.Context(), productID)
	if err != nil {
		h.fail(w, "load product", err)
		return
	}
	existing, err := h.store.GetTiers(r.Context(), productID)
	if err != nil {
		h.fail(w, "load tiers", err)
		return
	}
	offer := pricing.Offer{ProductID: productID, MinQuantity: payload.MinQuantity, Price: payload.Price, Kind: kind}
	if err := pricing.NewTierTable(append(existing, offer)).Validate(product.Price); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.writer.CreateOffer(r.Context(), offer)
	if err != nil {
		h.fail(w, "create offer", err)
		return
	}
	h.afterWrite(r.Context())
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		detail := err.Error()
		if errors.As(err, &fieldErrs) {
			parts := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			detail = strings.Join(parts, "; ")
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return false
	}
	return true
}

func (h *AdminHandler) fail(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicate) {
		h.logger.Error("admin "+op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// afterWrite invalidates listings now and asks the worker to warm them again.
func (h *AdminHandler) afterWrite(ctx context.Context) {
	if h.invalidator != nil {
		if err := h.invalidator.Bump(ctx); err != nil {
			shared.RequestLogger(ctx, h.logger).Warn("bump catalog cache", slog.Any("error", err))
		}
	}
	if h.scheduler != nil {
		if err := h.scheduler.EnqueueCatalogRefresh(ctx); err != nil {
			shared.RequestLogger(ctx, h.logger).Warn("enqueue catalog refresh", slog.Any("error", err))
		}
	}
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid product", "product id must be a positive integer")
		return 0, false
	}
	return id, true
}
