package catalog

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/shared"
	"github.com/odyssey-erp/storefront/internal/view"
)

// Handler serves the home page, the shop listing and the product JSON API.
type Handler struct {
	logger    *slog.Logger
	lister    Lister
	store     Store
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, lister Lister, store Store, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, lister: lister, store: store, templates: templates, csrf: csrf}
}

// MountRoutes registers the storefront pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/shop", h.shop)
}

// MountAPI registers the JSON listing endpoint.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/products", h.listJSON)
}

type shopPage struct {
	Listing    ListResult
	Categories []Category
	Filter     ListFilter
	Heading    string
	LowHighURL string
	HighLowURL string
	PrevURL    string
	NextURL    string
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	listing, err := h.lister.ListProducts(r.Context(), ListFilter{FeaturedOnly: true, Page: 1})
	if err != nil {
		h.log(r).Error("list featured products", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/home.html", "Home", listing, http.StatusOK)
}

func (h *Handler) shop(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r.URL.Query())

	listing, err := h.lister.ListProducts(r.Context(), filter)
	if err != nil {
		h.log(r).Error("list shop products", slog.Any("error", err), slog.String("category", filter.Category))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.log(r).Warn("list categories", slog.Any("error", err))
	}

	page := shopPage{
		Listing:    listing,
		Categories: categories,
		Filter:     filter,
		Heading:    "Featured",
		LowHighURL: shopURL(filter, SortLowHigh, 1),
		HighLowURL: shopURL(filter, SortHighLow, 1),
	}
	if filter.Category != "" {
		page.Heading = filter.Category
		for _, c := range categories {
			if c.Slug == filter.Category {
				page.Heading = c.Name
				break
			}
		}
	}
	pager := shared.NewPagination(listing.Page, PageSize, listing.Total)
	if pager.HasPrev() {
		page.PrevURL = shopURL(filter, filter.Sort, pager.PrevPage())
	}
	if pager.HasNext() {
		page.NextURL = shopURL(filter, filter.Sort, pager.NextPage())
	}

	h.render(w, r, "pages/shop.html", "Shop", page, http.StatusOK)
}

func (h *Handler) listJSON(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r.URL.Query())
	listing, err := h.lister.ListProducts(r.Context(), filter)
	if err != nil {
		h.log(r).Error("list products api", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

// filterFromQuery reads category, sort and page. Without a category the listing
// is restricted to featured products; "featured" forces that restriction.
func filterFromQuery(q url.Values) ListFilter {
	page, _ := strconv.Atoi(q.Get("page"))
	category := q.Get("category")
	return normalizeFilter(ListFilter{
		FeaturedOnly: category == "" || q.Has("featured"),
		Category:     category,
		Sort:         Sort(q.Get("sort")),
		Page:         page,
	})
}

func shopURL(f ListFilter, order Sort, page int) string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
		if f.FeaturedOnly {
			q.Set("featured", "")
		}
	}
	if order != SortDefault {
		q.Set("sort", string(order))
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "/shop"
	}
	return "/shop?" + q.Encode()
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
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
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.log(r).Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	return shared.RequestLogger(r.Context(), h.logger)
}
