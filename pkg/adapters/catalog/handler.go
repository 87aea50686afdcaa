package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// NewHandler exposes repo as a read-only HTTP API:
//
//	GET /api/beers                (searchTerm, breweryId, breweryName, country,
//	                               categoryId, categoryName, styleId, styleName,
//	                               minAbv, maxAbv; repeatable)
//	GET /api/beers/{id}
//	GET /api/breweries            (country; repeatable)
//	GET /api/breweries/countries
//	GET /api/categories
//	GET /api/styles               (categoryId; repeatable)
func NewHandler(repo *Repository, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &apiHandler{repo: repo, logger: logger}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/beers", h.listBeers)
		r.Get("/beers/{id}", h.getBeer)
		r.Get("/breweries", h.listBreweries)
		r.Get("/breweries/countries", h.listCountries)
		r.Get("/categories", h.listCategories)
		r.Get("/styles", h.listStyles)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

type apiHandler struct {
	repo   *Repository
	logger *slog.Logger
}

func (h *apiHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("catalog: response encode failed", "err", err)
	}
}

func intParams(r *http.Request, name string) ([]int, bool) {
	var out []int
	for _, raw := range r.URL.Query()[name] {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func floatParam(r *http.Request, name string) (*float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func (h *apiHandler) listBeers(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := Query{
		SearchTerms:   qs["searchTerm"],
		BreweryNames:  qs["breweryName"],
		Countries:     qs["country"],
		CategoryNames: qs["categoryName"],
		StyleNames:    qs["styleName"],
	}

	var ok bool
	if q.BreweryIDs, ok = intParams(r, "breweryId"); !ok {
		http.Error(w, "invalid breweryId", http.StatusBadRequest)
		return
	}
	if q.CategoryIDs, ok = intParams(r, "categoryId"); !ok {
		http.Error(w, "invalid categoryId", http.StatusBadRequest)
		return
	}
	if q.StyleIDs, ok = intParams(r, "styleId"); !ok {
		http.Error(w, "invalid styleId", http.StatusBadRequest)
		return
	}
	if q.MinABV, ok = floatParam(r, "minAbv"); !ok {
		http.Error(w, "invalid minAbv", http.StatusBadRequest)
		return
	}
	if q.MaxABV, ok = floatParam(r, "maxAbv"); !ok {
		http.Error(w, "invalid maxAbv", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.repo.Beers(q))
}

func (h *apiHandler) getBeer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	beer, ok := h.repo.Beer(id)
	if !ok {
		http.Error(w, "beer not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, beer)
}

func (h *apiHandler) listBreweries(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.repo.Breweries(r.URL.Query()["country"]))
}

func (h *apiHandler) listCountries(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.repo.CountryNames())
}

func (h *apiHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, _ := h.repo.Categories(r.Context())
	h.writeJSON(w, http.StatusOK, categories)
}

func (h *apiHandler) listStyles(w http.ResponseWriter, r *http.Request) {
	ids, ok := intParams(r, "categoryId")
	if !ok {
		http.Error(w, "invalid categoryId", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.repo.Styles(ids))
}
