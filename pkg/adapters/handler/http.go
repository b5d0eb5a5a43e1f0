package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/qr-redirect/pkg/config"
	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
	"github.com/wadjakorntonsri/qr-redirect/pkg/ports"
)

type HTTPHandler struct {
	store      ports.RedirectStore
	resolver   ports.Resolver
	analytics  ports.Analytics
	baseURL    string
	trustProxy bool
}

func NewHTTPHandler(cfg *config.Config, store ports.RedirectStore, resolver ports.Resolver, analytics ports.Analytics) *HTTPHandler {
	return &HTTPHandler{
		store:      store,
		resolver:   resolver,
		analytics:  analytics,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		trustProxy: cfg.TrustProxy,
	}
}

// ShortenResponse payload
type ShortenResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
	URL      string `json:"url"`
	Location string `json:"location"`
	Style    int    `json:"style"`
	QRCode   string `json:"qr_code,omitempty"` // data:image/png;base64,...
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Landing describes the service
func (h *HTTPHandler) Landing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "qr-redirect",
		"shorten": "GET /shorten?url=<uri>&location=<tag>&style=<int>",
		"resolve": "GET /{id}",
	})
}

// Shorten creates or looks up the id for a destination
func (h *HTTPHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	style := domain.DefaultStyle
	if raw := q.Get("style"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "style must be an integer", http.StatusBadRequest)
			return
		}
		style = n
	}

	id, err := h.store.CreateOrGet(r.Context(), q.Get("url"), q.Get("location"), style)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "Failed to store redirect", http.StatusInternalServerError)
		return
	}

	link, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to read back redirect")
		http.Error(w, "Failed to store redirect", http.StatusInternalServerError)
		return
	}

	resp := ShortenResponse{
		ID:       link.ID,
		ShortURL: h.shortURL(link.ID),
		URL:      link.URL,
		Location: link.Location,
		Style:    int(link.Style),
	}
	if qr, err := qrDataURL(resp.ShortURL); err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to generate QR code")
	} else {
		resp.QRCode = qr
	}

	writeJSON(w, http.StatusOK, resp)
}

// Redirect resolves an id. The analytics event is written before the
// response goes out.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	outcome, err := h.resolver.Resolve(r.Context(), id, ClientInfoFromRequest(r, h.trustProxy))
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !outcome.Found {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	http.Redirect(w, r, outcome.URL, http.StatusFound)
}

// GetRedirect returns the stored record without counting a visit
func (h *HTTPHandler) GetRedirect(w http.ResponseWriter, r *http.Request) {
	link, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Stats returns the number of resolution attempts for an id
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to load stats")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *HTTPHandler) lookup(w http.ResponseWriter, r *http.Request) (*domain.Redirect, bool) {
	link, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	case err != nil:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return link, true
}

func (h *HTTPHandler) shortURL(id string) string {
	return h.baseURL + "/" + id
}
