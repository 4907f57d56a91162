// Package dashboard serves the company directory JSON API.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/listing"
	"github.com/odyssey-erp/companydir/internal/platform/httpx"
	"github.com/odyssey-erp/companydir/internal/view"
)

// Service is the repository facade consumed by the handlers.
type Service interface {
	List(ctx context.Context, filters company.Filters) ([]company.Company, error)
	Get(ctx context.Context, id string) (company.Company, error)
	Create(ctx context.Context, attrs company.Attributes) (company.Company, error)
	Update(ctx context.Context, id string, patch company.Patch) (company.Company, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) company.BulkResult
	Reseed(ctx context.Context, dataset []company.Company) (int, error)
}

// Enqueuer hands reseeds and large deletes to the background worker.
type Enqueuer interface {
	EnqueueReseed(ctx context.Context) (string, error)
	EnqueueBulkDelete(ctx context.Context, ids []string) (string, error)
}

// Recorder counts mutation outcomes.
type Recorder interface {
	ObserveMutation(kind, outcome string)
}

// Config wires a Handler.
type Config struct {
	Service Service
	// Enqueuer is optional; without it seeding runs inline.
	Enqueuer Enqueuer
	Hub      *Hub
	// Views renders the directory page. Without it the page is not served.
	Views   *view.Engine
	Metrics Recorder
	Logger  *slog.Logger
	Now     func() time.Time
}

// Handler serves /api.
type Handler struct {
	svc      Service
	enqueuer Enqueuer
	hub      *Hub
	views    *view.Engine
	metrics  Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		svc:      cfg.Service,
		enqueuer: cfg.Enqueuer,
		hub:      cfg.Hub,
		views:    cfg.Views,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.hub == nil {
		h.hub = NewHub(h.logger)
	}
	return h
}

// MountRoutes attaches the request/response routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/view", h.view)
		r.Post("/bulk-delete", h.bulkDelete)
		r.Post("/seed", h.seed)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

// MountStream attaches the long-lived event stream. It is kept apart from
// MountRoutes so request timeouts do not cut the stream.
func (h *Handler) MountStream(r chi.Router) {
	r.Get("/events", h.hub.ServeSSE)
}

type listResponse struct {
	Companies []company.Company `json:"companies"`
}

type mutationResponse struct {
	Company company.Company `json:"company"`
	Message string          `json:"message"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type bulkDeleteResult struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

type bulkDeleteResponse struct {
	Results []bulkDeleteResult `json:"results"`
	Deleted int                `json:"deleted"`
	Failed  []string           `json:"failed"`
	Message string             `json:"message"`
}

type queuedResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

type seedResponse struct {
	TaskID  string `json:"task_id,omitempty"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	companies, err := h.svc.List(r.Context(), company.Filters{
		Search:   q.Get(listing.ParamSearch),
		Industry: q.Get(listing.ParamIndustry),
	}.Normalize())
	if err != nil {
		h.fail(w, "load", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Companies: companies})
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	state := listing.DecodeState(r.URL.Query())
	all, err := h.svc.List(r.Context(), company.Filters{})
	if err != nil {
		h.fail(w, "load", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newViewResponse(listing.Build(all, state), h.now()))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "load", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.decodeAttributes(w, r)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	created, err := h.svc.Create(r.Context(), attrs)
	h.observe("create", err)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	h.logger.Info("company created", slog.String("id", created.ID))
	httpx.JSON(w, http.StatusCreated, mutationResponse{
		Company: created,
		Message: `Company "` + created.Name + `" created successfully!`,
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch company.Patch
	if isForm(r) {
		attrs, err := h.decodeAttributes(w, r)
		if err != nil {
			h.fail(w, "update", err)
			return
		}
		patch = company.PatchFrom(attrs)
	} else if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		h.fail(w, "update", err)
		return
	}
	updated, err := h.svc.Update(r.Context(), id, patch)
	h.observe("update", err)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	h.logger.Info("company updated", slog.String("id", id))
	httpx.JSON(w, http.StatusOK, mutationResponse{
		Company: updated,
		Message: `Company "` + updated.Name + `" updated successfully!`,
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.svc.Delete(r.Context(), id)
	h.observe("delete", err)
	if err != nil {
		h.fail(w, "delete", err)
		return
	}
	h.logger.Info("company deleted", slog.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("async") == "true" && h.enqueuer != nil {
		id, err := h.enqueuer.EnqueueBulkDelete(r.Context(), req.IDs)
		if err != nil {
			h.logger.Error("enqueue bulk delete", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", company.UserMessage("delete", err))
			return
		}
		httpx.JSON(w, http.StatusAccepted, queuedResponse{TaskID: id, Message: "Deletion queued."})
		return
	}
	res := h.svc.BulkDelete(r.Context(), req.IDs)
	out := bulkDeleteResponse{
		Results: make([]bulkDeleteResult, 0, len(res.Results)),
		Deleted: res.Deleted(),
		Failed:  res.Failed(),
		Message: res.Message(),
	}
	if out.Failed == nil {
		out.Failed = []string{}
	}
	for _, item := range res.Results {
		entry := bulkDeleteResult{ID: item.ID}
		if item.Err != nil {
			entry.Error = company.UserMessage("delete", item.Err)
		}
		out.Results = append(out.Results, entry)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer != nil {
		id, err := h.enqueuer.EnqueueReseed(r.Context())
		if err != nil {
			h.logger.Error("enqueue reseed", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to seed dummy data. Please try again.")
			return
		}
		httpx.JSON(w, http.StatusAccepted, seedResponse{TaskID: id, Message: "Seeding queued."})
		return
	}
	dataset, err := company.SeedDataset()
	if err == nil {
		var n int
		if n, err = h.svc.Reseed(r.Context(), dataset); err == nil {
			httpx.JSON(w, http.StatusOK, seedResponse{Count: n, Message: company.SeedMessage(n)})
			return
		}
	}
	h.logger.Error("reseed companies", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "Failed to seed dummy data. Please try again.")
}

// decodeAttributes reads a JSON body, or a submitted simple or advanced
// form. Form submissions choose the advanced form with mode=advanced.
func (h *Handler) decodeAttributes(w http.ResponseWriter, r *http.Request) (company.Attributes, error) {
	if !isForm(r) {
		var attrs company.Attributes
		err := httpx.DecodeJSON(w, r, &attrs)
		return attrs, err
	}
	if err := r.ParseForm(); err != nil {
		return company.Attributes{}, errors.Join(httpx.ErrBadRequest, err)
	}
	if r.PostForm.Get("mode") == "advanced" {
		return company.RichFormFromValues(r.PostForm).Attributes()
	}
	return company.SimpleFormFromValues(r.PostForm).Attributes()
}

func (h *Handler) observe(kind string, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "confirmed"
	switch {
	case errors.Is(err, company.ErrValidation):
		outcome = "rejected"
	case err != nil:
		outcome = "failed"
	}
	h.metrics.ObserveMutation(kind, outcome)
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data")
}

// fail maps domain errors onto problem responses carrying the user-facing
// message for op.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, company.ErrValidation), errors.Is(err, httpx.ErrBadRequest):
		httpx.RespondError(w, err)
	case errors.Is(err, company.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", company.UserMessage(op, err))
	case errors.Is(err, company.ErrPersistence):
		h.logger.Error("company store", slog.String("op", op), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", company.UserMessage(op, err))
	default:
		h.logger.Error("company request", slog.String("op", op), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", company.UserMessage(op, err))
	}
}
