// Package handler exposes the integrity report surface over HTTP. Privileged
// routes sit behind the platform's bearer-token middleware; the token-status
// route is public because the token itself is the credential.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vigil/internal/integrity"
	"vigil/internal/integrity/service"
	"vigil/internal/platform/middleware"
	dErrors "vigil/pkg/domain-errors"
	"vigil/pkg/platform/httputil"
)

// Service defines the operations the handler needs.
type Service interface {
	CreateReport(ctx context.Context, input service.CreateInput) (*service.SubmissionReceipt, error)
	FindByToken(ctx context.Context, token string) (*integrity.TokenStatus, error)
	FindAll(ctx context.Context, filter service.ListFilter) ([]*integrity.Report, error)
	FindByID(ctx context.Context, id uuid.UUID) (*integrity.Report, error)
	Update(ctx context.Context, id uuid.UUID, input service.UpdateInput, actingOfficerID string) (*integrity.Report, error)
}

// Handler wires integrity endpoints to the integrity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an integrity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/integrity/reports", h.HandleSubmit)
	r.Get("/integrity/reports", h.HandleList)
	r.Get("/integrity/reports/{id}", h.HandleGet)
	r.Patch("/integrity/reports/{id}", h.HandleUpdate)
}

// RegisterPublic mounts the token-status endpoint outside the auth stack.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/integrity/reports/status/{token}", h.HandleTokenStatus)
}

// HandleSubmit handles POST /integrity/reports. The caller is authenticated
// to reach this route, but its identity is deliberately never read here.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, err := httputil.Decode[submitRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.service.CreateReport(ctx, service.CreateInput{
		Category:    req.Category,
		Description: req.Description,
		EvidenceLog: req.EvidenceLog,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "report submission failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		AnonymousToken: receipt.AnonymousToken,
		Message:        receipt.Message,
	})
}

// HandleTokenStatus handles GET /integrity/reports/status/{token}.
func (h *Handler) HandleTokenStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.FindByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleList handles GET /integrity/reports with optional status/category
// filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.FindAll(r.Context(), service.ListFilter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]reportResponse, 0, len(reports))
	for _, report := range reports {
		out = append(out, toReportResponse(report))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /integrity/reports/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed report id"))
		return
	}
	report, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReportResponse(report))
}

// HandleUpdate handles PATCH /integrity/reports/{id}, attributing the change
// to the authenticated investigator.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	officerID := middleware.GetOfficerID(ctx)
	if officerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed report id"))
		return
	}

	req, err := httputil.Decode[updateRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	start := time.Now()
	report, err := h.service.Update(ctx, id, service.UpdateInput{
		Status:       req.Status,
		AssignedToID: req.AssignedToID,
		Resolution:   req.Resolution,
	}, officerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "report update failed",
			"request_id", requestID,
			"report_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "report updated",
		"request_id", requestID,
		"report_id", id,
		"status", report.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, toReportResponse(report))
}
