// Package handler exposes the onboarding service to the admin console.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"onboard/internal/onboarding"
	"onboard/internal/onboarding/report"
	"onboard/internal/onboarding/service"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/audit"
	"onboard/pkg/platform/httputil"
	"onboard/pkg/platform/strings"
	"onboard/pkg/requestcontext"
)

// maxReportClients bounds one XLSX export; each distinct client is previewed fresh.
const maxReportClients = 200

type Service interface {
	Evaluate(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error)
	Latest(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error)
	Preview(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error)
	ValidateDocument(ctx context.Context, clientID onboarding.ClientID, documentID onboarding.DocumentID) ([]onboarding.ValidationResult, error)
	AuditTrail(ctx context.Context, clientID onboarding.ClientID) ([]audit.Event, error)
	RescoreAll(ctx context.Context) (*service.RescoreSummary, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/onboarding", func(r chi.Router) {
		r.Route("/clients/{clientID}", func(r chi.Router) {
			r.Post("/evaluate", h.HandleEvaluate)
			r.Get("/evaluation", h.HandleLatest)
			r.Get("/documents/{documentID}/validation", h.HandleValidateDocument)
			r.Get("/audit", h.HandleAuditTrail)
		})
		r.Post("/rescore", h.HandleRescore)
		r.Get("/reports/risk.xlsx", h.HandleRiskReport)
	})
}

// evaluationResponse renames the report to alerts for the console.
type evaluationResponse struct {
	ClientID    onboarding.ClientID           `json:"client_id"`
	Progress    onboarding.OnboardingProgress `json:"progress"`
	Risk        onboarding.RiskAssessment     `json:"risk"`
	Alerts      onboarding.Report             `json:"alerts"`
	EvaluatedAt time.Time                     `json:"evaluated_at"`
}

func toEvaluationResponse(ev *onboarding.Evaluation) evaluationResponse {
	return evaluationResponse{
		ClientID:    ev.ClientID,
		Progress:    ev.Progress,
		Risk:        ev.Risk,
		Alerts:      ev.Report,
		EvaluatedAt: ev.EvaluatedAt,
	}
}

type validationResponse struct {
	ClientID   onboarding.ClientID           `json:"client_id"`
	DocumentID onboarding.DocumentID         `json:"document_id"`
	Results    []onboarding.ValidationResult `json:"results"`
}

type auditTrailResponse struct {
	ClientID onboarding.ClientID `json:"client_id"`
	Events   []audit.Event       `json:"events"`
}

func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(chi.URLParam(r, "clientID"), "client id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ev, err := h.service.Evaluate(r.Context(), onboarding.ClientID(clientID))
	if err != nil {
		h.fail(r, w, "evaluate client", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEvaluationResponse(ev))
}

func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(chi.URLParam(r, "clientID"), "client id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ev, err := h.service.Latest(r.Context(), onboarding.ClientID(clientID))
	if err != nil {
		h.fail(r, w, "load latest evaluation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEvaluationResponse(ev))
}

func (h *Handler) HandleValidateDocument(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(chi.URLParam(r, "clientID"), "client id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	documentID, err := parseID(chi.URLParam(r, "documentID"), "document id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	results, err := h.service.ValidateDocument(r.Context(), onboarding.ClientID(clientID), onboarding.DocumentID(documentID))
	if err != nil {
		h.fail(r, w, "validate document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validationResponse{
		ClientID:   onboarding.ClientID(clientID),
		DocumentID: onboarding.DocumentID(documentID),
		Results:    results,
	})
}

func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(chi.URLParam(r, "clientID"), "client id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.AuditTrail(r.Context(), onboarding.ClientID(clientID))
	if err != nil {
		h.fail(r, w, "list audit trail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, auditTrailResponse{ClientID: onboarding.ClientID(clientID), Events: events})
}

func (h *Handler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RescoreAll(r.Context())
	if err != nil {
		h.fail(r, w, "rescore clients", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleRiskReport evaluates every client_id in the query and streams the
// workbook.
func (h *Handler) HandleRiskReport(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["client_id"]
	if len(raw) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "at least one client_id is required"))
		return
	}
	ids := make([]onboarding.ClientID, 0, len(raw))
	for _, v := range raw {
		id, err := parseID(v, "client_id")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ids = append(ids, onboarding.ClientID(id))
	}
	ids = strings.Dedupe(ids)
	if len(ids) > maxReportClients {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"at most "+strconv.Itoa(maxReportClients)+" clients per report"))
		return
	}

	evaluations := make([]*onboarding.Evaluation, 0, len(ids))
	for _, id := range ids {
		ev, err := h.service.Preview(r.Context(), id)
		if err != nil {
			h.fail(r, w, "preview client for report", err)
			return
		}
		evaluations = append(evaluations, ev)
	}

	f, err := report.Build(evaluations)
	if err != nil {
		h.fail(r, w, "build risk report", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="risk.xlsx"`)
	if _, err := f.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream risk report",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
}

func (h *Handler) fail(r *http.Request, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "request failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"op", op,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a positive integer")
	}
	return id, nil
}
