package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	"github.com/MKWcorp/berkomunitas-sub005/internal/scheduler"
	"github.com/MKWcorp/berkomunitas-sub005/internal/service"
	apperrors "github.com/MKWcorp/berkomunitas-sub005/pkg/errors"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps the core error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsNotFound(err) || errors.Is(err, gorm.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrInvariantViolation):
		writeError(w, http.StatusConflict, err.Error())
	case apperrors.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrBalanceUpdate && appErr.Err == nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func memberIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "memberID"), 10, 32)
	return uint(id), err
}

type Handler struct {
	awardSvc     *service.AwardService
	reconcileSvc *service.ReconcileService
	scheduler    *scheduler.ReconcileScheduler
}

func New(awardSvc *service.AwardService, reconcileSvc *service.ReconcileService, sched *scheduler.ReconcileScheduler) *Handler {
	return &Handler{awardSvc: awardSvc, reconcileSvc: reconcileSvc, scheduler: sched}
}

// Router assembles the HTTP surface. Boost status and all member reads are
// strictly read-only; every balance mutation goes through the award service.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Idempotency-Key"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/members", h.registerMember)
		r.Get("/members/{memberID}/balance", h.getBalance)
		r.Get("/members/{memberID}/summary", h.getSummary)
		r.Get("/members/{memberID}/transactions", h.listTransactions)

		r.Post("/points/award", h.awardPoints)
		r.Post("/points/redeem", h.redeem)

		r.Get("/boost", h.boostStatus)
		r.Get("/events", h.listEvents)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/points/correct", h.adminCorrect)
			r.Post("/coins/manual", h.adminManualCoins)
			r.Post("/reconcile", h.reconcile)
			r.Post("/reconcile/{memberID}", h.reconcileMember)
			r.Post("/events", h.createEvent)
			r.Put("/events/{settingName}", h.updateEvent)
			r.Delete("/events/{settingName}", h.deleteEvent)
		})
	})

	return r
}

type registerMemberRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *Handler) registerMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	member, err := h.awardSvc.RegisterMember(r.Context(), req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	member, err := h.awardSvc.GetBalance(r.Context(), memberID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	summary, err := h.awardSvc.GetSummary(r.Context(), memberID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	member, err := h.awardSvc.GetBalance(r.Context(), memberID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	entries, err := h.awardSvc.ListTransactions(r.Context(), memberID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member":       member,
		"transactions": entries,
	})
}

type awardRequest struct {
	MemberID       uint   `json:"member_id"`
	BasePoints     int64  `json:"base_points"`
	Event          string `json:"event"`
	EventType      string `json:"event_type"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (h *Handler) awardPoints(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	eventType := models.EventType(req.EventType)
	if eventType == "" {
		eventType = models.EventTypeTaskCompletion
	}
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get("X-Idempotency-Key")
	}
	if key == "" {
		key = uuid.NewString()
	}

	result, err := h.awardSvc.AwardPoints(r.Context(), req.MemberID, req.BasePoints, req.Event, eventType, key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type redeemRequest struct {
	MemberID        uint   `json:"member_id"`
	Cost            int64  `json:"cost"`
	RewardReference string `json:"reward_reference"`
}

func (h *Handler) redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.awardSvc.Redeem(r.Context(), req.MemberID, req.Cost, req.RewardReference)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type correctRequest struct {
	MemberID       uint   `json:"member_id"`
	Amount         int64  `json:"amount"`
	Reason         string `json:"reason"`
	TargetCurrency string `json:"target_currency"`
}

func (h *Handler) adminCorrect(w http.ResponseWriter, r *http.Request) {
	var req correctRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.awardSvc.AdminCorrect(r.Context(), req.MemberID, req.Amount, req.Reason,
		service.TargetCurrency(req.TargetCurrency), models.EventTypeAdminCorrection)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type manualCoinsRequest struct {
	MemberID uint   `json:"member_id"`
	Coins    int64  `json:"coins"`
	Reason   string `json:"reason"`
}

// adminManualCoins is the legacy direct coin adjustment. Same guard rules
// as a correction, distinct admin_manual tag in the history.
func (h *Handler) adminManualCoins(w http.ResponseWriter, r *http.Request) {
	var req manualCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.awardSvc.AdminCorrect(r.Context(), req.MemberID, req.Coins, req.Reason,
		service.CurrencyCoin, models.EventTypeAdminManual)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) boostStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.awardSvc.CurrentBoost(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	status, err := h.awardSvc.CurrentBoost(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": status.Events})
}

type eventRequest struct {
	SettingName  string `json:"setting_name"`
	SettingValue string `json:"setting_value"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Description  string `json:"description"`
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.awardSvc.CreateEvent(r.Context(), req.SettingName, req.SettingValue, req.StartDate, req.EndDate, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.SettingName = chi.URLParam(r, "settingName")

	event, err := h.awardSvc.UpdateEvent(r.Context(), req.SettingName, req.SettingValue, req.StartDate, req.EndDate, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.awardSvc.DeleteEvent(r.Context(), chi.URLParam(r, "settingName")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.scheduler.TriggerManual(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) reconcileMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	repair, err := h.reconcileSvc.ReconcileMember(r.Context(), memberID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if repair == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "consistent"})
		return
	}
	writeJSON(w, http.StatusOK, repair)
}
