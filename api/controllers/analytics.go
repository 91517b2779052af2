package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nathanrivera/shopstream-backend/api/middleware"
	"github.com/nathanrivera/shopstream-backend/api/responses"
	"github.com/nathanrivera/shopstream-backend/api/validators"
	"github.com/nathanrivera/shopstream-backend/internal/analytics"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

const defaultDashboardWindow = 24 * time.Hour

type trackVisitRequest struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	SessionID  string     `json:"session_id,omitempty"`
	PageURL    *string    `json:"page_url,omitempty"`
	Referrer   *string    `json:"referrer,omitempty"`
}

type trackActivityRequest struct {
	CustomerID   *uuid.UUID `json:"customer_id,omitempty"`
	ActivityType string     `json:"activity_type" validate:"required"`
	SessionID    string     `json:"session_id,omitempty"`
	PageURL      *string    `json:"page_url,omitempty"`
	ActivityData *string    `json:"activity_data,omitempty"`
}

// resolveCustomer prefers the authenticated identity over the body value so a
// signed-in client cannot attribute events to someone else.
func resolveCustomer(r *http.Request, bodyID *uuid.UUID) (uuid.UUID, bool) {
	if id, ok := middleware.CustomerIDFromContext(r.Context()); ok {
		return id, true
	}
	if bodyID != nil && *bodyID != uuid.Nil {
		return *bodyID, true
	}
	return uuid.Nil, false
}

// TrackVisit records a page visit. Recording failures are logged, never
// surfaced: analytics must not break the storefront.
func TrackVisit(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload trackVisitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, ok := resolveCustomer(r, payload.CustomerID)
		if !ok {
			// anonymous browsing is not tracked
			responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "skipped"})
			return
		}

		ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
		if ip == "" {
			ip = r.RemoteAddr
		}
		userAgent := r.UserAgent()

		input := analytics.VisitInput{
			CustomerID: customerID,
			SessionID:  payload.SessionID,
			PageURL:    payload.PageURL,
			Referrer:   payload.Referrer,
			UserAgent:  &userAgent,
		}
		if ip != "" {
			input.IPAddress = &ip
		}

		if err := svc.RecordVisit(r.Context(), input); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "record visit failed", err)
			}
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "recorded"})
	}
}

// TrackActivity records an arbitrary typed event.
func TrackActivity(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload trackActivityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activityType, err := enums.ParseActivityType(strings.ToUpper(strings.TrimSpace(payload.ActivityType)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown activity type"))
			return
		}

		customerID, ok := resolveCustomer(r, payload.CustomerID)
		if !ok {
			responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "skipped"})
			return
		}

		if err := svc.RecordActivity(r.Context(), analytics.ActivityInput{
			CustomerID:   customerID,
			Type:         activityType,
			SessionID:    payload.SessionID,
			PageURL:      payload.PageURL,
			ActivityData: payload.ActivityData,
		}); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "record activity failed", err)
			}
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "recorded"})
	}
}

// AnalyticsDashboard aggregates event counts by type. Admin only. The since
// query parameter takes RFC 3339; the default window is 24 hours.
func AnalyticsDashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := time.Now().UTC().Add(-defaultDashboardWindow)
		if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "since must be an RFC 3339 timestamp"))
				return
			}
			since = parsed
		}

		summary, err := svc.Summary(r.Context(), since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CustomerActivityList pages through one customer's events. Admin only.
func CustomerActivityList(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}

		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForCustomer(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
