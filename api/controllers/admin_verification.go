package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nathanrivera/shopstream-backend/api/middleware"
	"github.com/nathanrivera/shopstream-backend/api/responses"
	"github.com/nathanrivera/shopstream-backend/internal/customers"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

// PendingAdmins lists back-office accounts waiting for verification.
func PendingAdmins(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admins, err := svc.ListPendingAdmins(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, admins)
	}
}

// PendingAdminCount returns how many accounts are waiting for verification.
func PendingAdminCount(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.CountPendingAdmins(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"pending": count})
	}
}

// VerifiedAdmins lists the verified back-office accounts.
func VerifiedAdmins(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admins, err := svc.ListVerifiedAdmins(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, admins)
	}
}

// ApproveAdmin verifies a pending account on behalf of the calling admin.
func ApproveAdmin(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		approverID, ok := middleware.CustomerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		adminID, err := uuid.Parse(chi.URLParam(r, "adminID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid admin id"))
			return
		}

		admin, err := svc.ApproveAdmin(r.Context(), adminID, approverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, admin)
	}
}

// RejectAdmin drops a pending account from the verification queue.
func RejectAdmin(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := uuid.Parse(chi.URLParam(r, "adminID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid admin id"))
			return
		}

		if err := svc.RejectAdmin(r.Context(), adminID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "rejected"})
	}
}

// MyAdminApprovals lists the accounts the calling admin has verified.
func MyAdminApprovals(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		approverID, ok := middleware.CustomerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		admins, err := svc.ListAdminApprovals(r.Context(), approverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, admins)
	}
}
