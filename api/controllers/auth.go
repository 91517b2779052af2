package controllers

import (
	"net/http"
	"time"

	"github.com/nathanrivera/shopstream-backend/api/middleware"
	"github.com/nathanrivera/shopstream-backend/api/responses"
	"github.com/nathanrivera/shopstream-backend/api/validators"
	"github.com/nathanrivera/shopstream-backend/internal/customers"
	pkgAuth "github.com/nathanrivera/shopstream-backend/pkg/auth"
	"github.com/nathanrivera/shopstream-backend/pkg/config"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

type signupRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=50"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	FirstName   string  `json:"first_name" validate:"required"`
	LastName    string  `json:"last_name" validate:"required"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
	User      *customers.CustomerDTO `json:"user,omitempty"`
	UserID    string                 `json:"user_id"`
	Role      string                 `json:"role"`
}

// CustomerSignup registers a customer account.
func CustomerSignup(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload signupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Signup(r.Context(), customers.SignupInput{
			Username:    payload.Username,
			Email:       payload.Email,
			Password:    payload.Password,
			FirstName:   payload.FirstName,
			LastName:    payload.LastName,
			PhoneNumber: payload.PhoneNumber,
			Address:     payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

type adminSignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
}

// AdminSignup registers a back-office account. New accounts wait in the
// verification queue until an existing admin approves them.
func AdminSignup(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adminSignupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		admin, err := svc.AdminSignup(r.Context(), customers.AdminSignupInput{
			Username: payload.Username,
			Email:    payload.Email,
			Password: payload.Password,
			FullName: payload.FullName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, admin)
	}
}

// CustomerLogin authenticates a customer and mints an access token.
func CustomerLogin(svc customers.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		principal, err := svc.Authenticate(r.Context(), payload.Login, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeLoginResponse(w, r, svc, jwtCfg, logg, principal, true)
	}
}

// AdminLogin authenticates an administrator and mints an access token.
func AdminLogin(svc customers.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		principal, err := svc.AuthenticateAdmin(r.Context(), payload.Login, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeLoginResponse(w, r, svc, jwtCfg, logg, principal, false)
	}
}

func writeLoginResponse(w http.ResponseWriter, r *http.Request, svc customers.Service, jwtCfg config.JWTConfig, logg *logger.Logger, principal *customers.Principal, includeProfile bool) {
	now := time.Now().UTC()
	token, err := pkgAuth.MintAccessToken(jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: principal.ID,
		Role:   principal.Role,
	})
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
		return
	}

	resp := loginResponse{
		Token:     token,
		ExpiresAt: now.Add(jwtCfg.Expiration()),
		UserID:    principal.ID.String(),
		Role:      string(principal.Role),
	}
	if includeProfile {
		if profile, err := svc.GetProfile(r.Context(), principal.ID); err == nil {
			resp.User = profile
		}
	}
	responses.WriteSuccess(w, resp)
}

// ValidateToken reports the identity behind a bearer token. It sits behind
// the auth middleware, so reaching the handler means the token is valid.
func ValidateToken(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"user_id": userID,
			"role":    middleware.RoleFromContext(r.Context()),
		})
	}
}

type updateProfileRequest struct {
	FirstName          *string `json:"first_name,omitempty"`
	LastName           *string `json:"last_name,omitempty"`
	PhoneNumber        *string `json:"phone_number,omitempty"`
	Address            *string `json:"address,omitempty"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	SMSNotifications   *bool   `json:"sms_notifications,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword rotates the authenticated customer's password.
func ChangePassword(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := middleware.CustomerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload changePasswordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ChangePassword(r.Context(), customerID, payload.CurrentPassword, payload.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// GetProfile returns the authenticated customer's profile.
func GetProfile(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := middleware.CustomerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		profile, err := svc.GetProfile(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UpdateProfile applies partial changes to the authenticated customer's profile.
func UpdateProfile(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := middleware.CustomerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), customerID, customers.UpdateProfileInput{
			FirstName:          payload.FirstName,
			LastName:           payload.LastName,
			PhoneNumber:        payload.PhoneNumber,
			Address:            payload.Address,
			EmailNotifications: payload.EmailNotifications,
			SMSNotifications:   payload.SMSNotifications,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
