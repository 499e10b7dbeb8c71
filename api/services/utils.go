package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lib/pq"
	"github.com/ledgerline/finance-services/api/middleware"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/internal/membership"
	"github.com/ledgerline/finance-services/models"
	"github.com/rs/zerolog"
)

func WriteResponse(w http.ResponseWriter, statusCode int, response interface{}, location ...string) {

	w.Header().Set("Content-Type", "application/json")

	// We don't want to cache API responses so the client receives most current data
	w.Header().Set("Cache-Control", "max-age=0")

	// Conditionally set the Location header if provided
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}

	w.WriteHeader(statusCode)

	if response != nil {
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	}
}

// HandleErrResponse maps reconciler failures and database faults onto the
// envelope the client expects: 400 for malformed input, 409 for invariant
// conflicts, 404 for missing targets, 500 for everything else.
func HandleErrResponse(w http.ResponseWriter, err error) {
	var validationErr *membership.ValidationError
	var conflictErr *membership.ConflictError
	var notFoundErr *membership.NotFoundError
	var pqErr *pq.Error

	switch {
	case errors.As(err, &validationErr):
		WriteResponse(w, http.StatusBadRequest, models.Response{
			Success:      0,
			ErrorDetails: validationErr.Msg,
		})
	case errors.As(err, &conflictErr):
		WriteResponse(w, http.StatusConflict, models.Response{
			Success:      0,
			ErrorDetails: conflictErr.Msg,
		})
	case errors.As(err, &notFoundErr):
		WriteResponse(w, http.StatusNotFound, models.Response{
			Success:      0,
			ErrorDetails: notFoundErr.Msg,
		})
	case errors.As(err, &pqErr):
		WriteResponse(w, http.StatusInternalServerError, models.Response{
			Success:      0,
			ErrorCode:    pqErr.Code.Name(),
			ErrorDetails: pqErr.Message,
		})
	default:
		WriteResponse(w, http.StatusInternalServerError, models.Response{
			Success:      0,
			ErrorDetails: err.Error(),
		})
	}
}

// authorize runs a single verification against the credentials in the
// request context. On success any refreshed access token is forwarded as
// a cookie; on failure a 401 is written and ok is false.
func authorize(svc *Service, w http.ResponseWriter, r *http.Request, mode authz.Mode) (authz.Result, bool) {
	result := verify(svc, r, mode)

	if !result.Authorized {
		logger := zerolog.Ctx(r.Context())
		logger.Warn().Str("reason", result.Reason).Msg("Unauthorized request")
		WriteResponse(w, http.StatusUnauthorized, models.Response{
			Success:      0,
			ErrorDetails: result.Reason,
		})
		return result, false
	}

	forwardRefreshedAccess(svc, w, result)
	return result, true
}

// authorizeEither accepts a request that passes either of two modes, the
// composition endpoints use for "self or admin" access. The first
// authorized result wins; if both fail the first rejection is reported.
func authorizeEither(svc *Service, w http.ResponseWriter, r *http.Request, first, second authz.Mode) (authz.Result, bool) {
	resultA := verify(svc, r, first)
	if resultA.Authorized {
		forwardRefreshedAccess(svc, w, resultA)
		return resultA, true
	}

	resultB := verify(svc, r, second)
	if resultB.Authorized {
		forwardRefreshedAccess(svc, w, resultB)
		return resultB, true
	}

	logger := zerolog.Ctx(r.Context())
	logger.Warn().
		Str("reason", resultA.Reason).
		Str("fallback_reason", resultB.Reason).
		Msg("Unauthorized request")
	WriteResponse(w, http.StatusUnauthorized, models.Response{
		Success:      0,
		ErrorDetails: resultA.Reason,
	})
	return resultA, false
}

func verify(svc *Service, r *http.Request, mode authz.Mode) authz.Result {
	access, refresh := middleware.Tokens(r.Context())
	return svc.Verifier.Verify(access, refresh, mode)
}

func forwardRefreshedAccess(svc *Service, w http.ResponseWriter, result authz.Result) {
	if result.RefreshedAccess == "" {
		return
	}
	setTokenCookie(w, svc.Config.Auth.AccessCookieName, result.RefreshedAccess, svc.Codec.AccessTTL())
}

func refreshTTL(svc *Service) time.Duration {
	return time.Duration(svc.Config.Auth.RefreshTTLHours) * time.Hour
}

func setTokenCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, cookie)
}
