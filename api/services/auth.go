package services

import (
	"encoding/json"
	"net/http"

	"github.com/ledgerline/finance-services/internal/authn"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/models"
	"github.com/rs/zerolog"
)

// RegisterService creates a new user account with a hashed password.
func RegisterService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	var payload models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		WriteResponse(w, http.StatusBadRequest, models.Response{
			Success:      0,
			ErrorDetails: "username, email and password are required",
		})
		return
	}

	if existing, err := svc.DB.FindUserByUsername(payload.Username); err != nil {
		HandleErrResponse(w, err)
		return
	} else if existing != nil {
		WriteResponse(w, http.StatusConflict, models.Response{
			Success:      0,
			ErrorDetails: "username already exists",
		})
		return
	}

	if existing, err := svc.DB.FindUserByEmail(payload.Email); err != nil {
		HandleErrResponse(w, err)
		return
	} else if existing != nil {
		WriteResponse(w, http.StatusConflict, models.Response{
			Success:      0,
			ErrorDetails: "email already exists",
		})
		return
	}

	hash, err := authn.HashPassword(payload.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	user, err := svc.DB.CreateUser(&models.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         models.RoleRegular,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create user in database")
		HandleErrResponse(w, err)
		return
	}

	logger.Info().Str("username", user.Username).Msg("User registered successfully")
	WriteResponse(w, http.StatusCreated, models.Response{Success: 1, Data: user})
}

// LoginService verifies the credentials and issues an access/refresh
// token pair. The refresh token is stored on the user row so logout can
// invalidate the session, and both tokens are set as cookies.
func LoginService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	var payload models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	user, err := svc.DB.FindUserByUsername(payload.Username)
	if err != nil {
		HandleErrResponse(w, err)
		return
	}
	if user == nil {
		WriteResponse(w, http.StatusUnauthorized, models.Response{
			Success:      0,
			ErrorDetails: "invalid credentials",
		})
		return
	}

	if err := authn.ComparePasswordAndHash(payload.Password, user.PasswordHash); err != nil {
		logger.Warn().Str("username", payload.Username).Msg("Login failed: password mismatch")
		WriteResponse(w, http.StatusUnauthorized, models.Response{
			Success:      0,
			ErrorDetails: "invalid credentials",
		})
		return
	}

	principal := authn.Principal{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}

	access, err := svc.Codec.EncodeAccess(principal)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to sign access token")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	refresh, err := svc.Codec.EncodeRefresh(principal)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to sign refresh token")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	if err := svc.DB.UpdateRefreshToken(user.Username, refresh); err != nil {
		logger.Error().Err(err).Msg("Failed to store refresh token")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	setTokenCookie(w, svc.Config.Auth.AccessCookieName, access, svc.Codec.AccessTTL())
	setTokenCookie(w, svc.Config.Auth.RefreshCookieName, refresh, refreshTTL(svc))

	logger.Info().Str("username", user.Username).Msg("Login successful")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: user})
}

// LogoutService clears the stored refresh token and expires both cookies.
func LogoutService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	result, ok := authorize(svc, w, r, authz.Open())
	if !ok {
		return
	}

	if err := svc.DB.UpdateRefreshToken(result.Principal.Username, ""); err != nil {
		logger.Error().Err(err).Msg("Failed to clear refresh token")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	setTokenCookie(w, svc.Config.Auth.AccessCookieName, "", 0)
	setTokenCookie(w, svc.Config.Auth.RefreshCookieName, "", 0)

	logger.Info().Str("username", result.Principal.Username).Msg("Logout successful")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1})
}
