package services

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/internal/events"
	"github.com/ledgerline/finance-services/models"
	"github.com/rs/zerolog"
)

// GetUserService retrieves a single user profile. Accessible to the user
// themselves or to an admin.
func GetUserService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	username := mux.Vars(r)["username"]

	_, ok := authorizeEither(svc, w, r,
		authz.Self(username), authz.Role(models.RoleAdmin))
	if !ok {
		return
	}

	user, err := svc.DB.FindUserByUsername(username)
	if err != nil {
		logger.Error().Err(err).Msg("Database error retrieving user")
		HandleErrResponse(w, err)
		return
	}
	if user == nil {
		logger.Warn().Str("username", username).Msg("User not found")
		WriteResponse(w, http.StatusNotFound, nil)
		return
	}

	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: user})
}

// DeleteUserService removes a user account with all of its transactions
// and its group membership. Accessible to the user themselves or to an
// admin; admin accounts themselves cannot be deleted.
func DeleteUserService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	username := mux.Vars(r)["username"]

	_, ok := authorizeEither(svc, w, r,
		authz.Self(username), authz.Role(models.RoleAdmin))
	if !ok {
		return
	}

	result, err := svc.Reconciler.DeleteUser(username)
	if err != nil {
		logger.Warn().Err(err).Str("username", username).Msg("Failed to delete user")
		HandleErrResponse(w, err)
		return
	}

	if err := svc.Publisher.Publish(events.Event{
		Type:     events.TypeUserDeleted,
		Username: username,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to publish user deletion event")
	}

	logger.Info().
		Str("username", username).
		Int("deleted_transactions", result.DeletedTransactions).
		Bool("deleted_from_group", result.DeletedFromGroup).
		Msg("User deleted successfully")

	WriteResponse(w, http.StatusOK, models.Response{
		Success: 1,
		Data: models.DeleteUserResponse{
			DeletedTransactions: result.DeletedTransactions,
			DeletedFromGroup:    result.DeletedFromGroup,
		},
	})
}
