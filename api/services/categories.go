package services

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/models"
	"github.com/rs/zerolog"
)

// CreateCategoryService defines a new transaction category for the user
// in the URL path.
func CreateCategoryService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	username := mux.Vars(r)["username"]

	if _, ok := authorize(svc, w, r, authz.Field(authz.FieldUsername, username)); !ok {
		return
	}

	var payload models.Category
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	if payload.Name == "" {
		WriteResponse(w, http.StatusBadRequest, models.Response{
			Success:      0,
			ErrorDetails: "category name cannot be empty",
		})
		return
	}

	payload.Username = username

	category, err := svc.DB.CreateCategory(&payload)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create category in database")
		HandleErrResponse(w, err)
		return
	}

	logger.Info().Str("category", category.Name).Msg("Category created successfully")
	WriteResponse(w, http.StatusCreated, models.Response{Success: 1, Data: category})
}

// GetCategoriesService retrieves all categories for the user in the URL
// path.
func GetCategoriesService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	username := mux.Vars(r)["username"]

	if _, ok := authorize(svc, w, r, authz.Field(authz.FieldUsername, username)); !ok {
		return
	}

	categories, err := svc.DB.GetCategories(username)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to retrieve categories from database")
		HandleErrResponse(w, err)
		return
	}

	if categories == nil {
		categories = []models.Category{}
	}

	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: categories})
}

// DeleteCategoryService removes a category owned by the user in the URL
// path.
func DeleteCategoryService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	vars := mux.Vars(r)
	username := vars["username"]

	if _, ok := authorize(svc, w, r, authz.Field(authz.FieldUsername, username)); !ok {
		return
	}

	categoryID, err := uuid.Parse(vars["category-id"])
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid category id")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	if err := svc.DB.DeleteCategory(username, categoryID); err != nil {
		logger.Error().Err(err).Msg("Database error deleting category")
		HandleErrResponse(w, err)
		return
	}

	logger.Info().Str("category_id", categoryID.String()).Msg("Category deleted successfully")
	WriteResponse(w, http.StatusNoContent, nil)
}
