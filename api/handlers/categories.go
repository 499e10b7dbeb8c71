package handlers

import (
	"net/http"

	"github.com/ledgerline/finance-services/api/services"
)

func GetCategories(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetCategoriesService(svc, w, r)
	}
}

func CreateCategory(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateCategoryService(svc, w, r)
	}
}

func DeleteCategory(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.DeleteCategoryService(svc, w, r)
	}
}
