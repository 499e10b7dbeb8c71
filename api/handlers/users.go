package handlers

import (
	"net/http"

	"github.com/ledgerline/finance-services/api/services"
)

func GetUser(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetUserService(svc, w, r)
	}
}

func DeleteUser(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.DeleteUserService(svc, w, r)
	}
}
