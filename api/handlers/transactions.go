package handlers

import (
	"net/http"

	"github.com/ledgerline/finance-services/api/services"
)

func GetTransactions(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetTransactionsService(svc, w, r)
	}
}

func GetTransaction(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetTransactionService(svc, w, r)
	}
}

func CreateTransaction(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateTransactionService(svc, w, r)
	}
}

func UpdateTransaction(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.UpdateTransactionService(svc, w, r)
	}
}

func DeleteTransaction(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.DeleteTransactionService(svc, w, r)
	}
}
