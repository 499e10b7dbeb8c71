package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/models"
	"github.com/rs/zerolog"
)

// CreateTransactionService records a new transaction for the user in the
// URL path.
func CreateTransactionService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	username := mux.Vars(r)["username"]

	if _, ok := authorize(svc, w, r, authz.Field(authz.FieldUsername, username)); !ok {
		return
	}

	var payload models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	if payload.Category == "" {
		WriteResponse(w, http.StatusBadRequest, models.Response{
			Success:      0,
			ErrorDetails: "category is required",
		})
		return
	}

	payload.Username = username

	transaction, err := svc.DB.CreateTransaction(&payload)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create transaction in database")
		HandleErrResponse(w, err)
		return
	}

	logger.Info().Str("transaction_id", transaction.ID.String()).Msg("Transaction created successfully")

	location := fmt.Sprintf("%s/%s", r.URL.Path, transaction.ID)
	WriteResponse(w, http.StatusCreated, models.Response{Success: 1, Data: transaction}, location)
}

// GetTransactionsService retrieves all transactions for the user in the
// URL path.
func GetTransactionsService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	username := mux.Vars(r)["username"]

	if _, ok := authorize(svc, w, r, authz.Field(authz.FieldUsername, username)); !ok {
		return
	}

	transactions, err := svc.DB.GetTransactions(username)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to retrieve transactions from database")
		HandleErrResponse(w, err)
		return
	}

	if transactions == nil {
		transactions = []models.Transaction{}
	}

	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: transactions})
}

// GetTransactionService retrieves a single transaction.
func GetTransactionService(svc *Service, w http.ResponseWriter, r *http.Request) {

	transaction, ok := resolveTransaction(svc, w, r)
	if !ok {
		return
	}

	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: transaction})
}

// UpdateTransactionService updates the mutable fields of a transaction.
func UpdateTransactionService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	transaction, ok := resolveTransaction(svc, w, r)
	if !ok {
		return
	}

	var payload models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("Invalid update request payload")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	payload.Username = transaction.Username
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = transaction.OccurredAt
	}

	updated, err := svc.DB.UpdateTransaction(transaction.ID, payload)
	if err != nil {
		logger.Error().Err(err).Msg("Database error updating transaction")
		HandleErrResponse(w, err)
		return
	}

	logger.Info().Str("transaction_id", updated.ID.String()).Msg("Transaction updated successfully")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: updated})
}

// DeleteTransactionService removes a single transaction.
func DeleteTransactionService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	transaction, ok := resolveTransaction(svc, w, r)
	if !ok {
		return
	}

	if err := svc.DB.DeleteTransaction(transaction.ID); err != nil {
		logger.Error().Err(err).Msg("Database error deleting transaction")
		HandleErrResponse(w, err)
		return
	}

	logger.Info().Str("transaction_id", transaction.ID.String()).Msg("Transaction deleted successfully")
	WriteResponse(w, http.StatusNoContent, nil)
}

// resolveTransaction authorizes the caller against the path username,
// parses the transaction ID and checks ownership.
func resolveTransaction(svc *Service, w http.ResponseWriter, r *http.Request) (*models.Transaction, bool) {

	logger := zerolog.Ctx(r.Context())
	vars := mux.Vars(r)
	username := vars["username"]

	if _, ok := authorize(svc, w, r, authz.Field(authz.FieldUsername, username)); !ok {
		return nil, false
	}

	transactionID, err := uuid.Parse(vars["transaction-id"])
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid transaction id")
		WriteResponse(w, http.StatusBadRequest, nil)
		return nil, false
	}

	transaction, err := svc.DB.GetTransaction(transactionID)
	if err != nil {
		logger.Error().Err(err).Msg("Database error retrieving transaction")
		HandleErrResponse(w, err)
		return nil, false
	}
	if transaction == nil || transaction.Username != username {
		WriteResponse(w, http.StatusNotFound, nil)
		return nil, false
	}

	return transaction, true
}
