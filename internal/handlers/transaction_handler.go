package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/services"
)

type TransactionHandler struct {
	transactionService services.TransactionService
}

func NewTransactionHandler(transactionService services.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transactions", h.GetTransactions).Methods("GET")
	router.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	router.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods("PUT")
	router.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")
}

// GetTransactions retrieves the user's transactions, newest first,
// narrowed by the query parameters.
func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse filters from the query string
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// Get transactions
	transactions, err := h.transactionService.GetTransactions(owner, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transactions)
}

// CreateTransaction creates a new transaction
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse request body
	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Create transaction
	transaction, err := h.transactionService.CreateTransaction(owner, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction updates an existing transaction
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Get transaction ID from URL
	vars := mux.Vars(r)
	id := vars["id"]

	// Parse request body
	var update models.TransactionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Update transaction
	transaction, err := h.transactionService.UpdateTransaction(owner, id, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction removes a transaction
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Get transaction ID from URL
	vars := mux.Vars(r)
	id := vars["id"]

	// Delete transaction
	if err := h.transactionService.DeleteTransaction(owner, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

// parseTransactionFilter reads the supported query parameters. month
// and year are conveniences that expand to a from/to range; explicit
// from/to win over both.
func parseTransactionFilter(r *http.Request) (models.TransactionFilter, error) {
	q := r.URL.Query()
	filter := models.TransactionFilter{
		Type:       models.FlowType(q.Get("type")),
		CategoryID: q.Get("category"),
		MemberID:   q.Get("member"),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return filter, common.NewValidationError("type", "must be income or expense")
	}

	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return filter, common.NewValidationError("year", "must be a four digit year")
		}
		filter.From = models.NewDate(year, time.January, 1)
		filter.To = models.NewDate(year, time.December, 31)
	}
	if v := q.Get("month"); v != "" {
		first, err := time.Parse("2006-01", v)
		if err != nil {
			return filter, common.NewValidationError("month", "must look like 2006-01")
		}
		filter.From = models.DateOf(first)
		filter.To = models.DateOf(first.AddDate(0, 1, -1))
	}
	if v := q.Get("from"); v != "" {
		from, err := models.ParseDate(v)
		if err != nil {
			return filter, common.NewValidationError("from", "must look like 2006-01-02")
		}
		filter.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := models.ParseDate(v)
		if err != nil {
			return filter, common.NewValidationError("to", "must look like 2006-01-02")
		}
		filter.To = to
	}

	return filter, nil
}
