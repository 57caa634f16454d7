package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/report"
	"github.com/famledger/famledger/internal/services"
)

// DashboardHandler assembles the aggregate view from the same
// snapshots the live subscriptions serve.
type DashboardHandler struct {
	transactionService services.TransactionService
	categoryService    services.CategoryService
	familyService      services.FamilyMemberService
}

func NewDashboardHandler(
	transactionService services.TransactionService,
	categoryService services.CategoryService,
	familyService services.FamilyMemberService,
) *DashboardHandler {
	return &DashboardHandler{
		transactionService: transactionService,
		categoryService:    categoryService,
		familyService:      familyService,
	}
}

func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard", h.GetDashboard).Methods("GET")
}

// GetDashboard computes totals, breakdowns and the trend series for
// the requested range (month by default).
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rng := report.Range(r.URL.Query().Get("range"))
	if rng == "" {
		rng = report.RangeMonth
	}
	if !rng.Valid() {
		http.Error(w, "Invalid range", http.StatusBadRequest)
		return
	}

	// Load the snapshots the aggregates are computed from
	transactions, err := h.transactionService.GetTransactions(owner, models.TransactionFilter{})
	if err != nil {
		writeError(w, err)
		return
	}
	categories, err := h.categoryService.GetCategories(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	members, err := h.familyService.GetFamilyMembers(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	dashboard := report.Build(transactions, categories, members, rng, time.Now())
	writeJSON(w, http.StatusOK, dashboard)
}
