package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/services"
)

type FamilyMemberHandler struct {
	familyService services.FamilyMemberService
}

func NewFamilyMemberHandler(familyService services.FamilyMemberService) *FamilyMemberHandler {
	return &FamilyMemberHandler{
		familyService: familyService,
	}
}

func (h *FamilyMemberHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/members", h.GetFamilyMembers).Methods("GET")
	router.HandleFunc("/members", h.CreateFamilyMember).Methods("POST")
	router.HandleFunc("/members/{id}", h.UpdateFamilyMember).Methods("PUT")
	router.HandleFunc("/members/{id}", h.DeleteFamilyMember).Methods("DELETE")
}

// GetFamilyMembers retrieves all family members for the authenticated user
func (h *FamilyMemberHandler) GetFamilyMembers(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Get family members
	members, err := h.familyService.GetFamilyMembers(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

// CreateFamilyMember creates a new family member
func (h *FamilyMemberHandler) CreateFamilyMember(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse request body
	var req models.FamilyMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Create family member
	member, err := h.familyService.CreateFamilyMember(owner, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

// UpdateFamilyMember updates an existing family member
func (h *FamilyMemberHandler) UpdateFamilyMember(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Get member ID from URL
	vars := mux.Vars(r)
	id := vars["id"]

	// Parse request body
	var req models.FamilyMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Update family member
	member, err := h.familyService.UpdateFamilyMember(owner, id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

// DeleteFamilyMember deletes a family member
func (h *FamilyMemberHandler) DeleteFamilyMember(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Get member ID from URL
	vars := mux.Vars(r)
	id := vars["id"]

	// Delete family member
	if err := h.familyService.DeleteFamilyMember(owner, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Family member deleted successfully"})
}
