package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/services"
)

type CategoryHandler struct {
	categoryService services.CategoryService
}

func NewCategoryHandler(categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

func (h *CategoryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/categories", h.GetCategories).Methods("GET")
	router.HandleFunc("/categories", h.CreateCategory).Methods("POST")
	router.HandleFunc("/categories/{id}", h.UpdateCategory).Methods("PUT")
	router.HandleFunc("/categories/{id}", h.DeleteCategory).Methods("DELETE")
}

// GetCategories retrieves all categories for the authenticated user.
// An optional type parameter narrows the list to income or expense.
func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Get categories
	categories, err := h.categoryService.GetCategories(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	// Apply the optional type filter
	if flow := r.URL.Query().Get("type"); flow != "" {
		filtered := make([]models.Category, 0, len(categories))
		for _, category := range categories {
			if string(category.Type) == flow {
				filtered = append(filtered, category)
			}
		}
		categories = filtered
	}

	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a new category
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse request body
	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Create category
	category, err := h.categoryService.CreateCategory(owner, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

// UpdateCategory updates an existing category
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Get category ID from URL
	vars := mux.Vars(r)
	id := vars["id"]

	// Parse request body
	var update models.CategoryUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Update category
	category, err := h.categoryService.UpdateCategory(owner, id, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory deletes a category
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Get category ID from URL
	vars := mux.Vars(r)
	id := vars["id"]

	// Delete category
	if err := h.categoryService.DeleteCategory(owner, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}
