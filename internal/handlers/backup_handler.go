package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/famledger/famledger/internal/services"
)

// maxImportSize caps uploaded backup files at 10 MB.
const maxImportSize = 10 << 20

type BackupHandler struct {
	backupService services.BackupService
}

func NewBackupHandler(backupService services.BackupService) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
	}
}

func (h *BackupHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/export/json", h.ExportJSON).Methods("GET")
	router.HandleFunc("/export/csv", h.ExportCSV).Methods("GET")
	router.HandleFunc("/import", h.Import).Methods("POST")
}

// ExportJSON downloads the full backup document.
func (h *BackupHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	doc, err := h.backupService.ExportJSON(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/json")
	w.Header().Set("Content-Disposition", exportFilename("json"))
	json.NewEncoder(w).Encode(doc)
}

// ExportCSV downloads the transaction table as a spreadsheet.
func (h *BackupHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := h.backupService.ExportCSV(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", exportFilename("csv"))
	w.Write(data)
}

// Import restores an uploaded backup additively. The upload may be a
// raw JSON body or a multipart file field named "file".
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context
	owner, err := ownerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := readImportBody(r)
	if err != nil {
		http.Error(w, "Could not read upload", http.StatusBadRequest)
		return
	}

	summary, err := h.backupService.ImportJSON(owner, data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func readImportBody(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxImportSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	return io.ReadAll(r.Body)
}

func exportFilename(ext string) string {
	stamp := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`attachment; filename="famledger-export-%s.%s"`, stamp, ext)
}
