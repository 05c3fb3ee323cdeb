// Package rest serves the expense operations as plain JSON over HTTP routes,
// for clients that do not speak Connect.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/forkthebill/internal/ingestion"
	"github.com/mmynk/forkthebill/internal/models"
	"github.com/mmynk/forkthebill/internal/service"
	"github.com/mmynk/forkthebill/pkg/api"
	"github.com/mmynk/forkthebill/pkg/api/apiconnect"
)

const (
	maxBodySize = 1 << 20

	// multipart framing and the payerName field on top of the image itself
	maxUploadSize = apiconnect.MaxImageBytes + 64<<10
)

// Handler routes REST requests to an ExpenseService.
type Handler struct {
	svc *service.ExpenseService
}

// NewHandler creates a Handler.
func NewHandler(svc *service.ExpenseService) *Handler {
	return &Handler{svc: svc}
}

// Register adds all expense routes to router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/expense", h.createExpense).Methods(http.MethodPost)
	router.HandleFunc("/expense/upload", h.uploadBill).Methods(http.MethodPost)
	router.HandleFunc("/expense/{slug}", h.getExpense).Methods(http.MethodGet)
	router.HandleFunc("/expense/{slug}", h.updateExpense).Methods(http.MethodPut)
	router.HandleFunc("/expense/{slug}/items/{itemId}/claim", h.claimItem).Methods(http.MethodPost)
	router.HandleFunc("/expense/{slug}/items/{itemId}/claim/{personId}", h.unclaimItem).Methods(http.MethodDelete)
	router.HandleFunc("/expense/{slug}/people", h.addPerson).Methods(http.MethodPost)
	router.HandleFunc("/expense/{slug}/people/{personId}/finish", h.markFinished).Methods(http.MethodPut)
	router.HandleFunc("/expense/{slug}/people/{personId}/pending", h.markPending).Methods(http.MethodPut)
}

// Router returns a new router with all expense routes.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	h.Register(router)
	return router
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req api.CreateExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	params, err := service.CreateParamsFromAPI(&req)
	if err != nil {
		writeError(w, err)
		return
	}
	expense, err := h.svc.Create(r.Context(), params)
	writeExpense(w, http.StatusCreated, expense, err)
}

func (h *Handler) uploadBill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("bill")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bill file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read bill file")
		return
	}

	expense, err := h.svc.CreateFromImage(r.Context(), r.FormValue("payerName"), image, header.Header.Get("Content-Type"))
	writeExpense(w, http.StatusCreated, expense, err)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := h.svc.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	writeExpense(w, http.StatusOK, expense, err)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	params, err := service.UpdateParamsFromAPI(&req)
	if err != nil {
		writeError(w, err)
		return
	}
	expense, err := h.svc.UpdateBySlug(r.Context(), mux.Vars(r)["slug"], params)
	writeExpense(w, http.StatusOK, expense, err)
}

type claimBody struct {
	PersonID string `json:"personId"`
}

func (h *Handler) claimItem(w http.ResponseWriter, r *http.Request) {
	var body claimBody
	if !decode(w, r, &body) {
		return
	}
	if body.PersonID == "" {
		writeJSONError(w, http.StatusBadRequest, "personId is required")
		return
	}
	vars := mux.Vars(r)
	expense, err := h.svc.ClaimItem(r.Context(), vars["slug"], vars["itemId"], body.PersonID)
	writeExpense(w, http.StatusOK, expense, err)
}

func (h *Handler) unclaimItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expense, err := h.svc.UnclaimItem(r.Context(), vars["slug"], vars["itemId"], vars["personId"])
	writeExpense(w, http.StatusOK, expense, err)
}

type personBody struct {
	Name string `json:"name"`
}

func (h *Handler) addPerson(w http.ResponseWriter, r *http.Request) {
	var body personBody
	if !decode(w, r, &body) {
		return
	}
	expense, err := h.svc.AddPerson(r.Context(), mux.Vars(r)["slug"], body.Name)
	writeExpense(w, http.StatusCreated, expense, err)
}

func (h *Handler) markFinished(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expense, err := h.svc.MarkFinished(r.Context(), vars["slug"], vars["personId"])
	writeExpense(w, http.StatusOK, expense, err)
}

func (h *Handler) markPending(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expense, err := h.svc.MarkPending(r.Context(), vars["slug"], vars["personId"])
	writeExpense(w, http.StatusOK, expense, err)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func writeExpense(w http.ResponseWriter, status int, expense *models.Expense, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, service.ToAPIExpense(expense))
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ingestion.ErrIngestion):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("Internal error", "error", err)
		msg = "internal error"
	}
	writeJSONError(w, status, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}
