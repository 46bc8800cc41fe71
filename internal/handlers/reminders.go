package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/dsemenov/remindd/internal/database"
	"github.com/dsemenov/remindd/internal/models"
	"github.com/dsemenov/remindd/internal/request"
	"github.com/dsemenov/remindd/internal/schedule"
	"github.com/dsemenov/remindd/internal/validation"
)

// ReminderHandler handles reminder-related requests
type ReminderHandler struct {
	reminders database.ReminderRepositoryInterface
	owners    database.OwnerRepositoryInterface
	svc       *schedule.Service
	clock     schedule.Clock
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminders database.ReminderRepositoryInterface, owners database.OwnerRepositoryInterface, svc *schedule.Service, clock schedule.Clock) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, owners: owners, svc: svc, clock: clock}
}

// RegisterRoutes registers reminder routes on the given router
// The router should already have the /reminders prefix (e.g., from apiRouter.PathPrefix("/reminders"))
func (h *ReminderHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListReminders).Methods("GET")
	r.HandleFunc("", h.CreateReminder).Methods("POST")
	r.HandleFunc("/{id}", h.GetReminder).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateReminder).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteReminder).Methods("DELETE")
}

const (
	// MaxReminderTextLength is the maximum length for reminder text
	MaxReminderTextLength = 4096
)

// CreateReminderRequest represents a create reminder request
type CreateReminderRequest struct {
	DueDate string `json:"due_date" validate:"required,due_date"`
	DueTime string `json:"due_time" validate:"required,due_time"`
	Kind    string `json:"kind" validate:"omitempty,payload_kind"`
	Text    string `json:"text"`
	FileRef string `json:"file_ref,omitempty"`
}

// UpdateReminderRequest represents an update reminder request
type UpdateReminderRequest struct {
	Text    *string `json:"text,omitempty"`
	DueDate *string `json:"due_date,omitempty"`
	DueTime *string `json:"due_time,omitempty"`
}

// ListRemindersResponse represents the response for listing reminders
type ListRemindersResponse struct {
	Reminders []*models.Reminder `json:"reminders"`
	Total     int                `json:"total"`
}

// ListReminders lists pending reminders for the token's owner
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	claims := request.ClaimsFromContext(r)
	if claims == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Claims not found in context")
		return
	}

	reminders, err := h.reminders.ListByOwner(r.Context(), claims.OwnerID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve reminders")
		return
	}

	respondJSON(w, http.StatusOK, ListRemindersResponse{
		Reminders: reminders,
		Total:     len(reminders),
	})
}

// CreateReminder stores a new reminder and arms today's trigger when the
// reminder lands on the current day
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	claims := request.ClaimsFromContext(r)
	if claims == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Claims not found in context")
		return
	}

	var req CreateReminderRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.Kind == "" {
		req.Kind = string(models.KindText)
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	dueDate, _ := models.ParseDate(req.DueDate)
	dueTime, _ := models.ParseClockTime(req.DueTime)
	kind := models.PayloadKind(req.Kind)

	req.Text = validation.SanitizeText(req.Text)
	if kind == models.KindText && req.Text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required for text reminders")
		return
	}
	if len(req.Text) > MaxReminderTextLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Text exceeds maximum length of %d characters", MaxReminderTextLength))
		return
	}
	if kind.RequiresFile() && req.FileRef == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("file_ref is required for %s reminders", kind))
		return
	}

	if h.isPast(dueDate, dueTime) {
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "Reminder instant is in the past")
		return
	}

	ctx := r.Context()
	owner, err := h.owners.GetOrCreate(ctx, claims.OwnerID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load owner")
		return
	}
	if !owner.CanStore(kind) {
		if kind != models.KindText && !owner.Premium {
			respondJSONError(w, http.StatusForbidden, "Forbidden", "Media reminders require a premium account")
			return
		}
		respondJSONError(w, http.StatusForbidden, "Forbidden", fmt.Sprintf("Reminder limit of %d reached", models.MaxRemindersFree))
		return
	}

	rem := &models.Reminder{
		OwnerID: claims.OwnerID,
		DueDate: dueDate,
		DueTime: dueTime,
		Kind:    kind,
		Text:    req.Text,
		FileRef: req.FileRef,
	}

	if err := h.reminders.Insert(ctx, rem); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create reminder")
		return
	}

	if rem.DueOn(h.svc.Today()) {
		h.svc.PushToday(rem)
	}

	respondJSON(w, http.StatusCreated, rem)
}

// GetReminder retrieves a reminder by ID
func (h *ReminderHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	claims := request.ClaimsFromContext(r)
	if claims == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Claims not found in context")
		return
	}

	rem, ok := h.fetchOwned(w, r, claims.OwnerID)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, rem)
}

// UpdateReminder updates an existing reminder and reconciles today's view
func (h *ReminderHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	claims := request.ClaimsFromContext(r)
	if claims == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Claims not found in context")
		return
	}

	rem, ok := h.fetchOwned(w, r, claims.OwnerID)
	if !ok {
		return
	}

	var req UpdateReminderRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	newDate := rem.DueDate
	newTime := rem.DueTime
	var newText *string

	if req.Text != nil {
		sanitized := validation.SanitizeText(*req.Text)
		if rem.Kind == models.KindText && sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxReminderTextLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Text exceeds maximum length of %d characters", MaxReminderTextLength))
			return
		}
		newText = &sanitized
	}
	if req.DueDate != nil {
		parsed, err := models.ParseDate(*req.DueDate)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid due_date, expected YYYY-MM-DD")
			return
		}
		newDate = parsed
	}
	if req.DueTime != nil {
		parsed, err := models.ParseClockTime(*req.DueTime)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid due_time, expected HH:MM")
			return
		}
		newTime = parsed
	}

	if (req.DueDate != nil || req.DueTime != nil) && h.isPast(newDate, newTime) {
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "Reminder instant is in the past")
		return
	}

	ctx := r.Context()
	if newText != nil {
		if err := h.reminders.UpdateText(ctx, rem.ID, *newText); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update reminder")
			return
		}
		rem.Text = *newText
	}
	if req.DueDate != nil && newDate != rem.DueDate {
		if err := h.reminders.UpdateDate(ctx, rem.ID, newDate); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update reminder")
			return
		}
		rem.DueDate = newDate
	}
	if req.DueTime != nil && newTime != rem.DueTime {
		if err := h.reminders.UpdateTime(ctx, rem.ID, newTime); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update reminder")
			return
		}
		rem.DueTime = newTime
	}

	h.reconcileToday(rem, newText, req.DueTime != nil)

	respondJSON(w, http.StatusOK, rem)
}

// DeleteReminder deletes a reminder from the store and from today's view
func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	claims := request.ClaimsFromContext(r)
	if claims == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Claims not found in context")
		return
	}

	rem, ok := h.fetchOwned(w, r, claims.OwnerID)
	if !ok {
		return
	}

	if err := h.reminders.Delete(r.Context(), rem.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Reminder not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete reminder")
		return
	}

	h.svc.DeleteToday(rem.ID)

	w.WriteHeader(http.StatusNoContent)
}

// fetchOwned loads the path reminder and enforces ownership. It writes the
// error response itself and reports success through the bool.
func (h *ReminderHandler) fetchOwned(w http.ResponseWriter, r *http.Request, ownerID int64) (*models.Reminder, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid reminder ID")
		return nil, false
	}

	rem, err := h.reminders.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Reminder not found")
		return nil, false
	}

	if rem.OwnerID != ownerID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Reminder does not belong to owner")
		return nil, false
	}

	return rem, true
}

// isPast reports whether the instant has already passed in the service
// timezone. Same-minute instants are allowed; the scheduler fires them
// immediately.
func (h *ReminderHandler) isPast(date models.Date, t models.ClockTime) bool {
	now := h.clock.Now()
	today := models.DateOf(now)
	if date.Before(today) {
		return true
	}
	if date != today {
		return false
	}
	return t.Before(models.ClockTimeOf(now))
}

// reconcileToday mirrors a store update into the in-memory day view. The
// reminder may have moved onto today, off today, or within today.
func (h *ReminderHandler) reconcileToday(rem *models.Reminder, newText *string, timeChanged bool) {
	today := h.svc.Today()
	if !rem.DueOn(today) {
		h.svc.DeleteToday(rem.ID)
		return
	}

	var newTime *models.ClockTime
	if timeChanged {
		t := rem.DueTime
		newTime = &t
	}
	if h.svc.EditToday(rem.ID, newText, newTime) {
		return
	}
	// Not in the day view yet: the reminder was moved onto today.
	h.svc.PushToday(rem)
}
