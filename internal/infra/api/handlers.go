// internal/infra/api/handlers.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vaccination_tracker/internal/app"
	"vaccination_tracker/internal/domain/mother"
	"vaccination_tracker/internal/domain/reminder"
	"vaccination_tracker/internal/domain/schedule"
)

// BabyService is the part of *app.BabyService the handlers call.
type BabyService interface {
	AddBaby(ctx context.Context, motherID uuid.UUID, name, dateOfBirth, gender string, now time.Time) (*mother.Baby, error)
	CorrectBirthDate(ctx context.Context, motherID, babyID uuid.UUID, birthDate string, now time.Time) (*mother.Baby, error)
	ProjectedSchedule(ctx context.Context, motherID, babyID uuid.UUID) ([]schedule.DueDate, error)
	ListReminders(ctx context.Context, motherID, babyID uuid.UUID) ([]*reminder.Reminder, error)
	ListSchedule(ctx context.Context, age string) ([]schedule.Entry, error)
	ListBabies(ctx context.Context, motherID uuid.UUID) ([]*mother.Baby, error)
}

type ReminderService interface {
	RegenerateReminders(ctx context.Context, motherID, babyID uuid.UUID, now time.Time) error
}

type Handler struct {
	babies    BabyService
	reminders ReminderService
	logger    *logrus.Entry
	now       func() time.Time
}

func NewHandler(babies BabyService, reminders ReminderService, logger *logrus.Entry) *Handler {
	return &Handler{
		babies:    babies,
		reminders: reminders,
		logger:    logger,
		now:       time.Now,
	}
}

type scheduleEntryResponse struct {
	ID                int32  `json:"id"`
	Age               string `json:"age"`
	Vaccine           string `json:"vaccine"`
	ProtectionAgainst string `json:"protection_against"`
}

type dueDateResponse struct {
	scheduleEntryResponse
	VaccinationDate string `json:"vaccination_date"`
}

type babyResponse struct {
	BabyID      uuid.UUID `json:"baby_id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"date_of_birth"`
	Gender      string    `json:"gender"`
}

type reminderResponse struct {
	ID              int64     `json:"id"`
	Type            string    `json:"type"`
	Vaccine         string    `json:"vaccine"`
	VaccinationDate string    `json:"vaccination_date"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	Sent            bool      `json:"sent"`
}

type addBabyRequest struct {
	BabyName    string `json:"babyName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
}

type birthDateRequest struct {
	BirthDate string `json:"birthDate"`
}

const dateLayout = "2006-01-02"

func toEntryResponse(e schedule.Entry) scheduleEntryResponse {
	return scheduleEntryResponse{ID: e.ID, Age: e.Age, Vaccine: e.Vaccine, ProtectionAgainst: e.ProtectionAgainst}
}

func toBabyResponse(b *mother.Baby) babyResponse {
	return babyResponse{BabyID: b.ID, Name: b.Name, DateOfBirth: b.DateOfBirth.Format(dateLayout), Gender: string(b.Gender)}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, "Chanjo chonjo backend is running")
}

// ListSchedule serves both the full schedule and the by-age lookup.
func (h *Handler) ListSchedule(c *gin.Context) {
	entries, err := h.babies.ListSchedule(c.Request.Context(), c.Param("age"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]scheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) RegenerateReminders(c *gin.Context) {
	babyID, ok := h.babyIDParam(c, "babyId")
	if !ok {
		return
	}
	if err := h.reminders.RegenerateReminders(c.Request.Context(), motherIDFrom(c), babyID, h.now()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Reminders regenerated successfully"})
}

func (h *Handler) AddBaby(c *gin.Context) {
	var req addBabyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.BabyName) == "" || req.DateOfBirth == "" || req.Gender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "babyName, dateOfBirth & gender are required"})
		return
	}

	baby, err := h.babies.AddBaby(c.Request.Context(), motherIDFrom(c), req.BabyName, req.DateOfBirth, req.Gender, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Baby added & reminders scheduled successfully",
		"baby":    toBabyResponse(baby),
	})
}

func (h *Handler) CorrectBirthDate(c *gin.Context) {
	babyID, ok := h.babyIDParam(c, "id")
	if !ok {
		return
	}
	var req birthDateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BirthDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "birthDate is required"})
		return
	}

	baby, err := h.babies.CorrectBirthDate(c.Request.Context(), motherIDFrom(c), babyID, req.BirthDate, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Birth date and reminders regenerated",
		"baby":    toBabyResponse(baby),
	})
}

func (h *Handler) ListBabies(c *gin.Context) {
	babies, err := h.babies.ListBabies(c.Request.Context(), motherIDFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]babyResponse, 0, len(babies))
	for _, b := range babies {
		out = append(out, toBabyResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"babies": out})
}

func (h *Handler) BabySchedule(c *gin.Context) {
	babyID, ok := h.babyIDParam(c, "id")
	if !ok {
		return
	}
	dueDates, err := h.babies.ProjectedSchedule(c.Request.Context(), motherIDFrom(c), babyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]dueDateResponse, 0, len(dueDates))
	for _, dd := range dueDates {
		out = append(out, dueDateResponse{
			scheduleEntryResponse: toEntryResponse(dd.Entry),
			VaccinationDate:       dd.VaccinationDate.Format(dateLayout),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) BabyReminders(c *gin.Context) {
	babyID, ok := h.babyIDParam(c, "id")
	if !ok {
		return
	}
	reminders, err := h.babies.ListReminders(c.Request.Context(), motherIDFrom(c), babyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]reminderResponse, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, reminderResponse{
			ID:              r.ID,
			Type:            string(r.Type),
			Vaccine:         r.Vaccine,
			VaccinationDate: r.VaccinationDate.Format(dateLayout),
			ScheduledAt:     r.ScheduledAt,
			Sent:            r.Sent,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) babyIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid babyId format"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps application errors to status codes. Unknown errors become a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrBabyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Baby not found"})
	case errors.Is(err, app.ErrMotherNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Mother profile not found"})
	case errors.Is(err, app.ErrDuplicateBabyName):
		c.JSON(http.StatusConflict, gin.H{"error": "You already have a baby with that name"})
	case errors.Is(err, app.ErrInvalidBabyName),
		errors.Is(err, app.ErrInvalidBirthDate),
		errors.Is(err, app.ErrInvalidGender):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
