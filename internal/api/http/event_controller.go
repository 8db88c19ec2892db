package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/api/http/converter"
	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/service"
)

type EventController struct {
	events service.EventInteractor
}

func NewEventController(events service.EventInteractor) *EventController {
	return &EventController{events: events}
}

type recurrenceRequest struct {
	Type        string      `json:"type"`
	Weekdays    []int       `json:"weekdays"`
	DayOfMonth  int         `json:"day_of_month"`
	CustomDates []time.Time `json:"custom_dates"`
}

func (r recurrenceRequest) toDomain() domain.Recurrence {
	weekdays := make([]time.Weekday, 0, len(r.Weekdays))
	for _, wd := range r.Weekdays {
		weekdays = append(weekdays, time.Weekday(wd))
	}
	return domain.Recurrence{
		Type:        domain.RecurrenceType(r.Type),
		Weekdays:    weekdays,
		DayOfMonth:  r.DayOfMonth,
		CustomDates: r.CustomDates,
	}
}

func (c *EventController) CreateEvent(ctx *gin.Context) {
	type request struct {
		Title           string            `json:"title" binding:"required"`
		Description     string            `json:"description"`
		Location        string            `json:"location"`
		StartTime       time.Time         `json:"start_time" binding:"required"`
		EndTime         time.Time         `json:"end_time" binding:"required"`
		MaxParticipants int               `json:"max_participants"`
		Recurrence      recurrenceRequest `json:"recurrence"`
		Tags            []string          `json:"tags"`
		MediaURLs       []string          `json:"media_urls"`
		InvitedUserIDs  []uuid.UUID       `json:"invited_user_ids"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	event, err := c.events.Create(ctx.Request.Context(), currentActor(ctx), service.CreateEventParams{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxParticipants: req.MaxParticipants,
		Recurrence:      req.Recurrence.toDomain(),
		Tags:            req.Tags,
		MediaURLs:       req.MediaURLs,
		InvitedUserIDs:  req.InvitedUserIDs,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"event": converter.EventToApi(event)})
}

func (c *EventController) ListEvents(ctx *gin.Context) {
	events, err := c.events.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}

	result := make([]*converter.EventResponse, 0, len(events))
	for _, event := range events {
		result = append(result, converter.EventToApi(event))
	}
	ctx.JSON(http.StatusOK, gin.H{"events": result})
}

func (c *EventController) GetEvent(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := c.events.Get(ctx.Request.Context(), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"event": converter.EventToApi(event)})
}

func (c *EventController) UpdateEvent(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	type request struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Location    *string    `json:"location"`
		StartTime   *time.Time `json:"start_time"`
		EndTime     *time.Time `json:"end_time"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	event, err := c.events.Update(ctx.Request.Context(), currentActor(ctx), eventID, service.UpdateEventParams{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"event": converter.EventToApi(event)})
}

func (c *EventController) CancelEvent(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	result, err := c.events.Cancel(ctx.Request.Context(), currentActor(ctx), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"participants_affected": result.ParticipantsAffected})
}

func (c *EventController) WithdrawOrganizer(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	result, err := c.events.WithdrawOrganizer(ctx.Request.Context(), currentActor(ctx), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	resp := gin.H{"event_continues": result.EventContinues}
	if result.EventContinues {
		resp["organizer_id"] = result.NewOrganizerID
	}
	ctx.JSON(http.StatusOK, resp)
}

func (c *EventController) TransferOrganizer(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	type request struct {
		OrganizerID uuid.UUID `json:"organizer_id" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := c.events.TransferOrganizer(ctx.Request.Context(), currentActor(ctx), eventID, req.OrganizerID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"organizer_id": req.OrganizerID})
}

func (c *EventController) ListOccurrences(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	dates, err := c.events.OccurrenceDates(ctx.Request.Context(), eventID, currentActor(ctx).ID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"dates": dates})
}
