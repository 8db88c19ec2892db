package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/api/http/converter"
	"github.com/gatherly/backend/internal/service"
)

type MembershipController struct {
	memberships service.MembershipInteractor
	notifier    *service.Notifier
}

func NewMembershipController(memberships service.MembershipInteractor, notifier *service.Notifier) *MembershipController {
	return &MembershipController{memberships: memberships, notifier: notifier}
}

func (c *MembershipController) RequestToJoin(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	m, err := c.memberships.RequestToJoin(ctx.Request.Context(), currentActor(ctx), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"membership": converter.MembershipToApi(m)})
}

func (c *MembershipController) InviteUser(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	type request struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	m, err := c.memberships.InviteUser(ctx.Request.Context(), currentActor(ctx), eventID, req.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"membership": converter.MembershipToApi(m)})
}

func (c *MembershipController) RespondToRequest(ctx *gin.Context) {
	membershipID, err := uuid.Parse(ctx.Param("membershipID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid membership id"})
		return
	}

	type request struct {
		Accept *bool `json:"accept" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	m, err := c.memberships.RespondToRequest(ctx.Request.Context(), currentActor(ctx), membershipID, *req.Accept)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"membership": converter.MembershipToApi(m)})
}

func (c *MembershipController) AcceptInvitation(ctx *gin.Context) {
	membershipID, err := uuid.Parse(ctx.Param("membershipID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid membership id"})
		return
	}

	m, err := c.memberships.AcceptInvitation(ctx.Request.Context(), currentActor(ctx), membershipID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"membership": converter.MembershipToApi(m)})
}

func (c *MembershipController) RejectInvitation(ctx *gin.Context) {
	membershipID, err := uuid.Parse(ctx.Param("membershipID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid membership id"})
		return
	}

	m, err := c.memberships.RejectInvitation(ctx.Request.Context(), currentActor(ctx), membershipID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"membership": converter.MembershipToApi(m)})
}

func (c *MembershipController) CancelMyParticipation(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	result, err := c.memberships.CancelMyParticipation(ctx.Request.Context(), currentActor(ctx), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"event_deleted": result.EventDeleted})
}

func (c *MembershipController) RemoveParticipant(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	userID, err := uuid.Parse(ctx.Param("userID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := c.memberships.RemoveParticipant(ctx.Request.Context(), currentActor(ctx), eventID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"removed": userID})
}

func (c *MembershipController) ListNotifications(ctx *gin.Context) {
	notifications, err := c.notifier.ListByUser(ctx.Request.Context(), currentActor(ctx).ID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	result := make([]*converter.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, converter.NotificationToApi(n))
	}
	ctx.JSON(http.StatusOK, gin.H{"notifications": result})
}
