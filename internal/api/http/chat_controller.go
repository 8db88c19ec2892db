package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/api/http/converter"
	"github.com/gatherly/backend/internal/service"
)

type ChatController struct {
	chats service.ChatInteractor
}

func NewChatController(chats service.ChatInteractor) *ChatController {
	return &ChatController{chats: chats}
}

func (c *ChatController) GetChat(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	chat, participants, messages, err := c.chats.GetByEvent(ctx.Request.Context(), currentActor(ctx), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"chat": converter.ChatToApi(chat, participants, messages)})
}

func (c *ChatController) SendMessage(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	type request struct {
		Content string `json:"content" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	msg, err := c.chats.SendMessage(ctx.Request.Context(), currentActor(ctx), eventID, req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message_id": msg.ID})
}

func (c *ChatController) LeaveChat(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := c.chats.Leave(ctx.Request.Context(), currentActor(ctx), eventID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"left": eventID})
}
