package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/api/http/converter"
	"github.com/gatherly/backend/internal/service"
)

const maxCoverSize = 10 << 20

type ProfileController struct {
	profiles service.ProfileInteractor
}

func NewProfileController(profiles service.ProfileInteractor) *ProfileController {
	return &ProfileController{profiles: profiles}
}

func (c *ProfileController) GetProfile(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	profile, participants, err := c.profiles.GetOrCreate(ctx.Request.Context(), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"profile": converter.ProfileToApi(profile, participants)})
}

func (c *ProfileController) RemoveParticipant(ctx *gin.Context) {
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

	result, err := c.profiles.RemoveParticipant(ctx.Request.Context(), currentActor(ctx), eventID, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"event_deleted": result.EventDeleted})
}

func (c *ProfileController) SetCover(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	file, header, err := ctx.Request.FormFile("cover")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "cover file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCoverSize+1))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "failed to read cover file"})
		return
	}
	if len(data) > maxCoverSize {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "cover file too large"})
		return
	}

	profile, err := c.profiles.SetCover(ctx.Request.Context(), currentActor(ctx), eventID, data, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"cover_url": profile.CoverURL})
}
