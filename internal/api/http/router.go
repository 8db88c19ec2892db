package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gatherly/backend/internal/identity"
)

func SetupRouter(
	resolver identity.Resolver,
	eventController *EventController,
	membershipController *MembershipController,
	chatController *ChatController,
	profileController *ProfileController,
	wsController *WSController,
) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:3000",
	}
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(AuthMiddleware(resolver))

	events := api.Group("/events")
	events.POST("/create", eventController.CreateEvent)
	events.GET("", eventController.ListEvents)
	events.GET("/:eventID", eventController.GetEvent)
	events.PATCH("/:eventID", eventController.UpdateEvent)
	events.DELETE("/:eventID", eventController.CancelEvent)
	events.POST("/:eventID/withdraw", eventController.WithdrawOrganizer)
	events.POST("/:eventID/transfer", eventController.TransferOrganizer)
	events.GET("/:eventID/occurrences", eventController.ListOccurrences)

	events.POST("/:eventID/join", membershipController.RequestToJoin)
	events.POST("/:eventID/invite", membershipController.InviteUser)
	events.DELETE("/:eventID/participation", membershipController.CancelMyParticipation)
	events.DELETE("/:eventID/participants/:userID", membershipController.RemoveParticipant)

	memberships := api.Group("/memberships")
	memberships.POST("/:membershipID/respond", membershipController.RespondToRequest)
	memberships.POST("/:membershipID/accept", membershipController.AcceptInvitation)
	memberships.POST("/:membershipID/reject", membershipController.RejectInvitation)

	api.GET("/notifications", membershipController.ListNotifications)

	events.GET("/:eventID/chat", chatController.GetChat)
	events.POST("/:eventID/chat/messages", chatController.SendMessage)
	events.DELETE("/:eventID/chat/participation", chatController.LeaveChat)

	events.GET("/:eventID/profile", profileController.GetProfile)
	events.DELETE("/:eventID/profile/participants/:userID", profileController.RemoveParticipant)
	events.POST("/:eventID/profile/cover", profileController.SetCover)

	api.GET("/ws", wsController.Connect)

	return router
}
