package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/realtime"
	"github.com/gatherly/backend/internal/repository"
)

// WSController upgrades authenticated connections and keeps them subscribed
// to the rooms the user belongs to for the lifetime of the socket.
type WSController struct {
	hub      *realtime.Hub
	store    repository.Store
	upgrader websocket.Upgrader
}

func NewWSController(hub *realtime.Hub, store repository.Store) *WSController {
	return &WSController{
		hub:   hub,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (c *WSController) Connect(ctx *gin.Context) {
	actor := currentActor(ctx)

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.String(http.StatusInternalServerError, "failed to upgrade connection")
		return
	}

	client := realtime.NewClient(actor.ID, conn)
	c.hub.Register(client)
	go client.WritePump()

	c.joinRooms(ctx.Request.Context(), client, actor)

	_ = client.Enqueue(realtime.Message{
		Event:   "connected",
		Payload: map[string]any{"userId": actor.ID.String()},
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			c.hub.Unregister(client.ID)
			return
		}
	}
}

// joinRooms subscribes a fresh connection to the event room of every event
// the user holds a membership row for, pending ones included, and to the
// room of every chat they sit in. Pending requesters and invitees follow
// their request's progress through the event room.
func (c *WSController) joinRooms(ctx context.Context, client *realtime.Client, actor domain.Actor) {
	memberships, err := c.store.Memberships().ListByUser(ctx, actor.ID)
	if err == nil {
		for _, m := range memberships {
			c.hub.JoinRoom(client, realtime.EventRoom(m.EventID))
		}
	}

	chats, err := c.store.Chats().ListByUser(ctx, actor.ID)
	if err == nil {
		for _, chat := range chats {
			c.hub.JoinRoom(client, realtime.ChatRoom(chat.ID))
		}
	}
}
