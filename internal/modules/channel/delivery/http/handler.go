package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"uninet.id/campuslink/internal/entity"
	channelDto "uninet.id/campuslink/internal/modules/channel/dto"
	channelService "uninet.id/campuslink/internal/modules/channel/service"
	userRepo "uninet.id/campuslink/internal/modules/user/repository"
	voteService "uninet.id/campuslink/internal/modules/vote/service"
	"uninet.id/campuslink/pkg/dto"
	"uninet.id/campuslink/pkg/response"
	"uninet.id/campuslink/pkg/validator"
)

type ChannelHandler struct {
	service     channelService.ChannelService
	voteService voteService.VoteService
	userRepo    userRepo.UserRepository
	hub         *Hub
	upgrader    websocket.Upgrader
}

func NewChannelHandler(service channelService.ChannelService, voteService voteService.VoteService, userRepo userRepo.UserRepository, hub *Hub) *ChannelHandler {
	return &ChannelHandler{
		service:     service,
		voteService: voteService,
		userRepo:    userRepo,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

func (h *ChannelHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input channelDto.CreateChannelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	channel, err := h.service.Create(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": channel})
}

func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.service.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	enriched := make([]channelDto.ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		counts := dto.VoteCounts{Upvotes: ch.Upvotes, Downvotes: ch.Downvotes, Score: ch.Upvotes - ch.Downvotes}
		if h.voteService != nil {
			if fresh, err := h.voteService.Counts(c.Request.Context(), entity.VotableChannel, ch.ID); err == nil {
				counts = *fresh
			}
		}
		enriched = append(enriched, channelDto.ChannelResponse{Channel: ch, Votes: counts})
	}

	c.JSON(http.StatusOK, gin.H{"data": enriched})
}

func (h *ChannelHandler) Room(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	channel, messages, err := h.service.Room(c.Request.Context(), channelID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": channelDto.RoomResponse{
		Channel:  *channel,
		Messages: messages,
		Online:   h.hub.Online(channelID),
	}})
}

func (h *ChannelHandler) PostMessage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	var input channelDto.PostMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	message, err := h.service.PostMessage(c.Request.Context(), userID, channelID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.hub.Broadcast(channelID, channelDto.MessageEvent{
		Type:      "message",
		ChannelID: channelID,
		Message:   message,
		At:        time.Now(),
	})

	c.JSON(http.StatusCreated, gin.H{"data": message})
}

func (h *ChannelHandler) Delete(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	isAdmin := false
	if user, err := h.userRepo.FindByID(c.Request.Context(), userID.String()); err == nil {
		isAdmin = user.IsAdmin()
	}

	if err := h.service.Delete(c.Request.Context(), userID, isAdmin, channelID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "channel deleted"})
}

// JoinRoom upgrades to a websocket and keeps the client in the room until the
// socket closes. Messages are posted over REST; the socket only carries
// broadcasts and presence.
func (h *ChannelHandler) JoinRoom(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	if _, _, err := h.service.Room(c.Request.Context(), channelID); err != nil {
		response.ResponseError(c, err)
		return
	}

	username := "unknown"
	if user, err := h.userRepo.FindByID(c.Request.Context(), userID.String()); err == nil {
		username = user.Username
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	client := &roomClient{
		conn:     conn,
		username: username,
		send:     make(chan channelDto.MessageEvent, 16),
	}
	h.hub.join(channelID, client)
	h.hub.broadcastPresence(channelID, "user_joined", username)

	defer func() {
		h.hub.leave(channelID, client)
		h.hub.broadcastPresence(channelID, "user_left", username)
	}()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-client.send:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
