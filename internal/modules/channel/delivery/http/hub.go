package handler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	channelDto "uninet.id/campuslink/internal/modules/channel/dto"
)

// Hub tracks who is connected to which channel room and fans messages out to
// them. Presence lives here, not in the database: a username is "online" in a
// room exactly while it holds at least one open socket.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*roomClient]struct{}
}

type roomClient struct {
	conn     *websocket.Conn
	username string
	send     chan channelDto.MessageEvent
}

func NewHub() *Hub {
	return &Hub{rooms: map[uuid.UUID]map[*roomClient]struct{}{}}
}

func (h *Hub) join(channelID uuid.UUID, c *roomClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[channelID] == nil {
		h.rooms[channelID] = map[*roomClient]struct{}{}
	}
	h.rooms[channelID][c] = struct{}{}
}

func (h *Hub) leave(channelID uuid.UUID, c *roomClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[channelID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, channelID)
		}
	}
	close(c.send)
}

// Online lists the distinct usernames currently in the room.
func (h *Hub) Online(channelID uuid.UUID) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := map[string]struct{}{}
	names := []string{}
	for c := range h.rooms[channelID] {
		if _, dup := seen[c.username]; dup {
			continue
		}
		seen[c.username] = struct{}{}
		names = append(names, c.username)
	}
	return names
}

// Broadcast sends the event to every socket in the room. Slow clients are
// skipped rather than blocking the sender.
func (h *Hub) Broadcast(channelID uuid.UUID, event channelDto.MessageEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[channelID] {
		select {
		case c.send <- event:
		default:
		}
	}
}

func (h *Hub) broadcastPresence(channelID uuid.UUID, eventType, username string) {
	h.Broadcast(channelID, channelDto.MessageEvent{
		Type:      eventType,
		ChannelID: channelID,
		Username:  username,
		Online:    h.Online(channelID),
		At:        time.Now(),
	})
}
