package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"uninet.id/campuslink/internal/entity"
	voteService "uninet.id/campuslink/internal/modules/vote/service"
	"uninet.id/campuslink/pkg/response"
)

type VoteHandler struct {
	service voteService.VoteService
}

func NewVoteHandler(service voteService.VoteService) *VoteHandler {
	return &VoteHandler{service: service}
}

type castInput struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// kindFromRoute maps the route segment to the votable kind; routes are
// registered per resource so the handler never trusts a client-sent kind.
func kindFromRoute(c *gin.Context) string {
	if kind, ok := c.Get("votable_kind"); ok {
		return kind.(string)
	}
	return entity.VotableChannel
}

// WithKind tags the route group with its votable kind.
func WithKind(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("votable_kind", kind)
		c.Next()
	}
}

func (h *VoteHandler) Cast(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
		return
	}

	var input castInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be up or down"})
		return
	}

	counts, err := h.service.Cast(c.Request.Context(), userID, kindFromRoute(c), resourceID, input.Direction)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": counts})
}

func (h *VoteHandler) Retract(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
		return
	}

	counts, err := h.service.Retract(c.Request.Context(), userID, kindFromRoute(c), resourceID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": counts})
}

func (h *VoteHandler) Counts(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
		return
	}

	counts, err := h.service.Counts(c.Request.Context(), kindFromRoute(c), resourceID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	myVote := ""
	if userID, err := response.GetUserID(c); err == nil {
		myVote, _ = h.service.MyVote(c.Request.Context(), userID, kindFromRoute(c), resourceID)
	}

	c.JSON(http.StatusOK, gin.H{"data": counts, "my_vote": myVote})
}
