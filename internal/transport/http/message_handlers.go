package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/matchday/matchday-server/internal/community"
	"github.com/matchday/matchday-server/internal/core"
)

// MessageHandlers serves message history over REST, reading from the same
// log the socket path appends to so both views agree on order.
type MessageHandlers struct {
	communities *community.Service
	msgs        *core.MessageLog
	log         *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(communities *community.Service, msgs *core.MessageLog, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		communities: communities,
		msgs:        msgs,
		log:         logger,
	}
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID          int64  `json:"id"`
	Room        string `json:"room"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Body        string `json:"body"`
	Sequence    int64  `json:"sequence"`
	CreatedAt   int64  `json:"created_at"`
}

// HistoryResponse represents a history page, most recent first.
type HistoryResponse struct {
	Room     string            `json:"room"`
	Messages []MessageResponse `json:"messages"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// History handles paginated history reads for a community's room.
// GET /api/communities/:id/messages?limit=&offset=
func (h *MessageHandlers) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	communityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid community id"})
		return
	}

	target, err := h.communities.Get(c.Request.Context(), communityID)
	if err != nil {
		if errors.Is(err, community.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "community not found"})
			return
		}
		h.log.Error().Err(err).Int64("community_id", communityID).Msg("failed to load community")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	member, err := h.communities.IsMember(c.Request.Context(), userID, target.Name)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Str("room", target.Name).Msg("failed to check membership")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "you must be a member to view messages"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(core.DefaultHistoryLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.msgs.History(c.Request.Context(), target.Name, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Str("room", target.Name).Msg("failed to read history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := HistoryResponse{
		Room:     target.Name,
		Messages: make([]MessageResponse, 0, len(messages)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, msg := range messages {
		response.Messages = append(response.Messages, MessageResponse{
			ID:          msg.ID,
			Room:        msg.Room,
			UserID:      msg.UserID,
			DisplayName: msg.DisplayName,
			Body:        msg.Body,
			Sequence:    msg.Seq,
			CreatedAt:   msg.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, response)
}
