package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/matchday/matchday-server/internal/community"
	"github.com/matchday/matchday-server/internal/store"
)

// CommunityHandlers provides HTTP handlers for community endpoints.
type CommunityHandlers struct {
	communities *community.Service
	log         *zerolog.Logger
}

// NewCommunityHandlers creates a new community handlers instance.
func NewCommunityHandlers(communities *community.Service, logger *zerolog.Logger) *CommunityHandlers {
	return &CommunityHandlers{
		communities: communities,
		log:         logger,
	}
}

// CreateCommunityRequest represents the create community request body.
type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Description string `json:"description"`
	ClubName    string `json:"club_name"`
}

// CommunityResponse represents a community in API responses.
type CommunityResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ClubName    string `json:"club_name,omitempty"`
	IsPublic    bool   `json:"is_public"`
	MemberCount int    `json:"member_count"`
	CreatedAt   string `json:"created_at"`
}

func communityResponse(c *store.Community) CommunityResponse {
	return CommunityResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ClubName:    c.ClubName,
		IsPublic:    c.IsPublic,
		MemberCount: c.MemberCount,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles community creation.
// POST /api/communities
func (h *CommunityHandlers) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create community request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.communities.Create(c.Request.Context(), req.Name, req.Description, req.ClubName, userID)
	if err != nil {
		switch {
		case errors.Is(err, community.ErrNameTaken):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "community name already exists"})
		case errors.Is(err, community.ErrInvalidName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid community name"})
		default:
			h.log.Error().Err(err).Str("name", req.Name).Msg("failed to create community")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("name", created.Name).Int64("community_id", created.ID).Int64("creator_id", userID).Msg("community created")
	c.JSON(http.StatusCreated, communityResponse(created))
}

// List handles listing public communities.
// GET /api/communities
func (h *CommunityHandlers) List(c *gin.Context) {
	communities, err := h.communities.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list communities")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]CommunityResponse, 0, len(communities))
	for _, item := range communities {
		response = append(response, communityResponse(item))
	}
	c.JSON(http.StatusOK, response)
}

// Mine handles listing the caller's communities.
// GET /api/communities/mine
func (h *CommunityHandlers) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	communities, err := h.communities.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list user communities")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]CommunityResponse, 0, len(communities))
	for _, item := range communities {
		response = append(response, communityResponse(item))
	}
	c.JSON(http.StatusOK, response)
}

// Join handles community membership enrollment.
// POST /api/communities/:id/join
func (h *CommunityHandlers) Join(c *gin.Context) {
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

	if err := h.communities.Join(c.Request.Context(), userID, communityID); err != nil {
		switch {
		case errors.Is(err, community.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "community not found"})
		case errors.Is(err, community.ErrAlreadyMember):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "already a member"})
		default:
			h.log.Error().Err(err).Int64("user_id", userID).Int64("community_id", communityID).Msg("failed to join community")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"joined": true})
}

// Leave handles community membership removal.
// POST /api/communities/:id/leave
func (h *CommunityHandlers) Leave(c *gin.Context) {
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

	if err := h.communities.Leave(c.Request.Context(), userID, communityID); err != nil {
		switch {
		case errors.Is(err, community.ErrNotMember):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "not a member"})
		default:
			h.log.Error().Err(err).Int64("user_id", userID).Int64("community_id", communityID).Msg("failed to leave community")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"left": true})
}
