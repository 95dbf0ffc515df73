package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"splitledger/ledger"
	"splitledger/models"
	"splitledger/utils"
)

// GET /api/groups
func (h *Handler) ListGroups(c *gin.Context) {
	ctx := c.Request.Context()
	groups, err := h.registry.ListGroups(ctx)
	if err != nil {
		h.fail(c, err, "Failed to fetch groups")
		return
	}

	response := make([]models.GroupResponse, len(groups))
	for i, g := range groups {
		if response[i], err = h.buildGroupResponse(ctx, g); err != nil {
			h.fail(c, err, "Failed to fetch groups")
			return
		}
	}
	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// POST /api/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	g, err := h.registry.CreateGroup(ctx, req.Name, req.MemberIDs)
	if err != nil {
		h.fail(c, err, "Failed to create group")
		return
	}

	response, err := h.buildGroupResponse(ctx, g)
	if err != nil {
		h.fail(c, err, "Failed to create group")
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Group created", response)
}

// GET /api/groups/:id
func (h *Handler) GetGroup(c *gin.Context) {
	id, ok := paramID(c, "group")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	g, err := h.registry.Group(ctx, id)
	if err != nil {
		h.fail(c, err, "Failed to fetch group")
		return
	}

	response, err := h.buildGroupResponse(ctx, g)
	if err != nil {
		h.fail(c, err, "Failed to fetch group")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", response)
}

func (h *Handler) buildGroupResponse(ctx context.Context, g ledger.Group) (models.GroupResponse, error) {
	members := make([]models.GroupMemberResponse, len(g.MemberIDs))
	for i, id := range g.MemberIDs {
		u, err := h.registry.User(ctx, id)
		if err != nil {
			return models.GroupResponse{}, err
		}
		members[i] = models.GroupMemberResponse{UserID: u.ID, Name: u.Name, Email: u.Email}
	}
	return models.GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		MemberIDs: g.MemberIDs,
		Members:   members,
	}, nil
}
