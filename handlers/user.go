package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"splitledger/models"
	"splitledger/utils"
)

// GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.registry.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch users")
		return
	}

	response := make([]models.UserResponse, len(users))
	for i, u := range users {
		response[i] = models.NewUserResponse(u)
	}
	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// POST /api/users
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindError(c, err)
		return
	}

	u, err := h.registry.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.fail(c, err, "Failed to create user")
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "User created", models.NewUserResponse(u))
}

// GET /api/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	u, err := h.registry.User(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to fetch user")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", models.NewUserResponse(u))
}

// PUT /api/users/:id/push-token
func (h *Handler) UpdatePushToken(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	var req models.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindError(c, err)
		return
	}

	if err := h.registry.SetPushToken(c.Request.Context(), id, req.Token); err != nil {
		h.fail(c, err, "Failed to update push token")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Push token updated", nil)
}
