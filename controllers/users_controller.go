package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/services"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// GET /api/v1/users/me
func (h *UserController) GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		user, err := h.users.Get(c.Request.Context(), me.ID)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"user": user})
	}
}

// PATCH /api/v1/users/updateMe
func (h *UserController) UpdateMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var in dto.UpdateMeDTO
		if !bindJSON(c, &in) {
			return
		}

		user, err := h.users.UpdateMe(c.Request.Context(), me.ID, in)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"user": user})
	}
}

// DELETE /api/v1/users/deleteMe
func (h *UserController) DeleteMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		if err := h.users.Deactivate(c.Request.Context(), me.ID); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET /api/v1/users
func (h *UserController) GetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, total, err := h.users.List(c.Request.Context(), c.Request.URL.Query())
		if err != nil {
			c.Error(err)
			return
		}
		list(c, "users", users, total)
	}
}

// GET /api/v1/users/:id
func (h *UserController) GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		user, err := h.users.Get(c.Request.Context(), id)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"user": user})
	}
}

// POST /api/v1/users. Accounts are only opened through signup.
func (h *UserController) CreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Error(apperrors.New(apperrors.CodeInternal, "This route is not defined! Please use /signup instead", http.StatusInternalServerError))
	}
}

// PATCH /api/v1/users/:id
func (h *UserController) UpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in dto.UpdateUserDTO
		if !bindJSON(c, &in) {
			return
		}

		user, err := h.users.Update(c.Request.Context(), id, in)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"user": user})
	}
}

// DELETE /api/v1/users/:id deactivates the account.
func (h *UserController) DeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.users.Deactivate(c.Request.Context(), id); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
