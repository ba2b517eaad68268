package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/middleware"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/services"
)

const loggedOutTTL = 10 * time.Second

type AuthController struct {
	auth       *services.AuthService
	publicURL  string
	cookieTTL  time.Duration
	production bool
}

// NewAuthController builds reset links from publicURL, never from the
// request's Host.
func NewAuthController(auth *services.AuthService, publicURL string, cookieTTL time.Duration, production bool) *AuthController {
	return &AuthController{
		auth:       auth,
		publicURL:  strings.TrimRight(publicURL, "/"),
		cookieTTL:  cookieTTL,
		production: production,
	}
}

// POST /api/v1/users/signup
func (h *AuthController) Signup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.SignupDTO
		if !bindJSON(c, &in) {
			return
		}

		user, token, err := h.auth.Signup(c.Request.Context(), in)
		if err != nil {
			c.Error(err)
			return
		}
		h.sendToken(c, http.StatusCreated, user, token)
	}
}

// POST /api/v1/users/login
func (h *AuthController) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.LoginDTO
		if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
			c.Error(err)
			return
		}

		user, token, err := h.auth.Login(c.Request.Context(), in.Email, in.Password)
		if err != nil {
			c.Error(err)
			return
		}
		h.sendToken(c, http.StatusOK, user, token)
	}
}

// GET /api/v1/users/logout
func (h *AuthController) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.setCookie(c, "loggedout", loggedOutTTL)
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

// POST /api/v1/users/forgotPassword
func (h *AuthController) ForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.ForgotPasswordDTO
		if !bindJSON(c, &in) {
			return
		}

		resetURL := func(secret string) string {
			return h.publicURL + "/api/v1/users/resetPassword/" + secret
		}
		if err := h.auth.ForgotPassword(c.Request.Context(), in.Email, resetURL); err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
	}
}

// PATCH /api/v1/users/resetPassword/:token
func (h *AuthController) ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.ResetPasswordDTO
		if !bindJSON(c, &in) {
			return
		}

		user, token, err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), in)
		if err != nil {
			c.Error(err)
			return
		}
		h.sendToken(c, http.StatusOK, user, token)
	}
}

// PATCH /api/v1/users/updateMyPassword
func (h *AuthController) UpdatePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var in dto.UpdatePasswordDTO
		if !bindJSON(c, &in) {
			return
		}

		user, token, err := h.auth.UpdatePassword(c.Request.Context(), me.ID, in)
		if err != nil {
			c.Error(err)
			return
		}
		h.sendToken(c, http.StatusOK, user, token)
	}
}

func (h *AuthController) sendToken(c *gin.Context, status int, user *models.User, token string) {
	h.setCookie(c, token, h.cookieTTL)
	c.JSON(status, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": user},
	})
}

func (h *AuthController) setCookie(c *gin.Context, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.production || h.scheme(c) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthController) scheme(c *gin.Context) string {
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}
