package handlers

import (
	"context"
	"net/http"

	"food-order-bot/apperr"
	"food-order-bot/middleware"
	"food-order-bot/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
}

type TokenIssuer interface {
	GenerateToken(user *models.User) (string, error)
}

type AuthHandler struct {
	users  Users
	tokens TokenIssuer
	log    *logrus.Entry
}

func NewAuthHandler(users Users, tokens TokenIssuer, log *logrus.Entry) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a back office user and returns a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		respondError(c, h.log, err, logrus.Fields{"operation": "login"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		respondError(c, h.log, err, logrus.Fields{"operation": "login", "user_id": user.ID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":        user.ID,
			"tenant_id": user.TenantID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}

// GetProfile returns the authenticated user's profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err, logrus.Fields{"operation": "profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
