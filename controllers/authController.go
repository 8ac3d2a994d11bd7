package controllers

import (
	"errors"
	"net/http"
	"time"

	"mytown-issues/middlewares"
	"mytown-issues/models"
	"mytown-issues/store"
	authUtils "mytown-issues/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthController struct {
	Users      store.UserStore
	Secret     string
	TokenTTL   time.Duration
	Domain     string
	Production bool
	Logger     *zap.Logger
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"createdAt": user.CreatedAt,
	}
}

// RegisterUser handles citizen registration
func (h *AuthController) RegisterUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     models.RoleCitizen,
	}

	if err := user.HashPassword(); err != nil {
		h.Logger.Error("Error hashing password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if err := h.Users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
			return
		}
		h.Logger.Error("Error inserting user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, userResponse(user))
}

// LoginUser checks credentials, returns a token and sets the auth cookie
func (h *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), input.Email)
	if err != nil || !user.ComparePassword(input.Password) {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			h.Logger.Error("Error looking up user", zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := authUtils.GenerateToken(h.Secret, user.ID, string(user.Role), h.TokenTTL)
	if err != nil {
		h.Logger.Error("Error generating token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	h.setAuthCookie(c, token, int(h.TokenTTL.Seconds()))

	resp := userResponse(user)
	resp["token"] = token
	c.JSON(http.StatusOK, resp)
}

// GetMe returns the authenticated user
func (h *AuthController) GetMe(c *gin.Context) {
	user, err := h.Users.FindByID(c.Request.Context(), c.GetString(middlewares.UserIDKey))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.Logger.Error("Error looking up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// LogoutUser clears the auth cookie
func (h *AuthController) LogoutUser(c *gin.Context) {
	h.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// setAuthCookie writes the auth cookie; a negative maxAge deletes it.
func (h *AuthController) setAuthCookie(c *gin.Context, value string, maxAge int) {
	// Cross-origin cookies in production must not pin a domain.
	domain := h.Domain
	if h.Production {
		domain = ""
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Domain:   domain,
		Secure:   h.Production,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}
