package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskdesk/taskdesk/internal/auth"
	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves signup and login, the only public endpoints, plus
// the authenticated session read.
type AuthHandler struct {
	profiles  repository.ProfileRepository
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthHandler(profiles repository.ProfileRepository, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		profiles:  profiles,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

// Signup handles POST /v1/auth/signup.
//
// New accounts start as Worker; only an Administrator can promote them.
// Signup does not log the user in; no token in the response, the
// client goes through Login next.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.profiles.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, h.logger, "check existing user", err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, h.logger, "hash password", err)
		return
	}

	profile, err := h.profiles.Create(c.Request.Context(), req.Email, req.FullName, string(hash), models.RoleWorker)
	if err != nil {
		fail(c, h.logger, "create profile", err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, h.logger, "find user", err)
		return
	}

	// One message for both unknown email and wrong password, so the
	// response doesn't reveal which emails are registered.
	if profile == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(profile.ID, profile.Email, profile.Role, h.jwtSecret, 24*time.Hour)
	if err != nil {
		fail(c, h.logger, "generate token", err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: token, Profile: profile})
}

// Session handles GET /v1/auth/session: the current identity, fresh
// from storage so a role change since login is visible.
func (h *AuthHandler) Session(c *gin.Context) {
	userID := middleware.GetUserID(c)

	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.logger, "load session profile", err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
		return
	}

	c.JSON(http.StatusOK, profile)
}
