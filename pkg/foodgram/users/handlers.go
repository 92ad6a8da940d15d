package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/apierror"
	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/pagination"
	"github.com/impactys/foodgram/pkg/foodgram/projection"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

// Handler handles user and subscription requests
type Handler struct {
	db        *gorm.DB
	log       *zap.Logger
	render    *projection.Renderer
	paginator pagination.Paginator
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB, log *zap.Logger, render *projection.Renderer, paginator pagination.Paginator) *Handler {
	validation.Setup()
	return &Handler{db: db, log: log, render: render, paginator: paginator}
}

// RegisterRequest represents the sign up request body
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

// RegisterResponse is returned after sign up
type RegisterResponse struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SetPasswordRequest represents the change password request body
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

const userOrder = "users.username ASC"

func parseUserID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apierror.NotFound("User")
	}
	return uint(id), nil
}

// Register creates a new account
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, validation.FromBindError(err))
		return
	}

	errs := validation.Errors{}
	var taken int64
	if err := h.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&taken).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	if taken > 0 {
		errs.Add("email", "A user with that email already exists.")
	}
	if err := h.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&taken).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	if taken > 0 {
		errs.Add("username", "A user with that username already exists.")
	}
	if err := errs.Err(); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}
	if err := h.db.Create(&user).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	h.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	c.JSON(http.StatusCreated, RegisterResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// List returns a page of users
func (h *Handler) List(c *gin.Context) {
	params, err := h.paginator.Parse(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	var count int64
	if err := h.db.Model(&models.User{}).Count(&count).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	var users []models.User
	if err := params.Apply(h.db.Order(userOrder)).Find(&users).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	results, err := h.render.Users(auth.GetViewer(c), users)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(h.paginator, c, params, count, results))
}

// Get returns a single user profile
func (h *Handler) Get(c *gin.Context) {
	id, err := parseUserID(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	h.respondUser(c, id)
}

// Me returns the profile of the caller
func (h *Handler) Me(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	h.respondUser(c, userID)
}

func (h *Handler) respondUser(c *gin.Context, id uint) {
	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		apierror.Respond(c, h.log, apierror.OrNotFound(err, "User"))
		return
	}

	resp, err := h.render.User(auth.GetViewer(c), user)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetPassword changes the caller's password
func (h *Handler) SetPassword(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, validation.FromBindError(err))
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apierror.ErrUnauthorized
		}
		apierror.Respond(c, h.log, err)
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		apierror.Respond(c, h.log, validation.Single("current_password", "Invalid password."))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	if err := h.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers user routes. The group is expected to run
// auth.OptionalAuthMiddleware so that anonymous listing works.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.POST("", h.Register)
	users.GET("", h.List)
	users.GET("/me", auth.RequireUser(), h.Me)
	users.POST("/set_password", auth.RequireUser(), h.SetPassword)
	users.GET("/subscriptions", auth.RequireUser(), h.Subscriptions)
	users.GET("/:id", h.Get)
	users.POST("/:id/subscribe", auth.RequireUser(), h.Subscribe)
	users.DELETE("/:id/subscribe", auth.RequireUser(), h.Unsubscribe)
}
