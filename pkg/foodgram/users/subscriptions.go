package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/apierror"
	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/pagination"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

// MsgNotSubscribed is returned when deleting a missing subscription.
const MsgNotSubscribed = "You are not subscribed to this author."

// recipesLimit reads ?recipes_limit=; zero means no limit.
func recipesLimit(c *gin.Context) (int, error) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, validation.Single("recipes_limit", "A valid non-negative integer is required.")
	}
	return limit, nil
}

// Subscriptions returns a page of authors the caller follows, each with a
// preview of their recipes
func (h *Handler) Subscriptions(c *gin.Context) {
	viewer := auth.GetViewer(c)

	params, err := h.paginator.Parse(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	authorIDs := h.db.Model(&models.Subscription{}).Select("author_id").Where("user_id = ?", viewer.UserID)
	followed := h.db.Model(&models.User{}).
		Where("users.id IN (?)", authorIDs).
		Session(&gorm.Session{})

	var count int64
	if err := followed.Count(&count).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	var authors []models.User
	if err := params.Apply(followed.Order(userOrder)).Find(&authors).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	results, err := h.render.Subscriptions(viewer, authors, limit)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(h.paginator, c, params, count, results))
}

// Subscribe makes the caller follow the author in the path
func (h *Handler) Subscribe(c *gin.Context) {
	viewer := auth.GetViewer(c)
	authorID, err := parseUserID(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	var author models.User
	if err := h.db.First(&author, authorID).Error; err != nil {
		apierror.Respond(c, h.log, apierror.OrNotFound(err, "User"))
		return
	}

	var existing int64
	if err := h.db.Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", viewer.UserID, author.ID).
		Count(&existing).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	if err := validation.ValidateSubscription(existing > 0, viewer.UserID, author.ID); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	sub := models.Subscription{UserID: viewer.UserID, AuthorID: author.ID}
	if err := h.db.Create(&sub).Error; err != nil {
		if apierror.IsConstraintViolation(err) {
			// Lost a race with an identical request.
			err = validation.Single(validation.NonFieldErrors, validation.MsgSubscribeTwice)
		}
		apierror.Respond(c, h.log, err)
		return
	}

	results, err := h.render.Subscriptions(viewer, []models.User{author}, limit)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	h.log.Debug("subscribed", zap.Uint("user_id", viewer.UserID), zap.Uint("author_id", author.ID))
	c.JSON(http.StatusCreated, results[0])
}

// Unsubscribe removes the caller's subscription to the author in the path
func (h *Handler) Unsubscribe(c *gin.Context) {
	viewer := auth.GetViewer(c)
	authorID, err := parseUserID(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	var author models.User
	if err := h.db.First(&author, authorID).Error; err != nil {
		apierror.Respond(c, h.log, apierror.OrNotFound(err, "User"))
		return
	}

	result := h.db.Where("user_id = ? AND author_id = ?", viewer.UserID, author.ID).Delete(&models.Subscription{})
	if result.Error != nil {
		apierror.Respond(c, h.log, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		apierror.Respond(c, h.log, validation.Single(validation.NonFieldErrors, MsgNotSubscribed))
		return
	}

	c.Status(http.StatusNoContent)
}
