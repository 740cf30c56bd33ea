package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/memehub/memehub/internal/database"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/models"
	"github.com/memehub/memehub/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateComment adds a comment to a meme
// POST /api/v1/memes/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	memeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "comment text is required")
		return
	}

	// Validation happens before anything is written: an over-long comment
	// must not bump any counter.
	text := strings.TrimSpace(req.Text)
	if text == "" {
		util.RespondValidationError(c, "text", "comment cannot be empty")
		return
	}
	// Limits count characters, not bytes
	if utf8.RuneCountInString(text) > maxCommentLength {
		util.RespondValidationError(c, "text", "comment must be 140 characters or less")
		return
	}

	var meme models.Meme
	if err := database.DB.First(&meme, "id = ?", memeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "meme")
			return
		}
		logger.ErrorWithFields("Failed to load meme", err)
		util.RespondInternalError(c, "failed to add comment")
		return
	}

	comment := models.Comment{
		MemeID: memeID,
		UserID: userID,
		Text:   text,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Meme{}).Where("id = ?", memeID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to create comment", err)
		util.RespondInternalError(c, "failed to add comment")
		return
	}

	// The comment_king threshold is measured against the meme's creator, not
	// the commenter. Best-effort, never fails the comment.
	if err := h.evaluator.EvaluateOnComment(c.Request.Context(), meme.CreatorID); err != nil {
		logger.Log.Warn("badge evaluation after comment failed",
			zap.String("creator_id", meme.CreatorID),
			zap.Error(err),
		)
	}

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload comment after create", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "comment added",
		"comment": commentJSON{
			ID:   comment.ID,
			Text: comment.Text,
			User: creatorRef{
				ID:             comment.User.ID,
				Username:       comment.User.Username,
				ProfilePicture: comment.User.ProfilePicture,
			},
			CreatedAt: comment.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		},
	})
}
