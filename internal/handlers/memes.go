package handlers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/memehub/memehub/internal/database"
	apierrors "github.com/memehub/memehub/internal/errors"
	"github.com/memehub/memehub/internal/leaderboard"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/models"
	"github.com/memehub/memehub/internal/telemetry"
	"github.com/memehub/memehub/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListMemes returns a paginated feed with sorting and filters
// GET /api/v1/memes?page=&limit=&sort=new|top&timeFrame=24h|week|month|all&tag=
func (h *Handlers) ListMemes(c *gin.Context) {
	page, limit, offset := pageParams(c)

	query := database.DB.Model(&models.Meme{})

	if tag := c.Query("tag"); tag != "" {
		query = query.Joins("JOIN meme_tags ON meme_tags.meme_id = memes.id").
			Where("meme_tags.tag = ?", tag)
	}

	frame := leaderboard.ParseTimeFrame(c.Query("timeFrame"), leaderboard.TimeFrameAll)
	if cutoff, ok := frame.Cutoff(timeNow()); ok {
		query = query.Where("memes.created_at >= ?", cutoff)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		logger.ErrorWithFields("Failed to count memes", err)
		util.RespondInternalError(c, "failed to fetch memes")
		return
	}

	switch c.DefaultQuery("sort", "new") {
	case "top":
		query = query.Order("memes.upvotes DESC, memes.created_at DESC")
	default:
		query = query.Order("memes.created_at DESC")
	}

	var memes []models.Meme
	err := query.Preload("Creator").Preload("Tags").
		Offset(offset).Limit(limit).
		Find(&memes).Error
	if err != nil {
		logger.ErrorWithFields("Failed to fetch memes", err)
		util.RespondInternalError(c, "failed to fetch memes")
		return
	}

	c.JSON(http.StatusOK, memeListResponse(memes, page, limit, totalCount))
}

// GetMeme returns a single meme with its comments, counting the view
// GET /api/v1/memes/:id
func (h *Handlers) GetMeme(c *gin.Context) {
	memeID := c.Param("id")

	// The view counter is bumped atomically; RowsAffected doubles as the
	// existence check.
	res := database.DB.Model(&models.Meme{}).Where("id = ?", memeID).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		logger.ErrorWithFields("Failed to increment view count", res.Error)
		util.RespondInternalError(c, "failed to fetch meme")
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "meme")
		return
	}

	var meme models.Meme
	err := database.DB.Preload("Creator").Preload("Tags").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User").
		First(&meme, "id = ?", memeID).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load meme", err)
		util.RespondInternalError(c, "failed to fetch meme")
		return
	}

	c.JSON(http.StatusOK, memeResponse(&meme, true))
}

// CreateMeme publishes a new meme
// POST /api/v1/memes
func (h *Handlers) CreateMeme(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description"`
		ImageData   string   `json:"image_data" binding:"required"`
		Tags        []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "title and image are required")
		return
	}

	if utf8.RuneCountInString(req.Title) > maxTitleLength {
		util.RespondValidationError(c, "title", "title must be 100 characters or less")
		return
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLength {
		util.RespondValidationError(c, "description", "description must be 500 characters or less")
		return
	}

	imageBytes, filename, err := decodeImageData(req.ImageData)
	if err != nil {
		util.RespondValidationError(c, "image_data", err.Error())
		return
	}

	ctx, span := telemetry.GetDomainEvents().TraceMemePublish(c.Request.Context(), userID, int64(len(imageBytes)))
	defer span.End()

	upload, err := h.uploader.UploadImage(ctx, imageBytes, userID, filename)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.ErrorWithFields("Image upload failed", err)
		util.RespondInternalError(c, "image upload failed")
		return
	}

	meme := models.Meme{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    upload.URL,
		CreatorID:   userID,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&meme).Error; err != nil {
			return err
		}
		for _, tag := range util.NormalizeTags(req.Tags) {
			if err := tx.Create(&models.MemeTag{MemeID: meme.ID, Tag: tag}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		logger.ErrorWithFields("Failed to create meme", err)
		util.RespondInternalError(c, "failed to create meme")
		return
	}

	// Badge evaluation is best-effort and never fails the publish
	if err := h.evaluator.EvaluateOnPublish(ctx, userID); err != nil {
		logger.Log.Warn("badge evaluation after publish failed",
			zap.String("creator_id", userID),
			zap.Error(err),
		)
	}

	if err := database.DB.Preload("Creator").Preload("Tags").
		First(&meme, "id = ?", meme.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload meme after create", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "meme created successfully",
		"meme":    memeResponse(&meme, false),
	})
}

// DeleteMeme removes a meme. Only its creator may delete it.
// DELETE /api/v1/memes/:id
func (h *Handlers) DeleteMeme(c *gin.Context) {
	memeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var meme models.Meme
	if err := database.DB.First(&meme, "id = ?", memeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "meme")
			return
		}
		logger.ErrorWithFields("Failed to load meme", err)
		util.RespondInternalError(c, "failed to delete meme")
		return
	}

	if meme.CreatorID != userID {
		util.RespondForbidden(c, "not authorized to delete this meme")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meme_id = ?", memeID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meme_id = ?", memeID).Delete(&models.MemeTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meme_id = ?", memeID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&meme).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to delete meme", err)
		util.RespondInternalError(c, "failed to delete meme")
		return
	}

	// Stored image cleanup is best-effort; a stale object is not worth a
	// failed delete.
	if key := h.uploader.KeyFromURL(meme.ImageURL); key != "" {
		if err := h.uploader.DeleteImage(c.Request.Context(), key); err != nil {
			logger.WarnWithFields("Failed to delete meme image", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "meme deleted successfully"})
}

// GetTrendingTags returns the most used tags
// GET /api/v1/memes/trending-tags?limit=
func (h *Handlers) GetTrendingTags(c *gin.Context) {
	limit := util.ParsePositiveInt(c.Query("limit"), 10)

	type tagCount struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}

	var tags []tagCount
	err := database.DB.Model(&models.MemeTag{}).
		Select("tag, COUNT(*) AS count").
		Group("tag").
		Order("count DESC, tag ASC").
		Limit(limit).
		Scan(&tags).Error
	if err != nil {
		logger.ErrorWithFields("Failed to aggregate trending tags", err)
		util.RespondWithAPIError(c, apierrors.AggregationFailure("trending tags"))
		return
	}

	c.JSON(http.StatusOK, tags)
}
