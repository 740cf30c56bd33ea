package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/memehub/memehub/internal/database"
	apierrors "github.com/memehub/memehub/internal/errors"
	"github.com/memehub/memehub/internal/leaderboard"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/metrics"
	"github.com/memehub/memehub/internal/models"
	"github.com/memehub/memehub/internal/telemetry"
	"github.com/memehub/memehub/internal/util"
	"gorm.io/gorm"
)

// GetMe returns the authenticated user's full profile, including their vote
// history so the client can paint vote buttons.
// GET /api/v1/users/me
func (h *Handlers) GetMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	upvoted, downvoted, err := h.ledger.UserVotes(c.Request.Context(), user.ID)
	if err != nil {
		logger.ErrorWithFields("Failed to load vote history", err)
		util.RespondInternalError(c, "failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":            user,
		"upvoted_memes":   upvoted,
		"downvoted_memes": downvoted,
	})
}

// UpdateMe updates the authenticated user's profile
// PUT /api/v1/users/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Username       *string `json:"username"`
		Bio            *string `json:"bio"`
		ProfilePicture *string `json:"profile_picture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if n := utf8.RuneCountInString(username); n < 3 || n > 20 {
			util.RespondValidationError(c, "username", "username must be 3-20 characters")
			return
		}
		var count int64
		err := database.DB.Model(&models.User{}).
			Where("LOWER(username) = LOWER(?) AND id != ?", username, user.ID).
			Count(&count).Error
		if err != nil {
			logger.ErrorWithFields("Failed to check username", err)
			util.RespondInternalError(c, "failed to update profile")
			return
		}
		if count > 0 {
			util.RespondValidationError(c, "username", "username already taken")
			return
		}
		updates["username"] = username
	}

	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			util.RespondValidationError(c, "bio", "bio must be 160 characters or less")
			return
		}
		updates["bio"] = bio
	}

	if req.ProfilePicture != nil {
		updates["profile_picture"] = *req.ProfilePicture
	}

	if len(updates) > 0 {
		if err := database.DB.Model(user).Updates(updates).Error; err != nil {
			logger.ErrorWithFields("Failed to update profile", err)
			util.RespondInternalError(c, "failed to update profile")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "user": user})
}

// GetUser returns a user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		logger.ErrorWithFields("Failed to load user", err)
		util.RespondInternalError(c, "failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// GetUserStats returns lifetime aggregate stats for a creator, plus their
// highest scoring meme.
// GET /api/v1/users/:id/stats
func (h *Handlers) GetUserStats(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		logger.ErrorWithFields("Failed to load user", err)
		util.RespondInternalError(c, "failed to fetch stats")
		return
	}

	stats, err := h.boards.Stats(c.Request.Context(), userID)
	if err != nil {
		logger.ErrorWithFields("Failed to aggregate stats", err)
		util.RespondWithAPIError(c, apierrors.AggregationFailure("creator stats"))
		return
	}

	timeline, err := h.boards.Timeline(c.Request.Context(), userID)
	if err != nil {
		logger.ErrorWithFields("Failed to aggregate timeline", err)
		util.RespondWithAPIError(c, apierrors.AggregationFailure("creator stats"))
		return
	}

	resp := gin.H{
		"user":     user.Public(),
		"stats":    stats,
		"timeline": timeline,
	}

	// Top meme is the most upvoted one, not the highest scoring
	var topMeme models.Meme
	err = database.DB.Preload("Creator").Preload("Tags").
		Where("creator_id = ?", userID).
		Order("upvotes DESC, created_at DESC").
		First(&topMeme).Error
	if err == nil {
		resp["top_meme"] = memeResponse(&topMeme, false)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.WarnWithFields("Failed to load top meme", err)
	}

	c.JSON(http.StatusOK, resp)
}

// GetUserMemes returns a user's memes, newest first
// GET /api/v1/users/:id/memes
func (h *Handlers) GetUserMemes(c *gin.Context) {
	userID := c.Param("id")
	page, limit, offset := pageParams(c)

	var totalCount int64
	query := database.DB.Model(&models.Meme{}).Where("creator_id = ?", userID)
	if err := query.Count(&totalCount).Error; err != nil {
		logger.ErrorWithFields("Failed to count user memes", err)
		util.RespondInternalError(c, "failed to fetch memes")
		return
	}

	var memes []models.Meme
	err := query.Preload("Creator").Preload("Tags").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&memes).Error
	if err != nil {
		logger.ErrorWithFields("Failed to fetch user memes", err)
		util.RespondInternalError(c, "failed to fetch memes")
		return
	}

	c.JSON(http.StatusOK, memeListResponse(memes, page, limit, totalCount))
}

// GetLeaderboard returns the ranked creator summary for a time frame
// GET /api/v1/users/leaderboard?timeFrame=24h|week|month|all&limit=
func (h *Handlers) GetLeaderboard(c *gin.Context) {
	frame := leaderboard.ParseTimeFrame(c.Query("timeFrame"), leaderboard.TimeFrameWeek)
	limit := util.ParsePositiveInt(c.Query("limit"), leaderboard.DefaultLimit)

	ctx, span := telemetry.GetDomainEvents().TraceLeaderboard(c.Request.Context(), string(frame), limit)
	defer span.End()

	start := time.Now()
	entries, err := h.boards.Compute(ctx, frame, limit)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.ErrorWithFields("Failed to compute leaderboard", err)
		util.RespondWithAPIError(c, apierrors.AggregationFailure("leaderboard"))
		return
	}
	metrics.Get().LeaderboardDuration.Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, gin.H{
		"time_frame":  frame,
		"leaderboard": entries,
	})
}
