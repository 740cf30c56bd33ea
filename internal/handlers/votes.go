package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/memehub/memehub/internal/errors"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/metrics"
	"github.com/memehub/memehub/internal/models"
	"github.com/memehub/memehub/internal/telemetry"
	"github.com/memehub/memehub/internal/util"
	"github.com/memehub/memehub/internal/votes"
)

// UpvoteMeme records an upvote
// POST /api/v1/memes/:id/upvote
func (h *Handlers) UpvoteMeme(c *gin.Context) {
	h.applyVote(c, models.VoteUp)
}

// DownvoteMeme records a downvote
// POST /api/v1/memes/:id/downvote
func (h *Handlers) DownvoteMeme(c *gin.Context) {
	h.applyVote(c, models.VoteDown)
}

func (h *Handlers) applyVote(c *gin.Context, direction models.VoteDirection) {
	memeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx, span := telemetry.GetDomainEvents().TraceCastVote(c.Request.Context(), memeID, string(direction))
	defer span.End()

	meme, err := h.ledger.ApplyVote(ctx, memeID, userID, direction)
	if err != nil {
		telemetry.RecordError(span, err)
		switch {
		case errors.Is(err, votes.ErrMemeNotFound):
			util.RespondNotFound(c, "meme")
		case errors.Is(err, votes.ErrUserNotFound):
			util.RespondNotFound(c, "user")
		case errors.Is(err, votes.ErrDuplicateVote):
			metrics.Get().DuplicateVotesTotal.Inc()
			util.RespondWithAPIError(c, apierrors.DuplicateVote(string(direction)))
		default:
			logger.ErrorWithFields("Failed to apply vote", err)
			util.RespondInternalError(c, "failed to apply vote")
		}
		return
	}

	metrics.Get().VotesTotal.WithLabelValues(string(direction)).Inc()

	c.JSON(http.StatusOK, gin.H{
		"message":   "vote recorded",
		"upvotes":   meme.Upvotes,
		"downvotes": meme.Downvotes,
		"score":     meme.Score(),
	})
}
