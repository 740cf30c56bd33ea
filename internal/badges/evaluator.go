// Package badges grants achievement badges when creator statistics cross
// fixed thresholds. Granting is best-effort: callers treat evaluator failures
// as advisory and never roll back the vote, comment or publish that
// triggered the evaluation.
package badges

import (
	"context"
	"errors"
	"fmt"

	"github.com/memehub/memehub/internal/models"
	"github.com/memehub/memehub/internal/telemetry"
	"gorm.io/gorm"
)

// Qualifying thresholds.
const (
	ViralPostUpvotes     = 100
	ProlificCreatorMemes = 10
	CommentKingComments  = 50
)

// ErrUserNotFound is returned when the creator to evaluate does not exist.
var ErrUserNotFound = errors.New("user not found")

// Evaluator grants badges idempotently: granting a badge the user already
// holds is a silent no-op, never an error.
type Evaluator struct {
	db *gorm.DB
}

// NewEvaluator creates a badge evaluator backed by the given database.
func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db}
}

// EvaluateOnPublish checks publish-count badges for a creator. Exactly one
// meme earns first_upload; ten or more earn prolific_creator.
func (e *Evaluator) EvaluateOnPublish(ctx context.Context, creatorID string) error {
	var count int64
	if err := e.db.WithContext(ctx).Model(&models.Meme{}).
		Where("creator_id = ?", creatorID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count memes for creator %s: %w", creatorID, err)
	}

	if count == 1 {
		return e.Grant(ctx, creatorID, models.BadgeFirstUpload)
	}
	if count >= ProlificCreatorMemes {
		return e.Grant(ctx, creatorID, models.BadgeProlificCreator)
	}
	return nil
}

// EvaluateOnUpvote grants viral_post to the meme's creator once the meme has
// accumulated enough upvotes.
func (e *Evaluator) EvaluateOnUpvote(ctx context.Context, memeID string) error {
	var meme models.Meme
	if err := e.db.WithContext(ctx).First(&meme, "id = ?", memeID).Error; err != nil {
		return fmt.Errorf("load meme %s: %w", memeID, err)
	}

	if meme.Upvotes < ViralPostUpvotes {
		return nil
	}
	return e.Grant(ctx, meme.CreatorID, models.BadgeViralPost)
}

// EvaluateOnComment grants comment_king once the total comment count across
// all of the creator's memes reaches the threshold.
func (e *Evaluator) EvaluateOnComment(ctx context.Context, creatorID string) error {
	var total int64
	err := e.db.WithContext(ctx).Model(&models.Meme{}).
		Where("creator_id = ?", creatorID).
		Select("COALESCE(SUM(comment_count), 0)").
		Scan(&total).Error
	if err != nil {
		return fmt.Errorf("sum comment counts for creator %s: %w", creatorID, err)
	}

	if total < CommentKingComments {
		return nil
	}
	return e.Grant(ctx, creatorID, models.BadgeCommentKing)
}

// EvaluateWeeklyWinner grants weekly_winner to the top creator of a weekly
// leaderboard. The badge accumulates across weeks: a new winner never
// removes it from a previous one.
func (e *Evaluator) EvaluateWeeklyWinner(ctx context.Context, creatorID string) error {
	return e.Grant(ctx, creatorID, models.BadgeWeeklyWinner)
}

// Grant adds a badge to the user's set if missing. The badge set is
// monotonic; re-granting a held badge succeeds without touching the row.
func (e *Evaluator) Grant(ctx context.Context, userID string, badge models.Badge) error {
	if !badge.IsValid() {
		return fmt.Errorf("unknown badge %q", badge)
	}

	ctx, span := telemetry.GetDomainEvents().TraceBadgeGrant(ctx, userID, string(badge))
	defer span.End()

	var user models.User
	if err := e.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("grant %s: %w", badge, ErrUserNotFound)
		}
		return fmt.Errorf("load user %s: %w", userID, err)
	}

	if user.HasBadge(badge) {
		return nil
	}

	user.Badges = append(user.Badges, badge)
	if err := e.db.WithContext(ctx).Model(&user).
		Update("badges", user.Badges).Error; err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("save badge %s for user %s: %w", badge, userID, err)
	}
	return nil
}
