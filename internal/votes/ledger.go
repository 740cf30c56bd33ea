// Package votes records directional votes on memes and keeps the meme's
// aggregate counters consistent with the set of votes cast.
//
// Each (user, meme) pair is a three-state machine: none, up, down. A vote in
// the direction already held is rejected; a vote in the opposite direction
// switches state and moves one count between the counters. Retracting a vote
// entirely is not supported.
package votes

import (
	"context"
	"errors"
	"fmt"

	"github.com/memehub/memehub/internal/badges"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrMemeNotFound is returned when the voted meme does not exist.
	ErrMemeNotFound = errors.New("meme not found")
	// ErrUserNotFound is returned when the voting user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateVote is returned when the user already holds a vote in the
	// requested direction on this meme.
	ErrDuplicateVote = errors.New("duplicate vote")
	// ErrInvalidDirection is returned for directions outside up/down.
	ErrInvalidDirection = errors.New("invalid vote direction")
)

// Ledger applies votes and triggers badge evaluation on successful upvotes.
type Ledger struct {
	db        *gorm.DB
	evaluator *badges.Evaluator
}

// NewLedger creates a vote ledger backed by the given database.
func NewLedger(db *gorm.DB, evaluator *badges.Evaluator) *Ledger {
	return &Ledger{db: db, evaluator: evaluator}
}

// ApplyVote records a directional vote by userID on memeID and returns the
// meme with updated counters.
//
// Counter updates are issued as atomic column expressions, and the votes
// table carries a unique (user_id, meme_id) index, so two concurrent
// identical votes cannot both land: the loser of the insert race gets
// ErrDuplicateVote instead of double-counting.
func (l *Ledger) ApplyVote(ctx context.Context, memeID, userID string, direction models.VoteDirection) (*models.Meme, error) {
	if direction != models.VoteUp && direction != models.VoteDown {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	var user models.User
	if err := l.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	var meme models.Meme
	if err := l.db.WithContext(ctx).First(&meme, "id = ?", memeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemeNotFound
		}
		return nil, fmt.Errorf("load meme: %w", err)
	}

	var existing models.Vote
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND meme_id = ?", userID, memeID).
		First(&existing).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = l.castFirstVote(ctx, memeID, userID, direction)
	case err != nil:
		return nil, fmt.Errorf("load vote: %w", err)
	case existing.Direction == direction:
		return nil, ErrDuplicateVote
	default:
		err = l.switchVote(ctx, &existing, direction)
	}
	if err != nil {
		return nil, err
	}

	if err := l.db.WithContext(ctx).First(&meme, "id = ?", memeID).Error; err != nil {
		return nil, fmt.Errorf("reload meme: %w", err)
	}

	// Badge evaluation is advisory: a failure here must never fail the vote.
	if direction == models.VoteUp {
		if err := l.evaluator.EvaluateOnUpvote(ctx, memeID); err != nil {
			logger.Log.Warn("badge evaluation after upvote failed",
				zap.String("meme_id", memeID),
				zap.Error(err),
			)
		}
	}

	return &meme, nil
}

// castFirstVote inserts the ledger entry and bumps the matching counter. The
// insert and the counter update commit together so the counters always equal
// the per-direction row counts.
func (l *Ledger) castFirstVote(ctx context.Context, memeID, userID string, direction models.VoteDirection) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vote := models.Vote{
			UserID:    userID,
			MemeID:    memeID,
			Direction: direction,
		}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race against an identical concurrent vote.
				return ErrDuplicateVote
			}
			return fmt.Errorf("insert vote: %w", err)
		}

		column := counterColumn(direction)
		if err := tx.Model(&models.Meme{}).Where("id = ?", memeID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error; err != nil {
			return fmt.Errorf("increment %s: %w", column, err)
		}
		return nil
	})
}

// switchVote flips an existing vote to the opposite direction, decrementing
// the old counter and incrementing the new one in a single update.
func (l *Ledger) switchVote(ctx context.Context, vote *models.Vote, direction models.VoteDirection) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Vote{}).
			Where("id = ? AND direction = ?", vote.ID, vote.Direction).
			Update("direction", direction)
		if res.Error != nil {
			return fmt.Errorf("switch vote: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Someone else switched it first; their counter math already
			// covers this transition.
			return ErrDuplicateVote
		}

		oldColumn := counterColumn(vote.Direction)
		newColumn := counterColumn(direction)
		err := tx.Model(&models.Meme{}).Where("id = ?", vote.MemeID).
			UpdateColumns(map[string]interface{}{
				oldColumn: gorm.Expr(oldColumn + " - 1"),
				newColumn: gorm.Expr(newColumn + " + 1"),
			}).Error
		if err != nil {
			return fmt.Errorf("move count from %s to %s: %w", oldColumn, newColumn, err)
		}
		return nil
	})
}

// UserVotes returns the meme ids the user has upvoted and downvoted. The two
// sets are disjoint by construction.
func (l *Ledger) UserVotes(ctx context.Context, userID string) (upvoted, downvoted []string, err error) {
	var rows []models.Vote
	if err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("load votes: %w", err)
	}

	upvoted = make([]string, 0, len(rows))
	downvoted = make([]string, 0)
	for _, v := range rows {
		if v.Direction == models.VoteUp {
			upvoted = append(upvoted, v.MemeID)
		} else {
			downvoted = append(downvoted, v.MemeID)
		}
	}
	return upvoted, downvoted, nil
}

// PurgeMeme removes all ledger entries for a deleted meme.
func (l *Ledger) PurgeMeme(ctx context.Context, memeID string) error {
	if err := l.db.WithContext(ctx).
		Where("meme_id = ?", memeID).
		Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("purge votes for meme %s: %w", memeID, err)
	}
	return nil
}

func counterColumn(direction models.VoteDirection) string {
	if direction == models.VoteUp {
		return "upvotes"
	}
	return "downvotes"
}
