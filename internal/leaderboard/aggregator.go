// Package leaderboard computes ranked, time-windowed creator summaries from
// the meme collection. The summary is recomputed from scratch on every
// request; nothing here is incrementally maintained or cached.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/memehub/memehub/internal/badges"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TimeFrame selects how far back memes count toward the leaderboard.
type TimeFrame string

const (
	TimeFrame24h   TimeFrame = "24h"
	TimeFrameWeek  TimeFrame = "week"
	TimeFrameMonth TimeFrame = "month"
	TimeFrameAll   TimeFrame = "all"
)

// DefaultLimit is used when the caller does not ask for a specific size.
const DefaultLimit = 10

// ParseTimeFrame maps a query-string value onto a TimeFrame, falling back to
// the given default for unknown values.
func ParseTimeFrame(s string, fallback TimeFrame) TimeFrame {
	switch TimeFrame(s) {
	case TimeFrame24h, TimeFrameWeek, TimeFrameMonth, TimeFrameAll:
		return TimeFrame(s)
	default:
		return fallback
	}
}

// Cutoff returns the inclusive lower bound on created_at for the frame, and
// false when the frame does not filter at all.
func (tf TimeFrame) Cutoff(now time.Time) (time.Time, bool) {
	switch tf {
	case TimeFrame24h:
		return now.Add(-24 * time.Hour), true
	case TimeFrameWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case TimeFrameMonth:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// Entry is one creator's row on a computed leaderboard. It is derived state
// and never persisted.
type Entry struct {
	Rank           int              `json:"rank"`
	UserID         string           `json:"user_id"`
	Username       string           `json:"username"`
	ProfilePicture string           `json:"profile_picture"`
	Badges         models.BadgeList `json:"badges"`
	TotalMemes     int              `json:"total_memes"`
	TotalUpvotes   int              `json:"total_upvotes"`
	TotalDownvotes int              `json:"total_downvotes"`
	TotalScore     int              `json:"total_score"`
	TotalViews     int              `json:"total_views"`
	TotalComments  int              `json:"total_comments"`
}

// Aggregator computes leaderboards and creator statistics.
type Aggregator struct {
	db        *gorm.DB
	evaluator *badges.Evaluator
	now       func() time.Time
}

// NewAggregator creates a leaderboard aggregator. The evaluator receives the
// weekly-winner side effect.
func NewAggregator(db *gorm.DB, evaluator *badges.Evaluator) *Aggregator {
	return &Aggregator{db: db, evaluator: evaluator, now: time.Now}
}

// groupRow is the raw GROUP BY output before the creator join.
type groupRow struct {
	CreatorID      string
	TotalMemes     int
	TotalUpvotes   int
	TotalDownvotes int
	TotalScore     int
	TotalViews     int
	TotalComments  int
}

// Compute returns the ranked creator summary for the frame, truncated to
// limit entries. Creators with no qualifying memes in the window are absent.
//
// Sort order is total score, then total upvotes, then creator id ascending.
// The last key is not in the product behavior but makes equal-score results
// deterministic.
//
// When the frame is the weekly one and the result is non-empty, the top
// creator is granted weekly_winner as a best-effort side effect.
func (a *Aggregator) Compute(ctx context.Context, frame TimeFrame, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := a.db.WithContext(ctx).Model(&models.Meme{}).
		Select(`creator_id,
			COUNT(*) AS total_memes,
			COALESCE(SUM(upvotes), 0) AS total_upvotes,
			COALESCE(SUM(downvotes), 0) AS total_downvotes,
			COALESCE(SUM(upvotes - downvotes), 0) AS total_score,
			COALESCE(SUM(views), 0) AS total_views,
			COALESCE(SUM(comment_count), 0) AS total_comments`)

	if cutoff, ok := frame.Cutoff(a.now()); ok {
		query = query.Where("created_at >= ?", cutoff)
	}

	var rows []groupRow
	err := query.Group("creator_id").
		Order("total_score DESC, total_upvotes DESC, creator_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate leaderboard: %w", err)
	}

	entries, err := a.joinCreators(ctx, rows)
	if err != nil {
		return nil, err
	}

	if frame == TimeFrameWeek && len(entries) > 0 {
		// Best-effort: a failed grant never affects the returned board.
		if err := a.evaluator.EvaluateWeeklyWinner(ctx, entries[0].UserID); err != nil {
			logger.Log.Warn("weekly winner badge grant failed",
				zap.String("user_id", entries[0].UserID),
				zap.Error(err),
			)
		}
	}

	return entries, nil
}

// joinCreators decorates group rows with creator profile data and assigns
// 1-based ranks in the already-sorted order.
func (a *Aggregator) joinCreators(ctx context.Context, rows []groupRow) ([]Entry, error) {
	if len(rows) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.CreatorID)
	}

	var creators []models.User
	if err := a.db.WithContext(ctx).Where("id IN ?", ids).Find(&creators).Error; err != nil {
		return nil, fmt.Errorf("load creators: %w", err)
	}
	byID := make(map[string]*models.User, len(creators))
	for i := range creators {
		byID[creators[i].ID] = &creators[i]
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		entry := Entry{
			Rank:           i + 1,
			UserID:         row.CreatorID,
			TotalMemes:     row.TotalMemes,
			TotalUpvotes:   row.TotalUpvotes,
			TotalDownvotes: row.TotalDownvotes,
			TotalScore:     row.TotalScore,
			TotalViews:     row.TotalViews,
			TotalComments:  row.TotalComments,
			Badges:         models.BadgeList{},
		}
		if creator, ok := byID[row.CreatorID]; ok {
			entry.Username = creator.Username
			entry.ProfilePicture = creator.ProfilePicture
			if creator.Badges != nil {
				entry.Badges = creator.Badges
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CreatorStats are lifetime aggregate totals for a single creator.
type CreatorStats struct {
	TotalMemes     int     `json:"total_memes"`
	TotalUpvotes   int     `json:"total_upvotes"`
	TotalDownvotes int     `json:"total_downvotes"`
	TotalScore     int     `json:"total_score"`
	TotalViews     int     `json:"total_views"`
	TotalComments  int     `json:"total_comments"`
	AverageScore   float64 `json:"average_score"`
}

// Stats computes lifetime totals for one creator. A creator with no memes
// gets all-zero stats, not an error.
func (a *Aggregator) Stats(ctx context.Context, creatorID string) (*CreatorStats, error) {
	var stats CreatorStats
	err := a.db.WithContext(ctx).Model(&models.Meme{}).
		Select(`COUNT(*) AS total_memes,
			COALESCE(SUM(upvotes), 0) AS total_upvotes,
			COALESCE(SUM(downvotes), 0) AS total_downvotes,
			COALESCE(SUM(upvotes - downvotes), 0) AS total_score,
			COALESCE(SUM(views), 0) AS total_views,
			COALESCE(SUM(comment_count), 0) AS total_comments,
			COALESCE(AVG(upvotes - downvotes), 0) AS average_score`).
		Where("creator_id = ?", creatorID).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate creator stats: %w", err)
	}
	return &stats, nil
}

// TimelinePoint is one day of a creator's publishing activity.
type TimelinePoint struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Upvotes int    `json:"upvotes"`
	Views   int    `json:"views"`
}

// Timeline groups a creator's memes by publication day, oldest first. Days
// with no memes are absent rather than zero-filled.
func (a *Aggregator) Timeline(ctx context.Context, creatorID string) ([]TimelinePoint, error) {
	var points []TimelinePoint
	err := a.db.WithContext(ctx).Model(&models.Meme{}).
		Select(`date(created_at) AS date,
			COUNT(*) AS count,
			COALESCE(SUM(upvotes), 0) AS upvotes,
			COALESCE(SUM(views), 0) AS views`).
		Where("creator_id = ?", creatorID).
		Group("date(created_at)").
		Order("date ASC").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate creator timeline: %w", err)
	}
	if points == nil {
		points = []TimelinePoint{}
	}
	return points, nil
}
