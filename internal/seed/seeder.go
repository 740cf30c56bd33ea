// Package seed populates a database with realistic demo data for local
// development.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/memehub/memehub/internal/badges"
	"github.com/memehub/memehub/internal/models"
	"github.com/memehub/memehub/internal/votes"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder creates demo users, memes, votes and comments.
type Seeder struct {
	db        *gorm.DB
	ledger    *votes.Ledger
	evaluator *badges.Evaluator
}

// NewSeeder creates a seeder for the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	evaluator := badges.NewEvaluator(db)
	return &Seeder{
		db:        db,
		ledger:    votes.NewLedger(db, evaluator),
		evaluator: evaluator,
	}
}

var seedTags = []string{
	"funny", "relatable", "programming", "cats", "dogs",
	"gaming", "monday", "wholesome", "cursed", "classic",
}

// SeedDev fills the database with a realistic amount of demo content. All
// seeded accounts share the password "password123".
func (s *Seeder) SeedDev() error {
	return s.seed(25, 120, 30, 8)
}

// SeedTest creates a minimal data set for manual API poking.
func (s *Seeder) SeedTest() error {
	return s.seed(5, 15, 6, 3)
}

func (s *Seeder) seed(userCount, memeCount, votesPerMeme, commentsPerMeme int) error {
	ctx := context.Background()

	users, err := s.seedUsers(userCount)
	if err != nil {
		return err
	}
	log.Printf("Created %d users", len(users))

	memes, err := s.seedMemes(ctx, users, memeCount)
	if err != nil {
		return err
	}
	log.Printf("Created %d memes", len(memes))

	if err := s.seedVotes(ctx, users, memes, votesPerMeme); err != nil {
		return err
	}
	log.Println("Votes cast")

	if err := s.seedComments(ctx, users, memes, commentsPerMeme); err != nil {
		return err
	}
	log.Println("Comments posted")

	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	hashStr := string(hash)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i)
		if len(username) > 20 {
			username = username[:20]
		}
		user := models.User{
			Email:          fmt.Sprintf("%d_%s", i, gofakeit.Email()),
			Username:       username,
			PasswordHash:   &hashStr,
			Bio:            gofakeit.Sentence(8),
			ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%d", i),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedMemes(ctx context.Context, users []models.User, count int) ([]models.Meme, error) {
	memes := make([]models.Meme, 0, count)
	for i := 0; i < count; i++ {
		creator := users[rand.Intn(len(users))]
		meme := models.Meme{
			Title:       gofakeit.HipsterSentence(5),
			Description: gofakeit.HipsterSentence(12),
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%d/800/600", i),
			CreatorID:   creator.ID,
			Views:       rand.Intn(5000),
		}
		if len(meme.Title) > 100 {
			meme.Title = meme.Title[:100]
		}
		if err := s.db.Create(&meme).Error; err != nil {
			return nil, fmt.Errorf("create meme: %w", err)
		}

		for _, tag := range pickTags() {
			if err := s.db.Create(&models.MemeTag{MemeID: meme.ID, Tag: tag}).Error; err != nil {
				return nil, fmt.Errorf("tag meme: %w", err)
			}
		}

		if err := s.evaluator.EvaluateOnPublish(ctx, creator.ID); err != nil {
			log.Printf("Warning: badge evaluation failed for %s: %v", creator.Username, err)
		}
		memes = append(memes, meme)
	}
	return memes, nil
}

// seedVotes casts votes through the ledger so the counters stay consistent
// with the vote rows and badge thresholds fire naturally.
func (s *Seeder) seedVotes(ctx context.Context, users []models.User, memes []models.Meme, perMeme int) error {
	for _, meme := range memes {
		voters := rand.Intn(perMeme + 1)
		perm := rand.Perm(len(users))
		for v := 0; v < voters && v < len(perm); v++ {
			direction := models.VoteUp
			if rand.Intn(100) < 20 {
				direction = models.VoteDown
			}
			_, err := s.ledger.ApplyVote(ctx, meme.ID, users[perm[v]].ID, direction)
			if err != nil {
				return fmt.Errorf("cast vote: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedComments(ctx context.Context, users []models.User, memes []models.Meme, perMeme int) error {
	for _, meme := range memes {
		n := rand.Intn(perMeme + 1)
		for i := 0; i < n; i++ {
			text := gofakeit.HipsterSentence(6)
			if len(text) > 140 {
				text = text[:140]
			}
			comment := models.Comment{
				MemeID: meme.ID,
				UserID: users[rand.Intn(len(users))].ID,
				Text:   text,
			}
			err := s.db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&comment).Error; err != nil {
					return err
				}
				return tx.Model(&models.Meme{}).Where("id = ?", meme.ID).
					UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
			})
			if err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
		}
		if err := s.evaluator.EvaluateOnComment(ctx, meme.CreatorID); err != nil {
			log.Printf("Warning: comment badge evaluation failed: %v", err)
		}
	}
	return nil
}

// Clean removes all seeded content. Destructive: it truncates every table.
func (s *Seeder) Clean() error {
	for _, model := range []interface{}{
		&models.Comment{}, &models.Vote{}, &models.MemeTag{},
		&models.Meme{}, &models.User{},
	} {
		if err := s.db.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}
	return nil
}

func pickTags() []string {
	n := 1 + rand.Intn(3)
	perm := rand.Perm(len(seedTags))
	tags := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tags = append(tags, seedTags[perm[i]])
	}
	return tags
}
