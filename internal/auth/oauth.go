package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/memehub/memehub/internal/database"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleUserInfo represents Google OAuth user response
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// HandleGoogleCallback exchanges the authorization code, fetches the user
// info and signs the user in, creating the account on first login.
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*AuthResponse, error) {
	userInfo, err := s.getGoogleUserInfo(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google user info: %w", err)
	}
	return s.findOrCreateGoogleUser(userInfo)
}

func (s *Service) getGoogleUserInfo(ctx context.Context, code string) (*GoogleUserInfo, error) {
	// Outbound Google calls are traced; oauth2 picks the client up from the
	// context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})

	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	client := s.googleConfig.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read userinfo response: %w", err)
	}

	var info GoogleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}
	if info.Email == "" {
		return nil, errors.New("google userinfo missing email")
	}
	return &info, nil
}

// findOrCreateGoogleUser implements email-based account unification: an
// existing native account with the same email gets the Google identity
// linked instead of a duplicate account.
func (s *Service) findOrCreateGoogleUser(info *GoogleUserInfo) (*AuthResponse, error) {
	var user models.User
	err := database.DB.Where("google_id = ?", info.Sub).First(&user).Error
	if err == nil {
		return s.generateAuthResponse(&user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	err = database.DB.Where("LOWER(email) = LOWER(?)", info.Email).First(&user).Error
	if err == nil {
		// Link Google identity to the existing account
		user.GoogleID = &info.Sub
		if user.ProfilePicture == "" {
			user.ProfilePicture = info.Picture
		}
		if err := database.DB.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
		logger.Log.Info("Linked Google identity to existing account",
			zap.String("user_id", user.ID),
		)
		return s.generateAuthResponse(&user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	user = models.User{
		Email:          info.Email,
		Username:       s.uniqueUsernameFor(info.Name, info.Email),
		GoogleID:       &info.Sub,
		ProfilePicture: info.Picture,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create google user: %w", err)
	}

	logger.Log.Info("Created account from Google login",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return s.generateAuthResponse(&user)
}

// uniqueUsernameFor derives a username from the Google display name and
// suffixes it until it no longer collides.
func (s *Service) uniqueUsernameFor(name, email string) string {
	base := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	if base == "" {
		base = strings.ToLower(strings.SplitN(email, "@", 2)[0])
	}
	if len(base) < 3 {
		base = base + "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}

	candidate := base
	for i := 1; ; i++ {
		var count int64
		database.DB.Model(&models.User{}).
			Where("LOWER(username) = LOWER(?)", candidate).
			Count(&count)
		if count == 0 {
			return candidate
		}
		suffix := fmt.Sprintf("%d", i)
		if len(base)+len(suffix) > 20 {
			candidate = base[:20-len(suffix)] + suffix
		} else {
			candidate = base + suffix
		}
	}
}
