package handlers

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memehub/memehub/internal/models"
	"github.com/memehub/memehub/internal/util"
)

// timeNow is swapped out in tests that need a fixed clock.
var timeNow = time.Now

// Title and description limits match the publish form.
const (
	maxTitleLength       = 100
	maxDescriptionLength = 500
	maxCommentLength     = 140
	maxBioLength         = 160
)

// creatorRef is the embedded creator summary on meme responses.
type creatorRef struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

// commentJSON is the comment shape on meme detail responses.
type commentJSON struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	User      creatorRef `json:"user"`
	CreatedAt string     `json:"created_at"`
}

// memeResponse shapes a meme for JSON, with the derived score and flattened
// tags. Comments are included only on detail responses.
func memeResponse(m *models.Meme, includeComments bool) gin.H {
	resp := gin.H{
		"id":          m.ID,
		"title":       m.Title,
		"description": m.Description,
		"image_url":   m.ImageURL,
		"creator": creatorRef{
			ID:             m.Creator.ID,
			Username:       m.Creator.Username,
			ProfilePicture: m.Creator.ProfilePicture,
		},
		"tags":          m.TagNames(),
		"upvotes":       m.Upvotes,
		"downvotes":     m.Downvotes,
		"score":         m.Score(),
		"views":         m.Views,
		"comment_count": m.CommentCount,
		"created_at":    m.CreatedAt,
	}

	if includeComments {
		comments := make([]commentJSON, 0, len(m.Comments))
		for _, cm := range m.Comments {
			comments = append(comments, commentJSON{
				ID:   cm.ID,
				Text: cm.Text,
				User: creatorRef{
					ID:             cm.User.ID,
					Username:       cm.User.Username,
					ProfilePicture: cm.User.ProfilePicture,
				},
				CreatedAt: cm.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		resp["comments"] = comments
	}

	return resp
}

// memeListResponse shapes a page of memes with pagination metadata.
func memeListResponse(memes []models.Meme, page, limit int, totalCount int64) gin.H {
	items := make([]gin.H, 0, len(memes))
	for i := range memes {
		items = append(items, memeResponse(&memes[i], false))
	}

	totalPages := int(totalCount) / limit
	if int(totalCount)%limit != 0 {
		totalPages++
	}

	return gin.H{
		"memes":        items,
		"current_page": page,
		"total_pages":  totalPages,
		"total_memes":  totalCount,
		"has_more":     totalCount > int64((page-1)*limit+len(memes)),
	}
}

// pageParams reads page/limit query params with the feed defaults.
func pageParams(c *gin.Context) (page, limit, offset int) {
	page = util.ParsePositiveInt(c.Query("page"), 1)
	limit = util.ParsePositiveInt(c.Query("limit"), 10)
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

// decodeImageData decodes a base64 image payload, with or without a
// data-URL prefix, and guesses a filename extension from the declared MIME
// type.
func decodeImageData(imageData string) ([]byte, string, error) {
	filename := "meme.jpg"

	if strings.HasPrefix(imageData, "data:") {
		parts := strings.SplitN(imageData, ",", 2)
		if len(parts) != 2 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		header := parts[0]
		imageData = parts[1]

		switch {
		case strings.Contains(header, "image/png"):
			filename = "meme.png"
		case strings.Contains(header, "image/gif"):
			filename = "meme.gif"
		case strings.Contains(header, "image/webp"):
			filename = "meme.webp"
		case strings.Contains(header, "image/"):
			filename = "meme.jpg"
		default:
			return nil, "", fmt.Errorf("unsupported content type in data URL")
		}
	}

	data, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	return data, filename, nil
}
