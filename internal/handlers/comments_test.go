package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/memehub/memehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestCreateComment() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "commentable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", suite.testUser.ID, map[string]interface{}{
		"text": "  nice one  ",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Comment struct {
			Text string `json:"text"`
			User struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "nice one", resp.Comment.Text)
	assert.Equal(t, "testuser", resp.Comment.User.Username)

	var reloaded models.Meme
	require.NoError(t, suite.db.First(&reloaded, "id = ?", meme.ID).Error)
	assert.Equal(t, 1, reloaded.CommentCount)
}

func (suite *HandlersTestSuite) TestCreateCommentAtMaxLength() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "commentable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", suite.testUser.ID, map[string]interface{}{
		"text": strings.Repeat("x", maxCommentLength),
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func (suite *HandlersTestSuite) TestCreateCommentMultibyteAtMaxLength() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "commentable")

	// The limit counts characters, so 140 two-byte runes still fit
	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", suite.testUser.ID, map[string]interface{}{
		"text": strings.Repeat("é", maxCommentLength),
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", suite.testUser.ID, map[string]interface{}{
		"text": strings.Repeat("é", maxCommentLength+1),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestCreateCommentTooLong() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "commentable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", suite.testUser.ID, map[string]interface{}{
		"text": strings.Repeat("x", maxCommentLength+1),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Rejected comment must not create a row or bump the counter
	var count int64
	suite.db.Model(&models.Comment{}).Where("meme_id = ?", meme.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	var reloaded models.Meme
	require.NoError(t, suite.db.First(&reloaded, "id = ?", meme.ID).Error)
	assert.Equal(t, 0, reloaded.CommentCount)
}

func (suite *HandlersTestSuite) TestCreateCommentWhitespaceOnly() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "commentable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", suite.testUser.ID, map[string]interface{}{
		"text": "    ",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestCreateCommentMemeNotFound() {
	t := suite.T()
	w := suite.postJSON("/api/v1/memes/00000000-0000-0000-0000-000000000000/comments", suite.testUser.ID, map[string]interface{}{
		"text": "hello?",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestCreateCommentRequiresAuth() {
	t := suite.T()
	meme := suite.createMeme(suite.testUser, "commentable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", "", map[string]interface{}{
		"text": "anonymous",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestCommentsCreditMemeCreator() {
	t := suite.T()
	creator := suite.createUser("creator")
	meme := suite.createMeme(creator, "commentable")

	// Park creator one comment short of the threshold, then comment
	require.NoError(t, suite.db.Model(&models.Meme{}).Where("id = ?", meme.ID).
		UpdateColumn("comment_count", 49).Error)

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", suite.testUser.ID, map[string]interface{}{
		"text": "the fiftieth",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The badge lands on the meme's creator, not the commenter
	var reloadedCreator, reloadedCommenter models.User
	require.NoError(t, suite.db.First(&reloadedCreator, "id = ?", creator.ID).Error)
	require.NoError(t, suite.db.First(&reloadedCommenter, "id = ?", suite.testUser.ID).Error)
	assert.True(t, reloadedCreator.HasBadge(models.BadgeCommentKing))
	assert.False(t, reloadedCommenter.HasBadge(models.BadgeCommentKing))
}

func (suite *HandlersTestSuite) TestGetMemeIncludesComments() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "commentable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/comments", suite.testUser.ID, map[string]interface{}{
		"text": "first",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.get("/api/v1/memes/" + meme.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Comments []struct {
			Text string `json:"text"`
		} `json:"comments"`
		CommentCount int `json:"comment_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Comments, 1)
	assert.Equal(t, "first", resp.Comments[0].Text)
	assert.Equal(t, 1, resp.CommentCount)
}
