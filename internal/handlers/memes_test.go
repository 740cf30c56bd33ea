package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/memehub/memehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) postJSON(path, userID string, body interface{}) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) get(path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func testImagePayload() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a real png"))
}

// =============================================================================
// CREATE MEME
// =============================================================================

func (suite *HandlersTestSuite) TestCreateMeme() {
	t := suite.T()

	w := suite.postJSON("/api/v1/memes", suite.testUser.ID, map[string]interface{}{
		"title":       "My first meme",
		"description": "quality content",
		"image_data":  testImagePayload(),
		"tags":        []string{"Funny", "funny", "  cats  "},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Meme struct {
			ID       string   `json:"id"`
			Title    string   `json:"title"`
			ImageURL string   `json:"image_url"`
			Tags     []string `json:"tags"`
		} `json:"meme"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "My first meme", resp.Meme.Title)
	assert.Contains(t, resp.Meme.ImageURL, "https://cdn.test/")
	// Tags are lowercased, trimmed and deduplicated
	assert.ElementsMatch(t, []string{"funny", "cats"}, resp.Meme.Tags)
	assert.Equal(t, 1, suite.uploader.uploads)

	// First publish grants first_upload
	var creator models.User
	require.NoError(t, suite.db.First(&creator, "id = ?", suite.testUser.ID).Error)
	assert.True(t, creator.HasBadge(models.BadgeFirstUpload))
}

func (suite *HandlersTestSuite) TestCreateMemeRequiresAuth() {
	t := suite.T()
	w := suite.postJSON("/api/v1/memes", "", map[string]interface{}{
		"title":      "nope",
		"image_data": testImagePayload(),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestCreateMemeMissingTitle() {
	t := suite.T()
	w := suite.postJSON("/api/v1/memes", suite.testUser.ID, map[string]interface{}{
		"image_data": testImagePayload(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreateMemeTitleTooLong() {
	t := suite.T()
	w := suite.postJSON("/api/v1/memes", suite.testUser.ID, map[string]interface{}{
		"title":      strings.Repeat("a", maxTitleLength+1),
		"image_data": testImagePayload(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 0, suite.uploader.uploads)
}

func (suite *HandlersTestSuite) TestCreateMemeMultibyteTitleAtMaxLength() {
	t := suite.T()
	// 100 two-byte runes are 100 characters, not 200
	w := suite.postJSON("/api/v1/memes", suite.testUser.ID, map[string]interface{}{
		"title":      strings.Repeat("ü", maxTitleLength),
		"image_data": testImagePayload(),
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func (suite *HandlersTestSuite) TestCreateMemeDescriptionTooLong() {
	t := suite.T()
	w := suite.postJSON("/api/v1/memes", suite.testUser.ID, map[string]interface{}{
		"title":       "fine title",
		"description": strings.Repeat("d", maxDescriptionLength+1),
		"image_data":  testImagePayload(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestCreateMemeBadImageData() {
	t := suite.T()
	w := suite.postJSON("/api/v1/memes", suite.testUser.ID, map[string]interface{}{
		"title":      "fine title",
		"image_data": "!!!not base64!!!",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 0, suite.uploader.uploads)
}

// =============================================================================
// GET MEME
// =============================================================================

func (suite *HandlersTestSuite) TestGetMemeIncrementsViews() {
	t := suite.T()
	meme := suite.createMeme(suite.testUser, "viewable")

	w := suite.get("/api/v1/memes/" + meme.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Views    int           `json:"views"`
		Score    int           `json:"score"`
		Comments []commentJSON `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Views)
	assert.NotNil(t, resp.Comments)

	// Every fetch counts
	suite.get("/api/v1/memes/" + meme.ID)
	var reloaded models.Meme
	require.NoError(t, suite.db.First(&reloaded, "id = ?", meme.ID).Error)
	assert.Equal(t, 2, reloaded.Views)
}

func (suite *HandlersTestSuite) TestGetMemeNotFound() {
	t := suite.T()
	w := suite.get("/api/v1/memes/00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// LIST MEMES
// =============================================================================

func (suite *HandlersTestSuite) TestListMemesPagination() {
	t := suite.T()
	for i := 0; i < 15; i++ {
		suite.createMeme(suite.testUser, "meme")
	}

	w := suite.get("/api/v1/memes?page=1&limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Memes      []json.RawMessage `json:"memes"`
		TotalPages int               `json:"total_pages"`
		TotalMemes int               `json:"total_memes"`
		HasMore    bool              `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Memes, 10)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 15, resp.TotalMemes)
	assert.True(t, resp.HasMore)

	w = suite.get("/api/v1/memes?page=2&limit=10")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Memes, 5)
	assert.False(t, resp.HasMore)
}

func (suite *HandlersTestSuite) TestListMemesSortTop() {
	t := suite.T()
	low := suite.createMeme(suite.testUser, "low")
	high := suite.createMeme(suite.testUser, "high")
	require.NoError(t, suite.db.Model(high).UpdateColumn("upvotes", 50).Error)
	require.NoError(t, suite.db.Model(low).UpdateColumn("upvotes", 5).Error)

	w := suite.get("/api/v1/memes?sort=top")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Memes []struct {
			ID string `json:"id"`
		} `json:"memes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Memes, 2)
	assert.Equal(t, high.ID, resp.Memes[0].ID)
}

func (suite *HandlersTestSuite) TestListMemesTagFilter() {
	t := suite.T()
	tagged := suite.createMeme(suite.testUser, "tagged")
	suite.createMeme(suite.testUser, "untagged")
	require.NoError(t, suite.db.Create(&models.MemeTag{MemeID: tagged.ID, Tag: "cats"}).Error)

	w := suite.get("/api/v1/memes?tag=cats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Memes []struct {
			ID string `json:"id"`
		} `json:"memes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Memes, 1)
	assert.Equal(t, tagged.ID, resp.Memes[0].ID)
}

// =============================================================================
// DELETE MEME
// =============================================================================

func (suite *HandlersTestSuite) TestDeleteMeme() {
	t := suite.T()
	meme := suite.createMeme(suite.testUser, "doomed")
	require.NoError(t, suite.db.Create(&models.MemeTag{MemeID: meme.ID, Tag: "cats"}).Error)
	require.NoError(t, suite.db.Create(&models.Comment{MemeID: meme.ID, UserID: suite.testUser.ID, Text: "rip"}).Error)

	req, _ := http.NewRequest("DELETE", "/api/v1/memes/"+meme.ID, nil)
	req.Header.Set("X-User-ID", suite.testUser.ID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Meme{}).Where("id = ?", meme.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	suite.db.Model(&models.Comment{}).Where("meme_id = ?", meme.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	suite.db.Model(&models.MemeTag{}).Where("meme_id = ?", meme.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// The stored image goes too
	assert.Len(t, suite.uploader.deleted, 1)
}

func (suite *HandlersTestSuite) TestDeleteMemeNotCreator() {
	t := suite.T()
	meme := suite.createMeme(suite.testUser, "protected")
	intruder := suite.createUser("intruder")

	req, _ := http.NewRequest("DELETE", "/api/v1/memes/"+meme.ID, nil)
	req.Header.Set("X-User-ID", intruder.ID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	suite.db.Model(&models.Meme{}).Where("id = ?", meme.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestDeleteMemeNotFound() {
	t := suite.T()
	req, _ := http.NewRequest("DELETE", "/api/v1/memes/00000000-0000-0000-0000-000000000000", nil)
	req.Header.Set("X-User-ID", suite.testUser.ID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// TRENDING TAGS
// =============================================================================

func (suite *HandlersTestSuite) TestGetTrendingTags() {
	t := suite.T()
	a := suite.createMeme(suite.testUser, "a")
	b := suite.createMeme(suite.testUser, "b")
	c := suite.createMeme(suite.testUser, "c")
	for _, m := range []*models.Meme{a, b, c} {
		require.NoError(t, suite.db.Create(&models.MemeTag{MemeID: m.ID, Tag: "funny"}).Error)
	}
	require.NoError(t, suite.db.Create(&models.MemeTag{MemeID: a.ID, Tag: "cats"}).Error)

	w := suite.get("/api/v1/memes/trending-tags")
	require.Equal(t, http.StatusOK, w.Code)

	var tags []struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	require.Len(t, tags, 2)
	assert.Equal(t, "funny", tags[0].Tag)
	assert.Equal(t, 3, tags[0].Count)
	assert.Equal(t, "cats", tags[1].Tag)
}
