package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/memehub/memehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) putJSON(path, userID string, body interface{}) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("PUT", path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) getAs(path, userID string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	req.Header.Set("X-User-ID", userID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) TestGetMeIncludesVoteHistory() {
	t := suite.T()
	creator := suite.createUser("creator")
	up := suite.createMeme(creator, "liked")
	down := suite.createMeme(creator, "disliked")

	require.Equal(t, http.StatusOK, suite.postJSON("/api/v1/memes/"+up.ID+"/upvote", suite.testUser.ID, nil).Code)
	require.Equal(t, http.StatusOK, suite.postJSON("/api/v1/memes/"+down.ID+"/downvote", suite.testUser.ID, nil).Code)

	w := suite.getAs("/api/v1/users/me", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		UpvotedMemes   []string `json:"upvoted_memes"`
		DownvotedMemes []string `json:"downvoted_memes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "testuser@example.com", resp.User.Email)
	assert.Equal(t, []string{up.ID}, resp.UpvotedMemes)
	assert.Equal(t, []string{down.ID}, resp.DownvotedMemes)
}

func (suite *HandlersTestSuite) TestUpdateMe() {
	t := suite.T()
	w := suite.putJSON("/api/v1/users/me", suite.testUser.ID, map[string]interface{}{
		"username": "renamed",
		"bio":      "new bio",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.User
	require.NoError(t, suite.db.First(&reloaded, "id = ?", suite.testUser.ID).Error)
	assert.Equal(t, "renamed", reloaded.Username)
	assert.Equal(t, "new bio", reloaded.Bio)
}

func (suite *HandlersTestSuite) TestUpdateMeUsernameTaken() {
	t := suite.T()
	suite.createUser("occupied")

	w := suite.putJSON("/api/v1/users/me", suite.testUser.ID, map[string]interface{}{
		"username": "OCCUPIED",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateMeKeepOwnUsername() {
	t := suite.T()
	// Re-submitting your own name is not a conflict
	w := suite.putJSON("/api/v1/users/me", suite.testUser.ID, map[string]interface{}{
		"username": "testuser",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateMeBioTooLong() {
	t := suite.T()
	w := suite.putJSON("/api/v1/users/me", suite.testUser.ID, map[string]interface{}{
		"bio": strings.Repeat("b", maxBioLength+1),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateMeUsernameTooShort() {
	t := suite.T()
	w := suite.putJSON("/api/v1/users/me", suite.testUser.ID, map[string]interface{}{
		"username": "ab",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestGetUserPublicProfile() {
	t := suite.T()
	user := suite.createUser("public_figure")
	require.NoError(t, suite.db.Model(user).Update("badges", models.BadgeList{models.BadgeViralPost}).Error)

	w := suite.get("/api/v1/users/" + user.ID)
	require.Equal(t, http.StatusOK, w.Code)

	// Credentials never leak into the public profile
	assert.NotContains(t, w.Body.String(), "@example.com")
	assert.Contains(t, w.Body.String(), "public_figure")
	assert.Contains(t, w.Body.String(), "viral_post")
}

func (suite *HandlersTestSuite) TestGetUserNotFound() {
	t := suite.T()
	w := suite.get("/api/v1/users/00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGetUserStats() {
	t := suite.T()
	creator := suite.createUser("statful")
	memeA := suite.createMeme(creator, "a")
	suite.createMeme(creator, "b")
	require.NoError(t, suite.db.Model(memeA).UpdateColumn("upvotes", 10).Error)

	w := suite.get("/api/v1/users/" + creator.ID + "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stats struct {
			TotalMemes   int `json:"total_memes"`
			TotalUpvotes int `json:"total_upvotes"`
			TotalScore   int `json:"total_score"`
		} `json:"stats"`
		TopMeme struct {
			ID string `json:"id"`
		} `json:"top_meme"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Stats.TotalMemes)
	assert.Equal(t, 10, resp.Stats.TotalUpvotes)
	assert.Equal(t, 10, resp.Stats.TotalScore)
	assert.Equal(t, memeA.ID, resp.TopMeme.ID)
}

func (suite *HandlersTestSuite) TestGetUserStatsTopMemeByUpvotes() {
	t := suite.T()
	creator := suite.createUser("controversial")

	// Most upvoted wins even when heavy downvotes drag its score below
	// another meme's.
	loud := suite.createMeme(creator, "loud")
	require.NoError(t, suite.db.Model(loud).UpdateColumns(map[string]interface{}{
		"upvotes": 10, "downvotes": 9,
	}).Error)
	quiet := suite.createMeme(creator, "quiet")
	require.NoError(t, suite.db.Model(quiet).UpdateColumn("upvotes", 5).Error)

	w := suite.get("/api/v1/users/" + creator.ID + "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TopMeme struct {
			ID string `json:"id"`
		} `json:"top_meme"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, loud.ID, resp.TopMeme.ID)
}

func (suite *HandlersTestSuite) TestGetUserStatsTimeline() {
	t := suite.T()
	creator := suite.createUser("chronicler")

	dayOne := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	dayTwo := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)

	first := suite.createMeme(creator, "first")
	require.NoError(t, suite.db.Model(first).UpdateColumns(map[string]interface{}{
		"created_at": dayOne,
		"upvotes":    3,
		"views":      7,
	}).Error)
	second := suite.createMeme(creator, "second")
	require.NoError(t, suite.db.Model(second).UpdateColumns(map[string]interface{}{
		"created_at": dayTwo,
		"upvotes":    5,
	}).Error)
	suite.createMeme(suite.testUser, "somebody else's")

	w := suite.get("/api/v1/users/" + creator.ID + "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Timeline []struct {
			Date    string `json:"date"`
			Count   int    `json:"count"`
			Upvotes int    `json:"upvotes"`
			Views   int    `json:"views"`
		} `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Timeline, 2)

	// Oldest day first
	assert.Equal(t, "2026-08-20", resp.Timeline[0].Date)
	assert.Equal(t, 1, resp.Timeline[0].Count)
	assert.Equal(t, 3, resp.Timeline[0].Upvotes)
	assert.Equal(t, 7, resp.Timeline[0].Views)

	assert.Equal(t, "2026-08-21", resp.Timeline[1].Date)
	assert.Equal(t, 1, resp.Timeline[1].Count)
	assert.Equal(t, 5, resp.Timeline[1].Upvotes)
}

func (suite *HandlersTestSuite) TestGetUserMemes() {
	t := suite.T()
	creator := suite.createUser("prolific")
	for i := 0; i < 3; i++ {
		suite.createMeme(creator, "meme")
	}
	suite.createMeme(suite.testUser, "not mine")

	w := suite.get("/api/v1/users/" + creator.ID + "/memes")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Memes      []json.RawMessage `json:"memes"`
		TotalMemes int               `json:"total_memes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Memes, 3)
	assert.Equal(t, 3, resp.TotalMemes)
}

func (suite *HandlersTestSuite) TestGetLeaderboard() {
	t := suite.T()
	winner := suite.createUser("winner")
	loser := suite.createUser("loser")
	m1 := suite.createMeme(winner, "good")
	m2 := suite.createMeme(loser, "ok")
	require.NoError(t, suite.db.Model(m1).UpdateColumn("upvotes", 100).Error)
	require.NoError(t, suite.db.Model(m2).UpdateColumn("upvotes", 5).Error)

	w := suite.get("/api/v1/users/leaderboard?timeFrame=week")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TimeFrame   string `json:"time_frame"`
		Leaderboard []struct {
			Rank     int    `json:"rank"`
			Username string `json:"username"`
			Score    int    `json:"total_score"`
		} `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "week", resp.TimeFrame)
	require.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, 1, resp.Leaderboard[0].Rank)
	assert.Equal(t, "winner", resp.Leaderboard[0].Username)
	assert.Equal(t, 100, resp.Leaderboard[0].Score)

	// Winning the weekly board grants the badge as a side effect
	var reloaded models.User
	require.NoError(t, suite.db.First(&reloaded, "id = ?", winner.ID).Error)
	assert.True(t, reloaded.HasBadge(models.BadgeWeeklyWinner))
}

func (suite *HandlersTestSuite) TestGetLeaderboardUnknownFrameFallsBack() {
	t := suite.T()
	w := suite.get("/api/v1/users/leaderboard?timeFrame=nonsense")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TimeFrame string `json:"time_frame"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "week", resp.TimeFrame)
}
