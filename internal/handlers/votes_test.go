package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/memehub/memehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestUpvoteMeme() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "votable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/upvote", suite.testUser.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Upvotes   int `json:"upvotes"`
		Downvotes int `json:"downvotes"`
		Score     int `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Upvotes)
	assert.Equal(t, 0, resp.Downvotes)
	assert.Equal(t, 1, resp.Score)
}

func (suite *HandlersTestSuite) TestDownvoteMeme() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "votable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/downvote", suite.testUser.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Score int `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, -1, resp.Score)
}

func (suite *HandlersTestSuite) TestDuplicateUpvoteConflict() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "votable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/upvote", suite.testUser.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.postJSON("/api/v1/memes/"+meme.ID+"/upvote", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DUPLICATE_VOTE", resp.Code)
	assert.Equal(t, "already upvoted this meme", resp.Message)

	// Counter unchanged after the rejected vote
	var reloaded models.Meme
	require.NoError(t, suite.db.First(&reloaded, "id = ?", meme.ID).Error)
	assert.Equal(t, 1, reloaded.Upvotes)
}

func (suite *HandlersTestSuite) TestSwitchVoteViaAPI() {
	t := suite.T()
	meme := suite.createMeme(suite.createUser("creator"), "votable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/upvote", suite.testUser.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.postJSON("/api/v1/memes/"+meme.ID+"/downvote", suite.testUser.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Upvotes   int `json:"upvotes"`
		Downvotes int `json:"downvotes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Upvotes)
	assert.Equal(t, 1, resp.Downvotes)
}

func (suite *HandlersTestSuite) TestVoteRequiresAuth() {
	t := suite.T()
	meme := suite.createMeme(suite.testUser, "votable")

	w := suite.postJSON("/api/v1/memes/"+meme.ID+"/upvote", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestVoteMemeNotFound() {
	t := suite.T()
	w := suite.postJSON("/api/v1/memes/00000000-0000-0000-0000-000000000000/upvote", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
