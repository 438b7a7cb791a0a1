package services

import (
	"strings"
	"testing"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments_ApprovalFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	reader := env.user(t, "bob@example.com")
	p := env.submit(t, owner, "Vibe Synth")

	c, err := env.svc.Comments.Add(reader.ID, p.ID, "  Love the filter sweep!  ")
	require.NoError(t, err)
	assert.Equal(t, "Love the filter sweep!", c.Content)
	assert.False(t, c.IsApproved)

	visible, err := env.svc.Comments.ListApproved(p.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	pending := false
	list, err := env.svc.Comments.AdminList(&CommentListRequest{Approved: &pending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)

	_, err = env.svc.Comments.Approve(c.ID)
	require.NoError(t, err)
	visible, err = env.svc.Comments.ListApproved(p.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "bob", visible[0].User.Name)
	assert.Empty(t, visible[0].User.Email, "public comments do not expose emails")

	require.NoError(t, env.svc.Comments.Delete(c.ID))
	assert.ErrorIs(t, env.svc.Comments.Delete(c.ID), ErrCommentNotFound)
	_, err = env.svc.Comments.Approve(c.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestComments_Rejections(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	p := env.submit(t, owner, "Vibe Synth")

	_, err := env.svc.Comments.Add(owner.ID, p.ID, "   ")
	assert.True(t, IsValidationError(err))

	_, err = env.svc.Comments.Add(owner.ID, p.ID, strings.Repeat("x", maxCommentLength+1))
	assert.True(t, IsValidationError(err))

	_, err = env.svc.Comments.Add(owner.ID, 9999, "hello")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	require.NoError(t, env.db.Model(p).Update("status", models.ProjectDraft).Error)
	_, err = env.svc.Comments.Add(owner.ID, p.ID, "hello")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
