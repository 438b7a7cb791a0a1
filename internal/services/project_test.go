package services

import (
	"strconv"
	"testing"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectList(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	voter := env.user(t, "bob@example.com")

	first := env.submit(t, owner, "Alpha Beat")
	second := env.submit(t, owner, "Gamma Ray")
	draft := env.submit(t, owner, "Hidden")
	require.NoError(t, env.db.Model(draft).Update("status", models.ProjectDraft).Error)

	_, err := env.svc.Votes.Cast(voter.ID, first.ID)
	require.NoError(t, err)

	res, err := env.svc.Projects.List(&ProjectListRequest{Sort: "votes"}, voter.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, first.ID, res.Items[0].ID)
	assert.EqualValues(t, 1, res.Items[0].VoteCount)
	assert.True(t, res.Items[0].HasVoted)
	assert.False(t, res.Items[1].HasVoted)
	assert.Equal(t, 20, res.Limit)

	res, err = env.svc.Projects.List(&ProjectListRequest{Search: "gamma"}, 0)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, second.ID, res.Items[0].ID)

	res, err = env.svc.Projects.List(&ProjectListRequest{Month: 4, Year: 2025}, 0)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestProjectDetail(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	stranger := env.user(t, "bob@example.com")
	p := env.submit(t, owner, "Vibe Synth")

	bySlug, err := env.svc.Projects.GetDetail(p.Slug, 0)
	require.NoError(t, err)
	byID, err := env.svc.Projects.GetDetail(strconv.Itoa(int(p.ID)), 0)
	require.NoError(t, err)
	assert.Equal(t, bySlug.ID, byID.ID)
	assert.Len(t, bySlug.TeamMembers, 1)
	assert.Len(t, bySlug.Media, 1)
	assert.Nil(t, bySlug.AverageScore)
	require.NotNil(t, bySlug.User)
	assert.Empty(t, bySlug.User.Email)

	require.NoError(t, env.db.Model(p).Update("status", models.ProjectDraft).Error)
	_, err = env.svc.Projects.GetDetail(p.Slug, stranger.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	_, err = env.svc.Projects.GetDetail(p.Slug, owner.ID)
	assert.NoError(t, err)

	_, err = env.svc.Projects.GetDetail("no-such-project", 0)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectDetail_TeamEmailsOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	stranger := env.user(t, "bob@example.com")

	in := validInput()
	in.TeamMembers = []TeamMemberInput{{Name: "Ada", Email: "ada.team@example.com"}}
	res, err := env.svc.Submissions.Submit(Identity{UserID: owner.ID, Email: owner.Email}, in)
	require.NoError(t, err)
	env.queue.Wait()

	for _, viewer := range []uint{0, stranger.ID} {
		view, err := env.svc.Projects.GetDetail(strconv.Itoa(int(res.ID)), viewer)
		require.NoError(t, err)
		require.Len(t, view.TeamMembers, 1)
		assert.Empty(t, view.TeamMembers[0].Email, "viewer %d", viewer)
	}

	view, err := env.svc.Projects.GetDetail(strconv.Itoa(int(res.ID)), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada.team@example.com", view.TeamMembers[0].Email)
}

func TestProjectDelete_Cascades(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	voter := env.user(t, "bob@example.com")
	p := env.submit(t, owner, "Vibe Synth")
	_, err := env.svc.Votes.Cast(voter.ID, p.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.Projects.Delete(voter.ID, false, p.ID), ErrNotProjectOwner)

	require.NoError(t, env.svc.Projects.Delete(owner.ID, false, p.ID))
	assert.Zero(t, count(t, env.db, &models.Project{}))
	assert.Zero(t, count(t, env.db, &models.Vote{}))
	assert.Zero(t, count(t, env.db, &models.TeamMember{}))
	assert.Zero(t, count(t, env.db, &models.Media{}))

	assert.ErrorIs(t, env.svc.Projects.Delete(owner.ID, true, p.ID), ErrProjectNotFound)
}

func TestProjectUpdateStatusAndWinners(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	p := env.submit(t, owner, "Vibe Synth")
	env.submit(t, owner, "Also Ran")

	_, err := env.svc.Projects.UpdateStatus(1, p.ID, "NOPE")
	assert.True(t, IsValidationError(err))

	updated, err := env.svc.Projects.UpdateStatus(1, p.ID, models.ProjectUnderReview)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectUnderReview, updated.Status)

	require.NoError(t, env.db.Model(p).Update("is_peoples_choice", true).Error)
	winners, err := env.svc.Projects.Winners(3, 2025)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, p.ID, winners[0].ID)
}
