package services

import (
	"testing"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalScore(t *testing.T) {
	tests := []struct {
		vp, o, e, w int
		want        float64
	}{
		{100, 100, 100, 100, 100},
		{0, 0, 0, 0, 0},
		{80, 70, 90, 60, 76.5},
		{100, 0, 0, 0, 40},
		{1, 1, 1, 2, 1.15},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TotalScore(tt.vp, tt.o, tt.e, tt.w), 1e-9)
	}
}

func TestScoreInput_Range(t *testing.T) {
	assert.NoError(t, ScoreInput{VibeProcess: 100}.Validate())
	assert.Error(t, ScoreInput{Originality: 101}.Validate())
	assert.Error(t, ScoreInput{WowFactor: -1}.Validate())
}

func scoreAll(total int, complete bool) ScoreInput {
	return ScoreInput{VibeProcess: total, Originality: total, Execution: total, WowFactor: total, IsComplete: complete}
}

func TestAverageScore(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	p := env.submit(t, owner, "Vibe Synth")

	avg, err := env.svc.Scores.AverageScore(p.ID)
	require.NoError(t, err)
	assert.Nil(t, avg, "no complete scores means no average")

	for i, total := range []int{80, 90, 70} {
		judge := env.user(t, string(rune('a'+i))+"-judge@example.com")
		_, err := env.svc.Scores.Upsert(judge.ID, p.ID, scoreAll(total, true))
		require.NoError(t, err)
	}
	draft := env.user(t, "draft-judge@example.com")
	_, err = env.svc.Scores.Upsert(draft.ID, p.ID, scoreAll(10, false))
	require.NoError(t, err)

	avg, err = env.svc.Scores.AverageScore(p.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 80.0, *avg, 1e-9)

	many, err := env.svc.Scores.AverageScores([]uint{p.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, many, 1)
	assert.InDelta(t, 80.0, many[p.ID], 1e-9)
}

func TestScoreUpsert_Replaces(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	judge := env.user(t, "judge@example.com")
	p := env.submit(t, owner, "Vibe Synth")

	first, err := env.svc.Scores.Upsert(judge.ID, p.ID, scoreAll(50, false))
	require.NoError(t, err)
	second, err := env.svc.Scores.Upsert(judge.ID, p.ID, ScoreInput{VibeProcess: 100, Originality: 80, Execution: 60, WowFactor: 40, IsComplete: true})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, 78.0, second.TotalScore, 1e-9)
	assert.EqualValues(t, 1, count(t, env.db, &models.JudgeScore{}))

	_, err = env.svc.Scores.Upsert(judge.ID, 9999, scoreAll(50, true))
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = env.svc.Scores.Upsert(judge.ID, p.ID, scoreAll(120, true))
	assert.True(t, IsValidationError(err))
}

func TestRanking(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	judge := env.user(t, "judge@example.com")

	unscored := env.submit(t, owner, "Unscored")
	low := env.submit(t, owner, "Low")
	high := env.submit(t, owner, "High")

	_, err := env.svc.Scores.Upsert(judge.ID, low.ID, scoreAll(40, true))
	require.NoError(t, err)
	_, err = env.svc.Scores.Upsert(judge.ID, high.ID, scoreAll(90, true))
	require.NoError(t, err)

	ranking, err := env.svc.Scores.Ranking(3, 2025)
	require.NoError(t, err)
	require.Len(t, ranking, 3)
	assert.Equal(t, high.ID, ranking[0].ProjectID)
	assert.Equal(t, low.ID, ranking[1].ProjectID)
	assert.Equal(t, unscored.ID, ranking[2].ProjectID)
	assert.Nil(t, ranking[2].AverageScore)
	assert.Zero(t, ranking[2].JudgeCount)
}

func TestSetAwards_NotifiesNewWinnerOnce(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "ada@example.com")
	admin := env.user(t, "admin@example.com")
	p := env.submit(t, owner, "Vibe Synth")
	before := len(env.mailer.Messages())

	yes := true
	updated, err := env.svc.Scores.SetAwards(admin.ID, p.ID, AwardsInput{IsWinner: &yes, Status: models.ProjectWinner})
	require.NoError(t, err)
	env.queue.Wait()
	assert.True(t, updated.IsWinner)
	assert.Equal(t, models.ProjectWinner, updated.Status)

	_, err = env.svc.Scores.SetAwards(admin.ID, p.ID, AwardsInput{IsWinner: &yes})
	require.NoError(t, err)
	env.queue.Wait()

	sent := env.mailer.Messages()[before:]
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)
	assert.Contains(t, sent[0].HTMLBody, "https://vibe.example.com/winners")

	_, err = env.svc.Scores.SetAwards(admin.ID, p.ID, AwardsInput{Status: "BOGUS"})
	assert.True(t, IsValidationError(err))
}
