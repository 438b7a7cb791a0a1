package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.Newsletter.Subscribe(" Ada@Example.com ")
	require.NoError(t, err)
	second, err := env.svc.Newsletter.Subscribe("ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ada@example.com", second.Email)
	assert.EqualValues(t, 1, count(t, env.db, &models.NewsletterSubscriber{}))

	_, err = env.svc.Newsletter.Subscribe("not-an-email")
	assert.True(t, IsValidationError(err))
}

func TestUnsubscribe_AndResubscribe(t *testing.T) {
	env := newTestEnv(t)
	sub, err := env.svc.Newsletter.Subscribe("ada@example.com")
	require.NoError(t, err)

	require.NoError(t, env.svc.Newsletter.Unsubscribe(sub.Token))
	active, total, err := env.svc.Newsletter.List(true, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Zero(t, total)

	assert.ErrorIs(t, env.svc.Newsletter.Unsubscribe("missing"), ErrSubscriberNotFound)

	again, err := env.svc.Newsletter.Subscribe("ada@example.com")
	require.NoError(t, err)
	assert.True(t, again.IsActive)
	assert.Equal(t, sub.ID, again.ID)
}

func TestNewsletterSend(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.svc.Cycles.Create()
	require.NoError(t, err)
	owner := env.user(t, "ada@example.com")
	p := env.submit(t, owner, "Vibe Synth")
	require.NoError(t, env.db.Model(p).Update("is_winner", true).Error)

	for _, email := range []string{"one@example.com", "two@example.com", "gone@example.com"} {
		_, err := env.svc.Newsletter.Subscribe(email)
		require.NoError(t, err)
	}
	var gone models.NewsletterSubscriber
	require.NoError(t, env.db.Where("email = ?", "gone@example.com").First(&gone).Error)
	require.NoError(t, env.svc.Newsletter.Unsubscribe(gone.Token))
	before := len(env.mailer.Messages())

	res, err := env.svc.Newsletter.Send(context.Background(), SendNewsletterRequest{Intro: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Month)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Sent)
	assert.Zero(t, res.Failed)

	sent := env.mailer.Messages()[before:]
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].HTMLBody, "Vibe Synth")
	assert.Contains(t, sent[0].HTMLBody, "/newsletter/unsubscribe?token=")

	cycle, err := env.svc.Cycles.Get(3, 2025)
	require.NoError(t, err)
	assert.NotNil(t, cycle.NewsletterSentAt)
}

func TestNewsletterSend_CountsFailures(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Newsletter.Subscribe("one@example.com")
	require.NoError(t, err)
	env.mailer.Err = errors.New("mailbox full")

	res, err := env.svc.Newsletter.Send(context.Background(), SendNewsletterRequest{Month: 2, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "mailbox full")

	_, err = env.svc.Newsletter.Send(context.Background(), SendNewsletterRequest{Month: 13, Year: 2025})
	assert.True(t, IsValidationError(err))
}
