package profile

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/blockvoice/internal/core/challenge"
	"github.com/agenthands/blockvoice/internal/core/feedback"
)

func TestModeFeatures(t *testing.T) {
	assert.True(t, ModeFeatures(ModeVisual).ScreenReader)
	assert.True(t, ModeFeatures(ModeHearing).TactileFeedback)
	assert.True(t, ModeFeatures(ModeMotor).VoiceCommands)
	assert.True(t, ModeFeatures(ModeNeurodivergent).ReducedMotion)
	assert.Equal(t, Features{}, ModeFeatures(ModeNone))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("motor")
	require.NoError(t, err)
	assert.Equal(t, ModeMotor, m)

	_, err = ParseMode("telepathic")
	assert.Error(t, err)
}

func TestFeedbackChannels(t *testing.T) {
	assert.Equal(t, feedback.AllFeatures(), Profile{}.FeedbackChannels())

	visual := New("u", ModeVisual).FeedbackChannels()
	assert.True(t, visual.Announce)
	assert.False(t, visual.Toast)

	hearing := New("u", ModeHearing).FeedbackChannels()
	assert.False(t, hearing.Announce)
	assert.True(t, hearing.Toast)
	assert.True(t, hearing.Haptic)

	motor := New("u", ModeMotor).FeedbackChannels()
	assert.Equal(t, feedback.AllFeatures(), motor)
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	id := uuid.New().String()

	_, err := s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	p := New(id, ModeHearing)
	p.Language = "javascript"
	require.NoError(t, s.Put(ctx, p))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ModeHearing, got.Mode)
	assert.Equal(t, "javascript", got.Language)
	assert.True(t, got.Features.TactileFeedback)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func exerciseProgress(t *testing.T, s Store) {
	ctx := context.Background()
	id := uuid.New().String()
	printing, err := challenge.Lookup("print")
	require.NoError(t, err)
	loop, err := challenge.Lookup("print2")
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Second)

	list, err := s.Progress(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, list)

	saved, err := s.SaveProgress(ctx, printing.Record(id, challenge.Evaluation{Progress: 100, Completed: true}, now))
	require.NoError(t, err)
	assert.True(t, saved.Completed)

	// A later edit that breaks the program does not undo the completion.
	saved, err = s.SaveProgress(ctx, printing.Record(id, challenge.Evaluation{}, now.Add(time.Minute)))
	require.NoError(t, err)
	assert.True(t, saved.Completed)
	assert.Equal(t, 100, saved.XPEarned)

	_, err = s.SaveProgress(ctx, loop.Record(id, challenge.Evaluation{Progress: 50}, now))
	require.NoError(t, err)

	list, err = s.Progress(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "print", list[0].ChallengeID)
	assert.True(t, list[0].Completed)
	assert.Equal(t, "print2", list[1].ChallengeID)
	assert.Equal(t, 75, list[1].XPEarned)

	require.NoError(t, s.Delete(ctx, id))
	list, err = s.Progress(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
	exerciseProgress(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url, time.Minute)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
	exerciseProgress(t, s)
}
