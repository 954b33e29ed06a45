package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
)

func TestMergeProfileCreatesAndUpdates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.MergeProfile(ctx, "u1", map[string]any{"displayName": "Sam", "targetRole": "backend"}))
	require.NoError(t, s.MergeProfile(ctx, "u1", map[string]any{"targetRole": "platform"}))

	profile, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", profile["displayName"])
	assert.Equal(t, "platform", profile["targetRole"], "merge must overwrite listed fields only")
}

func TestGetProfileNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProfileReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.MergeProfile(ctx, "u1", map[string]any{"displayName": "Sam"}))

	first, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	first["displayName"] = "mutated"

	second, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", second["displayName"])
}

func TestBookmarks(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.AddBookmark(ctx, "u1", map[string]any{"id": "q-1", "title": "Two Sum"}))
	require.NoError(t, s.AddBookmark(ctx, "u1", map[string]any{"id": "q-2", "title": "LRU Cache"}))

	require.NoError(t, s.RemoveBookmark(ctx, "u1", "q-1"))

	profile, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	bookmarks, _ := profile["bookmarks"].([]any)
	require.Len(t, bookmarks, 1)
	entry, _ := bookmarks[0].(map[string]any)
	assert.Equal(t, "q-2", entry["id"])

	assert.ErrorIs(t, s.RemoveBookmark(ctx, "u1", "q-1"), ErrNotFound)
	assert.ErrorIs(t, s.RemoveBookmark(ctx, "nobody", "q-1"), ErrNotFound)
}

func TestAppendActivityOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.AppendActivity(ctx, "u1", map[string]any{"kind": "interview"}))
	require.NoError(t, s.AppendActivity(ctx, "u1", map[string]any{"kind": "practice"}))

	profile, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	activity, _ := profile["activity"].([]any)
	require.Len(t, activity, 2)
	first, _ := activity[0].(map[string]any)
	assert.Equal(t, "interview", first["kind"])
}

func TestInterviewRecords(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	record := &interview.Record{
		SessionID:  "sess-1",
		TargetRole: "backend engineer",
		Level:      interview.LevelSenior,
		Transcript: []interview.Message{
			{Role: interview.RoleInterviewer, Content: "Welcome."},
		},
		Assessment: &interview.Assessment{Summary: "Good.", Score: 80},
		StartedAt:  time.Now().Add(-20 * time.Minute),
		EndedAt:    time.Now(),
	}
	require.NoError(t, s.SaveInterview(ctx, record))

	got, err := s.GetInterview(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, record.TargetRole, got.TargetRole)
	require.NotNil(t, got.Assessment)
	assert.Equal(t, 80, got.Assessment.Score)

	_, err = s.GetInterview(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
