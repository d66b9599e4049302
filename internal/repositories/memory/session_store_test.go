package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/models"
)

type stubGateway struct{}

func (stubGateway) GenerateQuestion(context.Context, string, models.Difficulty, int, string) string {
	return "q"
}
func (stubGateway) EvaluateAnswer(context.Context, string, string, string) models.Evaluation {
	return models.Evaluation{}
}
func (stubGateway) GenerateSummary(context.Context, string, []models.QARecord, *models.EmotionSummary) models.Assessment {
	return models.Assessment{}
}

func newSession(t *testing.T, at time.Time) *interview.Session {
	t.Helper()
	s, err := interview.New(interview.Params{JobRole: "Dev", DurationMinutes: 10}, stubGateway{}, nil,
		interview.WithClock(func() time.Time { return at }))
	require.NoError(t, err)
	return s
}

func TestSessionStore(t *testing.T) {
	st := NewSessionStore()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	later := newSession(t, base.Add(time.Minute))
	earlier := newSession(t, base)

	st.Put(later)
	st.Put(earlier)

	got, ok := st.Get(later.ID())
	require.True(t, ok)
	assert.Same(t, later, got)

	list := st.List()
	require.Len(t, list, 2)
	assert.Same(t, earlier, list[0])

	removed, ok := st.Remove(earlier.ID())
	require.True(t, ok)
	assert.Same(t, earlier, removed)
	_, ok = st.Remove(earlier.ID())
	assert.False(t, ok)
	_, ok = st.Get(earlier.ID())
	assert.False(t, ok)
}

func TestSessionStoreConcurrentRemove(t *testing.T) {
	st := NewSessionStore()
	s := newSession(t, time.Now())
	st.Put(s)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := st.Remove(s.ID()); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
