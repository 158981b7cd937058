package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness/internal/engine"
	"readiness/internal/schema"
)

// TestNewRepository verifies construction parameters.
func TestNewRepository(t *testing.T) {
	repo := NewRepository(5, 10*time.Minute)

	assert.Equal(t, 5, repo.historyLength)
	assert.Equal(t, 10*time.Minute, repo.ttl)
	assert.NotNil(t, repo.sessions)
	assert.Empty(t, repo.sessions)
}

// TestRepository_SetAnswerAndSnapshot verifies answer accumulation and
// that snapshots are independent copies.
func TestRepository_SetAnswerAndSnapshot(t *testing.T) {
	repo := NewRepository(5, time.Hour)

	repo.SetAnswer("t1", "q1", schema.TokenYes)
	repo.SetAnswer("t1", "q2", schema.TokenNo)
	repo.SetAnswer("t1", "q2", schema.TokenPartial)

	answers, profile, found := repo.Snapshot("t1")
	require.True(t, found)
	assert.Equal(t, engine.AnswerSet{"q1": schema.TokenYes, "q2": schema.TokenPartial}, answers)
	assert.Empty(t, profile)

	// Mutating the snapshot must not leak into the session.
	answers["q1"] = schema.TokenNo
	again, _, _ := repo.Snapshot("t1")
	assert.Equal(t, schema.TokenYes, again["q1"])
}

// TestRepository_SetProfileMerges verifies that profile facts merge
// across calls instead of replacing each other.
func TestRepository_SetProfileMerges(t *testing.T) {
	repo := NewRepository(5, time.Hour)

	repo.SetProfile("t1", map[string]bool{"pets.has_pets": true})
	repo.SetProfile("t1", map[string]bool{"digital.owns_crypto": false, "pets.has_pets": false})

	_, profile, found := repo.Snapshot("t1")
	require.True(t, found)
	assert.Equal(t, engine.ProfileFacts{"pets.has_pets": false, "digital.owns_crypto": false}, profile)
}

// TestRepository_UnknownToken verifies lookups for absent sessions.
func TestRepository_UnknownToken(t *testing.T) {
	repo := NewRepository(5, time.Hour)

	_, _, found := repo.Snapshot("missing")
	assert.False(t, found)

	_, found = repo.History("missing")
	assert.False(t, found)
}

// TestRepository_History verifies the bounded report history: oldest
// entries are evicted once the limit is reached.
func TestRepository_History(t *testing.T) {
	repo := NewRepository(2, time.Hour)

	first := &engine.Report{OverallScore: 10}
	second := &engine.Report{OverallScore: 20}
	third := &engine.Report{OverallScore: 30}
	repo.AppendReport("t1", first)
	repo.AppendReport("t1", second)
	repo.AppendReport("t1", third)

	history, found := repo.History("t1")
	require.True(t, found)
	require.Len(t, history, 2)
	assert.Equal(t, second, history[0])
	assert.Equal(t, third, history[1])
}

// TestRepository_SessionIsolation verifies that tokens never share state.
func TestRepository_SessionIsolation(t *testing.T) {
	repo := NewRepository(5, time.Hour)

	repo.SetAnswer("t1", "q1", schema.TokenYes)
	repo.SetAnswer("t2", "q1", schema.TokenNo)

	a1, _, _ := repo.Snapshot("t1")
	a2, _, _ := repo.Snapshot("t2")
	assert.Equal(t, schema.TokenYes, a1["q1"])
	assert.Equal(t, schema.TokenNo, a2["q1"])
}

// TestRepository_ConcurrentAccess verifies thread safety of mixed writes
// and reads on one token.
func TestRepository_ConcurrentAccess(t *testing.T) {
	repo := NewRepository(10, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				repo.SetAnswer("t1", "q1", schema.TokenYes)
				repo.SetProfile("t1", map[string]bool{"pets.has_pets": true})
				repo.Snapshot("t1")
				repo.AppendReport("t1", &engine.Report{})
			}
		}()
	}
	wg.Wait()

	answers, profile, found := repo.Snapshot("t1")
	require.True(t, found)
	assert.Equal(t, schema.TokenYes, answers["q1"])
	assert.True(t, profile["pets.has_pets"])

	history, _ := repo.History("t1")
	assert.Len(t, history, 10)
}

// TestRepository_Stop verifies Stop is safe without a running sweep.
func TestRepository_Stop(t *testing.T) {
	repo := NewRepository(5, time.Hour)
	assert.NotPanics(t, func() { repo.Stop() })
}
