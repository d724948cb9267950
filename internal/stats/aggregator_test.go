package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"solana-pool-monitor/internal/domain"
)

func TestAggregator_RecordMatchIncrementsByOne(t *testing.T) {
	a := NewAggregator()

	assert.Equal(t, uint64(1), a.RecordMatch(domain.SourceJupiter))
	assert.Equal(t, uint64(2), a.RecordMatch(domain.SourceOther))
	assert.Equal(t, uint64(2), a.TotalMatches())
}

func TestAggregator_ConcurrentRecordMatch(t *testing.T) {
	a := NewAggregator()

	const workers = 50
	const perWorker = 200

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				a.RecordMatch(domain.SourceRaydiumCLMM)
				_ = a.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := a.Snapshot()
	assert.Equal(t, uint64(workers*perWorker), snap.TotalMatches)
	assert.Equal(t, uint64(workers*perWorker), a.TotalMatches())
	assert.Equal(t, uint64(workers*perWorker), snap.BySource[domain.SourceRaydiumCLMM])
}

func TestAggregator_SnapshotIsCopy(t *testing.T) {
	start := time.Unix(1700000000, 0)
	now := start
	a := NewAggregatorWithClock(func() time.Time { return now })

	a.RecordMatch(domain.SourceJupiter)
	now = start.Add(90 * time.Second)

	snap := a.Snapshot()
	assert.Equal(t, start, snap.StartTime)
	assert.Equal(t, 90*time.Second, snap.Elapsed)

	a.RecordMatch(domain.SourceJupiter)
	assert.Equal(t, uint64(1), snap.TotalMatches)
	assert.Equal(t, uint64(1), snap.BySource[domain.SourceJupiter])
}

func TestSnapshot_Sources(t *testing.T) {
	a := NewAggregator()
	a.RecordMatch(domain.SourceOther)
	a.RecordMatch(domain.SourceJupiter)
	a.RecordMatch(domain.SourceJupiter)
	a.RecordMatch(domain.SourceRaydiumAMM)

	rows := a.Snapshot().Sources()
	assert.Equal(t, []SourceCount{
		{Source: domain.SourceJupiter, Count: 2},
		{Source: domain.SourceOther, Count: 1},
		{Source: domain.SourceRaydiumAMM, Count: 1},
	}, rows)
}
