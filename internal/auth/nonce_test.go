package auth

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNonceStrictlyIncreasingWithinSameMillisecond(t *testing.T) {
	frozen := time.UnixMilli(1700000000000)
	source := NewNonceSourceWithClock(func() time.Time { return frozen })

	prev := int64(0)
	for i := 0; i < 10; i++ {
		nonce := source.Next()
		require.Greater(t, nonce, prev, "call %d must exceed previous nonce", i)
		prev = nonce
	}
}

func TestNonceSurvivesClockGoingBackwards(t *testing.T) {
	times := []time.Time{
		time.UnixMilli(2000),
		time.UnixMilli(1000),
		time.UnixMilli(1500),
		time.UnixMilli(3000),
	}
	idx := 0
	source := NewNonceSourceWithClock(func() time.Time {
		ts := times[idx]
		if idx < len(times)-1 {
			idx++
		}
		return ts
	})

	require.Equal(t, int64(2000), source.Next())
	require.Equal(t, int64(2001), source.Next())
	require.Equal(t, int64(2002), source.Next())
	require.Equal(t, int64(3000), source.Next())
}

func TestNonceUniqueUnderConcurrency(t *testing.T) {
	source := NewNonceSource()

	const workers = 8
	const perWorker = 250
	results := make(chan int64, workers*perWorker)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				results <- source.Next()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make([]int64, 0, workers*perWorker)
	for nonce := range results {
		seen = append(seen, nonce)
	}
	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i := 1; i < len(seen); i++ {
		require.NotEqual(t, seen[i-1], seen[i], "nonce issued twice")
	}
}
