package locktable

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleHolder(t *testing.T) {
	lt := New()
	if !lt.TryAcquire("k", time.Minute) {
		t.Fatal("first acquire should succeed")
	}
	if lt.TryAcquire("k", time.Minute) {
		t.Fatal("second acquire should fail while held")
	}
	lt.Release("k")
	if !lt.TryAcquire("k", time.Minute) {
		t.Fatal("acquire after release should succeed")
	}
}

func TestExpiredLockIsAbsent(t *testing.T) {
	lt := New()
	if !lt.TryAcquire("k", 10*time.Millisecond) {
		t.Fatal("acquire failed")
	}
	time.Sleep(20 * time.Millisecond)
	if !lt.TryAcquire("k", time.Minute) {
		t.Fatal("expired lock should not block acquisition")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	lt := New()
	lt.Release("never-held")
	lt.Release("never-held")
}

func TestConcurrentAcquireAtMostOne(t *testing.T) {
	lt := New()
	const n = 64
	var won int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if lt.TryAcquire("contended", time.Minute) {
				atomic.AddInt64(&won, 1)
			}
		}()
	}
	close(start)
	wg.Wait()
	if won != 1 {
		t.Fatalf("want exactly 1 winner, got %d", won)
	}
}

func TestSweepDropsExpiredOnly(t *testing.T) {
	lt := New()
	lt.TryAcquire("old", time.Millisecond)
	lt.TryAcquire("fresh", time.Minute)
	time.Sleep(5 * time.Millisecond)
	lt.Sweep()

	if lt.TryAcquire("fresh", time.Minute) {
		t.Fatal("fresh lock should survive sweep")
	}
	if !lt.TryAcquire("old", time.Minute) {
		t.Fatal("expired lock should be gone after sweep")
	}
}
