package concurrency_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/venuehost/orchestrator/concurrency"
)

func TestEventLockSerializesSameKey(t *testing.T) {
	el := concurrency.NewEventLock()
	var counter int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := el.Lock("tenant-a/event-1")
			defer unlock()
			cur := atomic.AddInt32(&counter, 1)
			time.Sleep(time.Millisecond)
			if cur != atomic.LoadInt32(&counter) {
				t.Errorf("concurrent mutation detected under lock")
			}
			atomic.AddInt32(&counter, -1)
		}()
	}
	wg.Wait()
}

func TestEventLockDifferentKeysConcurrent(t *testing.T) {
	el := concurrency.NewEventLock()
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "tenant-a/event-" + string(rune('A'+i))
			unlock := el.Lock(key)
			defer unlock()
			time.Sleep(20 * time.Millisecond)
		}(i)
	}
	wg.Wait()
	if time.Since(start) > 80*time.Millisecond {
		t.Fatalf("expected distinct keys to run concurrently, took %s", time.Since(start))
	}
}

func TestEventLockCleansUpMap(t *testing.T) {
	el := concurrency.NewEventLock()
	unlock := el.Lock("tenant-a/event-1")
	if el.InFlight("tenant-a/event-1") != 1 {
		t.Fatalf("expected 1 in-flight holder")
	}
	unlock()
	if el.InFlight("tenant-a/event-1") != 0 {
		t.Fatalf("expected lock entry to be cleaned up after release")
	}
}
