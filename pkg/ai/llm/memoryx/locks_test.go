package memoryx

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionLocks_SerializesSameSession(t *testing.T) {
	var locks SessionLocks
	var mu sync.Mutex
	var events []string

	unlock := locks.Lock("s1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		release := locks.Lock("s1")
		mu.Lock()
		events = append(events, "second")
		mu.Unlock()
		release()
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	events = append(events, "first")
	mu.Unlock()
	unlock()
	<-done

	assert.Equal(t, []string{"first", "second"}, events)
}

func TestSessionLocks_OtherSessionsDoNotWait(t *testing.T) {
	var locks SessionLocks
	unlock := locks.Lock("s1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		locks.Lock("s2")()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on s2 waited for s1")
	}
}

func TestSessionLocks_ReleasedEntriesAreDropped(t *testing.T) {
	var locks SessionLocks

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := SessionID([]string{"a", "b", "c"}[i%3])
			locks.Lock(id)()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, locks.Len())
}
