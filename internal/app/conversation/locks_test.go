package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionLocksExclusivePerID(t *testing.T) {
	l := newSessionLocks()

	unlock := l.lock("a")

	acquired := make(chan struct{})
	go func() {
		u := l.lock("a")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same id acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	// other ids are not blocked
	other := l.lock("b")
	other()

	unlock()
	<-acquired
}

func TestSessionLocksReleaseEntries(t *testing.T) {
	l := newSessionLocks()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.lock("a")()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, l.len())
}
