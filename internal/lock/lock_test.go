package lock

import (
	"sync"
	"testing"
)

func TestWithLockSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.WithLock("machine-a", func() {
				counter++
			})
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("expected 100, got %d (race in keyed lock)", counter)
	}
}

func TestDistinctKeysGetDistinctMutexes(t *testing.T) {
	km := NewKeyedMutex()
	km.Lock("a")
	defer km.Unlock("a")

	done := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()
	<-done
}
