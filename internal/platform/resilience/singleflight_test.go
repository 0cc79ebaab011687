package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_DeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g Group[[]byte]
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			page, err, _ := g.Do("https://example.test/playerteams.php?sit=all", func() ([]byte, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return []byte("<table></table>"), nil
			})
			if err != nil || string(page) != "<table></table>" {
				t.Errorf("unexpected shared result: %q %v", page, err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestGroup_ForgetsFinishedCalls(t *testing.T) {
	t.Parallel()

	var g Group[int]
	for want := 1; want <= 2; want++ {
		got, err, shared := g.Do("k", func() (int, error) { return want, nil })
		if err != nil || got != want || shared {
			t.Fatalf("call %d: got=%d shared=%v err=%v", want, got, shared, err)
		}
	}
}
