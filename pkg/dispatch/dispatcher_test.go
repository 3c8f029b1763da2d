package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"
)

func waitForIdle(t *testing.T, d *Dispatcher) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if d.ActiveUsers() == 0 {
			d.Wait()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("dispatcher did not drain in time")
}

func TestEnqueueRunsTasksInArrivalOrder(t *testing.T) {
	t.Parallel()

	d := New(nil)

	var mu sync.Mutex
	var order []int

	for i := 0; i < 20; i++ {
		i := i
		d.Enqueue(context.Background(), "user-1", func(context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	waitForIdle(t, d)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 20 {
		t.Fatalf("ran %d tasks, want 20", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d] = %d, want %d", i, got, i)
		}
	}
}

func TestTasksForOneUserNeverOverlap(t *testing.T) {
	t.Parallel()

	d := New(nil)

	var mu sync.Mutex
	running := 0
	maxRunning := 0

	for i := 0; i < 10; i++ {
		d.Enqueue(context.Background(), "user-1", func(context.Context) {
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		})
	}

	waitForIdle(t, d)

	mu.Lock()
	defer mu.Unlock()
	if maxRunning != 1 {
		t.Fatalf("max concurrent tasks for one user = %d, want 1", maxRunning)
	}
}

func TestDistinctUsersRunConcurrently(t *testing.T) {
	t.Parallel()

	d := New(nil)

	firstRunning := make(chan struct{})
	release := make(chan struct{})
	secondRan := make(chan struct{})

	d.Enqueue(context.Background(), "user-1", func(context.Context) {
		close(firstRunning)
		<-release
	})

	<-firstRunning

	d.Enqueue(context.Background(), "user-2", func(context.Context) {
		close(secondRan)
	})

	select {
	case <-secondRan:
	case <-time.After(2 * time.Second):
		t.Fatal("user-2 task blocked behind user-1 task")
	}

	close(release)
	waitForIdle(t, d)
}

func TestDrainedUserIsRemovedFromState(t *testing.T) {
	t.Parallel()

	d := New(nil)

	d.Enqueue(context.Background(), "user-1", func(context.Context) {})
	d.Enqueue(context.Background(), "user-2", func(context.Context) {})

	waitForIdle(t, d)

	if got := d.ActiveUsers(); got != 0 {
		t.Fatalf("ActiveUsers after drain = %d, want 0", got)
	}
}

func TestPanickingTaskDoesNotStopQueue(t *testing.T) {
	t.Parallel()

	d := New(nil)

	ran := make(chan struct{})
	d.Enqueue(context.Background(), "user-1", func(context.Context) {
		panic("boom")
	})
	d.Enqueue(context.Background(), "user-1", func(context.Context) {
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task after panic never ran")
	}

	waitForIdle(t, d)
}

func TestEachTaskRunsUnderItsOwnContext(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}

	d := New(nil)

	var mu sync.Mutex
	var seen []string

	for _, label := range []string{"first", "second", "third"} {
		ctx := context.WithValue(context.Background(), ctxKey{}, label)
		d.Enqueue(ctx, "user-1", func(taskCtx context.Context) {
			value, _ := taskCtx.Value(ctxKey{}).(string)
			mu.Lock()
			seen = append(seen, value)
			mu.Unlock()
		})
	}

	waitForIdle(t, d)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "second", "third"}
	if len(seen) != len(want) {
		t.Fatalf("ran %d tasks, want %d", len(seen), len(want))
	}
	for i, got := range seen {
		if got != want[i] {
			t.Fatalf("task %d ran under context %q, want %q", i, got, want[i])
		}
	}
}

func TestBurstEnqueueClaimsSingleDrain(t *testing.T) {
	t.Parallel()

	d := New(nil)

	var mu sync.Mutex
	running := 0
	maxRunning := 0
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				d.Enqueue(context.Background(), "user-1", func(context.Context) {
					mu.Lock()
					running++
					if running > maxRunning {
						maxRunning = running
					}
					total++
					mu.Unlock()

					mu.Lock()
					running--
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()

	waitForIdle(t, d)

	mu.Lock()
	defer mu.Unlock()
	if maxRunning != 1 {
		t.Fatalf("max concurrent tasks under burst = %d, want 1", maxRunning)
	}
	if total != 200 {
		t.Fatalf("ran %d tasks, want 200", total)
	}
}
