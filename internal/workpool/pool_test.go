package workpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicreplacer/internal/services"
	"musicreplacer/internal/workpool"
)

func TestSubmitRunsTasksAndWaitDrains(t *testing.T) {
	pool := workpool.New(2, 16, nil)
	defer pool.Close()

	var ran atomic.Int32
	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		id, err := pool.Submit("count", func(ctx context.Context) error {
			time.Sleep(time.Millisecond)
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	pool.Wait()

	assert.EqualValues(t, 10, ran.Load())
	for _, id := range ids {
		task, ok := pool.Task(id)
		require.True(t, ok)
		assert.Equal(t, workpool.StatusSucceeded, task.Status)
		assert.True(t, task.Done())
	}
}

func TestTaskContextCarriesTaskID(t *testing.T) {
	pool := workpool.New(1, 1, nil)
	defer pool.Close()

	var seen string
	id, err := pool.Submit("ctx", func(ctx context.Context) error {
		seen, _ = services.TaskIDFromContext(ctx)
		return nil
	})
	require.NoError(t, err)
	pool.Wait()
	assert.Equal(t, id, seen)
}

func TestFailuresAndPanicsAreRecorded(t *testing.T) {
	pool := workpool.New(1, 4, nil)
	defer pool.Close()

	failID, err := pool.Submit("fail", func(context.Context) error { return errors.New("boom") })
	require.NoError(t, err)
	panicID, err := pool.Submit("panic", func(context.Context) error { panic("kaboom") })
	require.NoError(t, err)
	okID, err := pool.Submit("ok", func(context.Context) error { return nil })
	require.NoError(t, err)
	pool.Wait()

	failed, _ := pool.Task(failID)
	assert.Equal(t, workpool.StatusFailed, failed.Status)
	assert.Equal(t, "boom", failed.Error)

	panicked, _ := pool.Task(panicID)
	assert.Equal(t, workpool.StatusFailed, panicked.Status)
	assert.Contains(t, panicked.Error, "kaboom")

	ok, _ := pool.Task(okID)
	assert.Equal(t, workpool.StatusSucceeded, ok.Status, "workers survive a panic")
}

func TestSubmitAfterClose(t *testing.T) {
	pool := workpool.New(1, 1, nil)
	pool.Close()
	pool.Close()

	_, err := pool.Submit("late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, workpool.ErrPoolClosed)
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	pool := workpool.New(1, 1, nil)
	defer pool.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	_, err := pool.Submit("blocker", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	_, err = pool.Submit("queued", func(context.Context) error { return nil })
	require.NoError(t, err)

	_, err = pool.Submit("overflow", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, workpool.ErrQueueFull)
	assert.ErrorIs(t, err, services.ErrTransient)

	close(release)
	pool.Wait()
}

func TestCloseDrainsQueuedTasks(t *testing.T) {
	pool := workpool.New(1, 8, nil)
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		_, err := pool.Submit("drain", func(context.Context) error {
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
	}
	pool.Close()
	assert.EqualValues(t, 5, ran.Load())
}

func TestWaitWithConcurrentSubmit(t *testing.T) {
	pool := workpool.New(2, 64, nil)
	defer pool.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				_, _ = pool.Submit("concurrent", func(context.Context) error { return nil })
			}
		}()
	}
	wg.Wait()
	pool.Wait()

	for _, task := range pool.Tasks() {
		assert.True(t, task.Done(), "task %s still %s", task.ID, task.Status)
	}
}

func TestSubmitRejectsNilTask(t *testing.T) {
	pool := workpool.New(1, 1, nil)
	defer pool.Close()
	_, err := pool.Submit("nil", nil)
	assert.ErrorIs(t, err, services.ErrValidation)
}
