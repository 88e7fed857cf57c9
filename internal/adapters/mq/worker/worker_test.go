package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/gridcast/internal/adapters/mq/queue"
	"github.com/okian/gridcast/internal/adapters/mq/worker"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recordingProcessor struct {
	mu    sync.Mutex
	seen  []queue.Job
	fail  map[int]error
	delay time.Duration
}

func (p *recordingProcessor) Recompute(ctx context.Context, job queue.Job) error {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, job)
	return p.fail[job.Week]
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func job(id string, week int) queue.Job {
	return queue.Job{ID: id, Format: model.PPR, Week: week, RequestedAt: time.Now()}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		proc := &recordingProcessor{fail: map[int]error{}}
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("test-worker"), worker.WithLogger(logger.Discard()))
		convey.So(w.Name(), convey.ShouldEqual, "test-worker")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is enqueued", func() {
			convey.So(q.Enqueue(ctx, job("a", 5)), convey.ShouldBeTrue)

			convey.Convey("Then the processor receives it", func() {
				convey.So(waitFor(func() bool { return proc.count() == 1 }), convey.ShouldBeTrue)
				convey.So(proc.seen[0].ID, convey.ShouldEqual, "a")
				convey.So(proc.seen[0].Week, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When a job fails", func() {
			proc.fail[3] = errors.New("boom")
			q.Enqueue(ctx, job("bad", 3))
			q.Enqueue(ctx, job("good", 4))

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return proc.count() == 2 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)

			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestProcessorPanicIsContained(t *testing.T) {
	convey.Convey("Given a processor that panics on its first job", t, func() {
		q := queue.NewInMemoryQueue()
		var calls int32
		proc := worker.ProcessorFunc(func(_ context.Context, j queue.Job) error {
			if atomic.AddInt32(&calls, 1) == 1 {
				panic("bad input")
			}
			return nil
		})
		w := worker.NewInMemoryWorker(q, proc, worker.WithLogger(logger.Discard()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.Enqueue(ctx, job("p1", 1))
		q.Enqueue(ctx, job("p2", 2))

		convey.Convey("Then the worker survives and handles the next job", func() {
			convey.So(waitFor(func() bool { return atomic.LoadInt32(&calls) == 2 }), convey.ShouldBeTrue)
		})
	})
}

func TestJobTimeout(t *testing.T) {
	convey.Convey("Given a slow processor and a short job timeout", t, func() {
		q := queue.NewInMemoryQueue()
		errs := make(chan error, 1)
		proc := worker.ProcessorFunc(func(ctx context.Context, _ queue.Job) error {
			<-ctx.Done()
			errs <- ctx.Err()
			return ctx.Err()
		})
		w := worker.NewInMemoryWorker(q, proc,
			worker.WithLogger(logger.Discard()),
			worker.WithJobTimeout(20*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)
		q.Enqueue(ctx, job("slow", 1))

		convey.Convey("Then the job context expires", func() {
			select {
			case err := <-errs:
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			case <-time.After(2 * time.Second):
				convey.So("timeout", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(32))
		proc := &recordingProcessor{fail: map[int]error{}, delay: 5 * time.Millisecond}
		pool := worker.NewPool(3, q, proc, worker.WithPoolLogger(logger.Discard()))
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		for i := 1; i <= 10; i++ {
			convey.So(q.Enqueue(ctx, job("j", i)), convey.ShouldBeTrue)
		}

		convey.Convey("When the pool shuts down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then every pending job was processed and the queue is closed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(proc.count(), convey.ShouldEqual, 10)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), worker.ProcessorFunc(func(context.Context, queue.Job) error { return nil }),
			worker.WithPoolLogger(logger.Discard()))

		convey.Convey("Then the pool sizes itself from the CPU count", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
