package stream_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	"github.com/sristy17/insider-Threat-Detection/internal/adapters/stream"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// recordingProcessor captures processed batches and can reject chosen
// employee IDs as duplicates.
type recordingProcessor struct {
	mu      sync.Mutex
	batches [][]model.FeatureRecord
	reject  map[string]bool
}

func (p *recordingProcessor) ScoreBatch(_ context.Context, batch []model.FeatureRecord) (model.BatchProgress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range batch {
		if p.reject[rec.EmployeeID] {
			return model.BatchProgress{}, fmt.Errorf("%w: %s", repository.ErrDuplicateEntity, rec.EmployeeID)
		}
	}
	p.batches = append(p.batches, batch)
	return model.BatchProgress{Batch: len(p.batches), InBatch: len(batch)}, nil
}

func (p *recordingProcessor) processed() [][]model.FeatureRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]model.FeatureRecord, len(p.batches))
	copy(out, p.batches)
	return out
}

func batchOf(ids ...string) stream.Batch {
	b := make(stream.Batch, len(ids))
	for i, id := range ids {
		b[i] = model.FeatureRecord{EmployeeID: id}
	}
	return b
}

func TestQueueLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity two", t, func() {
		q := stream.NewInMemoryQueue(stream.WithCapacity(2))

		Convey("When enqueuing within capacity", func() {
			So(q.Enqueue(ctx, batchOf("emp-a")), ShouldBeTrue)
			So(q.Enqueue(ctx, batchOf("emp-b")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("Then a third enqueue is refused", func() {
				So(q.Enqueue(ctx, batchOf("emp-c")), ShouldBeFalse)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, batchOf("emp-a")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then intake stops but draining still works", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, batchOf("emp-b")), ShouldBeFalse)

				got, ok := <-q.Dequeue(ctx)
				So(ok, ShouldBeTrue)
				So(got[0].EmployeeID, ShouldEqual, "emp-a")

				_, ok = <-q.Dequeue(ctx)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When closing twice", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
		})
	})
}

func TestPumpOrdering(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pump over a queue of three batches", t, func() {
		q := stream.NewInMemoryQueue(stream.WithCapacity(8))
		proc := &recordingProcessor{}
		pump := stream.NewPump(q, proc)

		So(q.Enqueue(ctx, batchOf("emp-a", "emp-b")), ShouldBeTrue)
		So(q.Enqueue(ctx, batchOf("emp-c")), ShouldBeTrue)
		So(q.Enqueue(ctx, batchOf("emp-d")), ShouldBeTrue)
		So(q.Close(), ShouldBeNil)

		Convey("When the pump drains the queue", func() {
			done := make(chan struct{})
			go func() {
				pump.Run(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("pump did not drain the queue")
			}

			Convey("Then batches were processed strictly in arrival order", func() {
				got := proc.processed()
				So(got, ShouldHaveLength, 3)
				So(got[0][0].EmployeeID, ShouldEqual, "emp-a")
				So(got[1][0].EmployeeID, ShouldEqual, "emp-c")
				So(got[2][0].EmployeeID, ShouldEqual, "emp-d")
			})
		})
	})
}

func TestPumpDropsRejectedBatches(t *testing.T) {
	ctx := context.Background()

	Convey("Given a processor that rejects one employee as a duplicate", t, func() {
		q := stream.NewInMemoryQueue(stream.WithCapacity(8))
		proc := &recordingProcessor{reject: map[string]bool{"emp-dup": true}}
		pump := stream.NewPump(q, proc)

		So(q.Enqueue(ctx, batchOf("emp-a")), ShouldBeTrue)
		So(q.Enqueue(ctx, batchOf("emp-dup")), ShouldBeTrue)
		So(q.Enqueue(ctx, batchOf("emp-b")), ShouldBeTrue)
		So(q.Close(), ShouldBeNil)

		Convey("When the pump drains the queue", func() {
			done := make(chan struct{})
			go func() {
				pump.Run(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("pump did not drain the queue")
			}

			Convey("Then the rejected batch is dropped and later ones survive", func() {
				got := proc.processed()
				So(got, ShouldHaveLength, 2)
				So(got[0][0].EmployeeID, ShouldEqual, "emp-a")
				So(got[1][0].EmployeeID, ShouldEqual, "emp-b")
			})
		})
	})
}

func TestPumpShutdown(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running pump with an open queue", t, func() {
		q := stream.NewInMemoryQueue()
		proc := &recordingProcessor{}
		pump := stream.NewPump(q, proc)
		go pump.Run(ctx)

		So(q.Enqueue(ctx, batchOf("emp-a")), ShouldBeTrue)

		Convey("When shut down", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()

			Convey("Then it stops cleanly", func() {
				So(pump.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}
