package usage

import (
	"context"
	"sync"

	"github.com/fluxai/flux-gateway/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Worker records usage rows asynchronously so the completion hot path never
// waits on the database. Tasks are dropped, with a warning, when the buffer
// is full.
type Worker struct {
	service  *Service
	tasks    chan models.RecordUsageParams
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewWorker starts poolSize recording goroutines over a buffered queue
func NewWorker(service *Service, poolSize, bufferSize int) *Worker {
	if poolSize <= 0 {
		poolSize = 1
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}

	w := &Worker{
		service: service,
		tasks:   make(chan models.RecordUsageParams, bufferSize),
		stopped: make(chan struct{}),
	}
	for range poolSize {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

// Submit enqueues one usage row for recording. It never blocks.
func (w *Worker) Submit(params models.RecordUsageParams) {
	select {
	case <-w.stopped:
		fiberlog.Warnf("[%s] Usage worker stopped, dropping usage row", params.RequestID)
	case w.tasks <- params:
	default:
		fiberlog.Warnf("[%s] Usage recording buffer full, dropping usage row", params.RequestID)
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopped:
			// drain whatever was queued before shutdown
			for {
				select {
				case params := <-w.tasks:
					w.record(params)
				default:
					return
				}
			}
		case params := <-w.tasks:
			w.record(params)
		}
	}
}

func (w *Worker) record(params models.RecordUsageParams) {
	if _, err := w.service.RecordUsage(context.Background(), params); err != nil {
		fiberlog.Errorf("[%s] Failed to record usage: %v", params.RequestID, err)
	}
}

// Stop shuts the pool down, draining queued tasks first
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopped)
		w.wg.Wait()
	})
}
