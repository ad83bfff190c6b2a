package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"paramexport/internal/common/fsutil"
	"paramexport/internal/metrics"
	"paramexport/pkg/types"
)

const (
	StatusQueued   = "queued"
	StatusRunning  = "running"
	StatusFinished = "finished"
)

// RunFunc executes one work item. It reports nothing back: the outcome is the
// log trail and the files on disk.
type RunFunc func(document string, args map[string]string)

// OutputsFunc lists the files a run of document is expected to write.
type OutputsFunc func(document string) []string

type workItem struct {
	id        string
	req       types.WorkItemRequest
	status    string
	submitted time.Time
	finished  time.Time
	// before holds output mod times seen when the item started running.
	before map[string]time.Time
}

// Queue serializes work items onto a single worker so engine calls never overlap.
type Queue struct {
	run     RunFunc
	outputs OutputsFunc

	mu     sync.Mutex
	items  map[string]*workItem
	ch     chan *workItem
	closed bool
	wg     sync.WaitGroup
}

// NewQueue creates a queue holding at most depth pending items.
func NewQueue(depth int, run RunFunc, outputs OutputsFunc) *Queue {
	if depth <= 0 {
		depth = 1
	}
	return &Queue{run: run, outputs: outputs, items: make(map[string]*workItem), ch: make(chan *workItem, depth)}
}

// Start launches the worker. It exits when ctx is done or Close is called.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case it, ok := <-q.ch:
				if !ok {
					return
				}
				metrics.QueueDepth(len(q.ch))
				q.process(it)
			}
		}
	}()
}

func (q *Queue) process(it *workItem) {
	var before map[string]time.Time
	if q.outputs != nil {
		before = fsutil.ModTimes(q.outputs(it.req.Document))
	}
	q.mu.Lock()
	it.before = before
	it.status = StatusRunning
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		it.status = StatusFinished
		it.finished = time.Now()
		q.mu.Unlock()
	}()
	q.run(it.req.Document, it.req.Arguments)
}

// Submit enqueues req. A full queue returns a tooBusyError.
func (q *Queue) Submit(req types.WorkItemRequest) (types.WorkItemStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return types.WorkItemStatus{}, closedError{}
	}
	it := &workItem{id: uuid.NewString(), req: req, status: StatusQueued, submitted: time.Now()}
	select {
	case q.ch <- it:
	default:
		return types.WorkItemStatus{}, tooBusyError{depth: cap(q.ch)}
	}
	q.items[it.id] = it
	metrics.QueueDepth(len(q.ch))
	return q.statusLocked(it), nil
}

// Status returns the current state of a work item.
func (q *Queue) Status(id string) (types.WorkItemStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	it, ok := q.items[id]
	if !ok {
		return types.WorkItemStatus{}, false
	}
	return q.statusLocked(it), true
}

func (q *Queue) statusLocked(it *workItem) types.WorkItemStatus {
	st := types.WorkItemStatus{
		ID:          it.id,
		Status:      it.status,
		Document:    it.req.Document,
		SubmittedAt: it.submitted.Unix(),
	}
	if !it.finished.IsZero() {
		st.FinishedAt = it.finished.Unix()
	}
	if q.outputs != nil && it.status != StatusQueued {
		st.Outputs = fsutil.ChangedFiles(q.outputs(it.req.Document), it.before)
	}
	return st
}

// Close stops accepting work and waits for the worker to drain queued items.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Accepting reports whether Submit can still take work.
func (q *Queue) Accepting() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.closed
}
