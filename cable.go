package ceresdb

import (
	"context"
	"sync"
	"time"
)

// WriteCable batches points sent from many goroutines into Write calls.
//
// A batch is written when it reaches BatchSize points or when
// BatchInterval elapses with points pending, whichever comes first.
// Start must be called before Send.
type WriteCable struct {
	c      *Client
	rpcCtx RpcContext

	pending []*cablePoint
	sendCh  chan *cablePoint

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup

	BatchSize     int
	BatchInterval time.Duration
}

// Defaults of WriteCable.BatchSize and WriteCable.BatchInterval.
const (
	DefaultCableBatchSize     = 512
	DefaultCableBatchInterval = time.Second
)

// CableResult is the outcome of the Write call that carried a point. All
// points of one batch share the same result.
type CableResult struct {
	Response *WriteResponse
	Err      error
}

type cablePoint struct {
	point *Point
	res   chan *CableResult
}

// WriteCable creates a cable writing with rpcCtx.
func (c *Client) WriteCable(rpcCtx RpcContext) *WriteCable {
	return &WriteCable{
		c:             c,
		rpcCtx:        rpcCtx,
		pending:       make([]*cablePoint, 0),
		sendCh:        make(chan *cablePoint),
		BatchSize:     DefaultCableBatchSize,
		BatchInterval: DefaultCableBatchInterval,
	}
}

// Start runs the batching loop until Close. Writes use ctx. A BatchSize or
// BatchInterval that is not positive is replaced by its default. Calling
// Start again, or after Close, does nothing.
func (w *WriteCable) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true

	if w.BatchSize <= 0 {
		w.BatchSize = DefaultCableBatchSize
	}
	if w.BatchInterval <= 0 {
		w.BatchInterval = DefaultCableBatchInterval
	}
	batchSize, interval := w.BatchSize, w.BatchInterval

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		stop, tick := false, false
		for {
			if len(w.pending) > 0 && (tick || stop || len(w.pending) >= batchSize) {
				batch := w.pending
				w.wg.Add(1)
				go w.flush(ctx, batch)

				tick = false
				w.pending = make([]*cablePoint, 0, len(batch))
			}

			if stop {
				return
			}

			select {
			case <-ticker.C:
				if len(w.pending) > 0 {
					tick = true
				}
			case p, more := <-w.sendCh:
				if !more {
					stop = true
					continue
				}
				w.pending = append(w.pending, p)
			}
		}
	}()
}

func (w *WriteCable) flush(ctx context.Context, batch []*cablePoint) {
	defer w.wg.Done()

	req := NewWriteRequest()
	res := &CableResult{}
	for _, p := range batch {
		if err := req.AddPoint(p.point); err != nil {
			res.Err = err
			break
		}
	}
	if res.Err == nil {
		res.Response, res.Err = w.c.Write(ctx, w.rpcCtx, req)
	}
	if res.Err != nil {
		w.c.log.WithError(res.Err).WithField("points", len(batch)).Warn("ceresdb cable write failed")
	}

	for _, p := range batch {
		p.res <- res
		close(p.res)
	}
}

// Send queues p for the next batch. The returned channel yields exactly
// one result once the batch is written. Sending before Start or after Close
// yields an ErrInvalidState result.
func (w *WriteCable) Send(p *Point) <-chan *CableResult {
	res := make(chan *CableResult, 1)

	if p == nil {
		res <- &CableResult{Err: validationError("cable send", "point is nil")}
		close(res)
		return res
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		res <- &CableResult{Err: invalidStateError("cable send", "cable is closed")}
		close(res)
		return res
	}
	if !w.started {
		res <- &CableResult{Err: invalidStateError("cable send", "cable is not started")}
		close(res)
		return res
	}
	w.sendCh <- &cablePoint{point: p, res: res}
	return res
}

// Close flushes the pending points and waits for all writes to finish.
func (w *WriteCable) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.sendCh)
	w.mu.Unlock()

	w.wg.Wait()
}
