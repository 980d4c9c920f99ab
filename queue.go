package clik

import (
	"fmt"
	"os"
	"sync"

	"github.com/gogpu/clik/hal"
)

// commandKind tags a queued Command's variant.
type commandKind int

const (
	cmdReadBuffer commandKind = iota
	cmdWriteBuffer
	cmdCopyBuffer
	cmdRunKernel
)

func (k commandKind) String() string {
	switch k {
	case cmdReadBuffer:
		return "ReadBuffer"
	case cmdWriteBuffer:
		return "WriteBuffer"
	case cmdCopyBuffer:
		return "CopyBuffer"
	case cmdRunKernel:
		return "RunKernel"
	default:
		return "Unknown"
	}
}

// command is one unit of device-side work, heap-allocated, pushed to the
// back of the queue's list under the device lock, and freed (dropped)
// after execution.
type command struct {
	timestamp uint64
	kind      commandKind

	// ReadBuffer / WriteBuffer / CopyBuffer fields.
	dst       *Buffer
	dstOffset uint64
	src       *Buffer
	srcOffset uint64
	hostDst   []byte
	hostSrc   []byte
	size      uint64

	// RunKernel field.
	kernel *Kernel
}

// Queue is a Device's single in-order Command Queue: a FIFO list of
// pending Commands, three monotonic timestamps (next/dispatched/
// executed), two condition variables, and one worker goroutine. Every
// field below is protected by the owning Device's mutex — the queue has
// no lock of its own.
type Queue struct {
	device *Device

	dispatchedCond *sync.Cond
	executedCond   *sync.Cond

	pending []*command

	nextTimestamp      uint64
	dispatchedTimestamp uint64
	executedTimestamp   uint64

	shuttingDown bool
	workerDone   chan struct{}

	// LastError is the most recent DeviceFailure observed by the worker,
	// a sticky structured alternative to the stderr line every such
	// failure also produces (spec.md §9's redesign note). Read it under
	// no special lock; the worker only ever replaces it, never reads it
	// back.
	LastError error
}

func newQueue(d *Device) *Queue {
	q := &Queue{
		device:         d,
		dispatchedCond: sync.NewCond(&d.mu),
		executedCond:   sync.NewCond(&d.mu),
		nextTimestamp:  1,
		workerDone:     make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue* helpers validate variant-specific invariants under the device
// lock, assign a fresh timestamp, and append to the pending list. They
// return false (and consume no timestamp) on a nil required parameter,
// an out-of-bounds access, or a queue already shutting down.

func (q *Queue) EnqueueReadBuffer(dst []byte, src *Buffer, srcOffset, size uint64) bool {
	if src == nil {
		return false
	}
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()

	if q.shuttingDown {
		return false
	}
	if err := src.boundsCheck(srcOffset, size); err != nil {
		return false
	}
	q.push(&command{kind: cmdReadBuffer, src: src, srcOffset: srcOffset, hostDst: dst, size: size})
	return true
}

func (q *Queue) EnqueueWriteBuffer(dst *Buffer, dstOffset uint64, src []byte, size uint64) bool {
	if dst == nil {
		return false
	}
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()

	if q.shuttingDown {
		return false
	}
	if err := dst.boundsCheck(dstOffset, size); err != nil {
		return false
	}
	q.push(&command{kind: cmdWriteBuffer, dst: dst, dstOffset: dstOffset, hostSrc: src, size: size})
	return true
}

func (q *Queue) EnqueueCopyBuffer(dst *Buffer, dstOffset uint64, src *Buffer, srcOffset, size uint64) bool {
	if dst == nil || src == nil {
		return false
	}
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()

	if q.shuttingDown {
		return false
	}
	if err := dst.boundsCheck(dstOffset, size); err != nil {
		return false
	}
	if err := src.boundsCheck(srcOffset, size); err != nil {
		return false
	}
	q.push(&command{kind: cmdCopyBuffer, dst: dst, dstOffset: dstOffset, src: src, srcOffset: srcOffset, size: size})
	return true
}

func (q *Queue) EnqueueKernel(k *Kernel) bool {
	if k == nil || k.released {
		return false
	}
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()

	if q.shuttingDown {
		return false
	}
	q.push(&command{kind: cmdRunKernel, kernel: k})
	return true
}

// push assigns the next timestamp and appends c. Caller holds the
// device lock.
func (q *Queue) push(c *command) {
	c.timestamp = q.nextTimestamp
	q.nextTimestamp++
	q.pending = append(q.pending, c)
}

// Dispatch advances the dispatched watermark to the highest timestamp
// currently queued and wakes the worker. It returns false if there is
// nothing new to dispatch.
func (q *Queue) Dispatch() bool {
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()

	var max uint64
	for _, c := range q.pending {
		if c.timestamp > max {
			max = c.timestamp
		}
	}
	if max <= q.dispatchedTimestamp {
		return false
	}
	q.dispatchedTimestamp = max
	q.dispatchedCond.Signal()
	return true
}

// Wait blocks until every command dispatched before this call entered
// has executed. If Dispatch has never been called, Wait returns
// immediately.
func (q *Queue) Wait() {
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()

	target := q.dispatchedTimestamp
	for q.executedTimestamp < target {
		q.executedCond.Wait()
	}
}

// shutdown implicitly dispatches any residual work, marks the queue
// shutting down, wakes the worker, and joins it.
func (q *Queue) shutdown() {
	d := q.device
	d.mu.Lock()
	if q.shuttingDown {
		d.mu.Unlock()
		return
	}

	var max uint64
	for _, c := range q.pending {
		if c.timestamp > max {
			max = c.timestamp
		}
	}
	if max > q.dispatchedTimestamp {
		q.dispatchedTimestamp = max
	}
	q.shuttingDown = true
	q.dispatchedCond.Signal()
	d.mu.Unlock()

	<-q.workerDone
}

// run is the worker goroutine body: one loop iteration drains every
// pending command whose timestamp is within the current dispatched
// watermark, dropping the device lock around each HAL call so new work
// can be enqueued while the device is busy.
func (q *Queue) run() {
	defer close(q.workerDone)
	d := q.device

	d.mu.Lock()
	for {
		if q.shuttingDown && len(q.pending) == 0 {
			d.mu.Unlock()
			return
		}

		prev := q.executedTimestamp
		current := q.dispatchedTimestamp

		for len(q.pending) > 0 && q.pending[0].timestamp <= current {
			c := q.pending[0]

			d.mu.Unlock()
			err := q.execute(c)
			d.mu.Lock()

			q.executedTimestamp = c.timestamp
			q.pending = q.pending[1:]

			if err != nil {
				q.LastError = err
				fmt.Fprintf(os.Stderr, "clik: %v\n", err)
				hal.Logger().Error("command failed", "kind", c.kind.String(), "timestamp", c.timestamp, "error", err)
			} else {
				hal.Logger().Debug("command executed", "kind", c.kind.String(), "timestamp", c.timestamp)
			}
		}

		if q.executedTimestamp > prev {
			q.executedCond.Broadcast()
		}

		if q.shuttingDown && len(q.pending) == 0 {
			d.mu.Unlock()
			return
		}

		q.dispatchedCond.Wait()
	}
}

// execute invokes the HAL for one command's variant. It runs with the
// device lock released.
func (q *Queue) execute(c *command) error {
	d := q.device

	switch c.kind {
	case cmdReadBuffer:
		addr := c.src.addr + hal.DeviceAddress(c.srcOffset)
		if err := d.hal.MemRead(c.hostDst, addr, c.size); err != nil {
			return deviceFailure(c.kind.String(), err)
		}
	case cmdWriteBuffer:
		addr := c.dst.addr + hal.DeviceAddress(c.dstOffset)
		if err := d.hal.MemWrite(addr, c.hostSrc, c.size); err != nil {
			return deviceFailure(c.kind.String(), err)
		}
	case cmdCopyBuffer:
		dstAddr := c.dst.addr + hal.DeviceAddress(c.dstOffset)
		srcAddr := c.src.addr + hal.DeviceAddress(c.srcOffset)
		if err := d.hal.MemCopy(dstAddr, srcAddr, c.size); err != nil {
			return deviceFailure(c.kind.String(), err)
		}
	case cmdRunKernel:
		if err := c.kernel.exec(); err != nil {
			return deviceFailure(c.kind.String(), err)
		}
	}
	return nil
}
