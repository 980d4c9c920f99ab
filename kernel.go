package clik

import (
	"fmt"

	"github.com/gogpu/clik/hal"
)

// Kernel binds a Program's resolved entry point to a fixed N-D range and
// argument vector, ready to be run synchronously or enqueued on a Queue.
// Unlike the original implementation this is ported from — which stores
// only a pointer and a length into a caller-owned argument array — args
// is copied into the Kernel at creation (spec.md §9's open question on
// argument-vector lifetime, resolved here by making ownership explicit
// rather than leaving it to the caller).
type Kernel struct {
	program  *Program
	entry    hal.EntryPoint
	ndrange  NDRange
	args     []Argument
	released bool
}

// CreateKernel resolves name within program and binds it to ndrange and
// args. An unresolved name fails with ErrNotFound and no partial Kernel
// is returned.
func CreateKernel(program *Program, name string, ndrange NDRange, args []Argument) (*Kernel, error) {
	if program == nil {
		return nil, fmt.Errorf("%w: nil program", ErrInvalidInput)
	}

	// A zero work-group size (any local[i] == 0) is not rejected here:
	// per the boundary behavior this is ported from, it fails as a
	// DeviceFailure at execution time, with the command still dequeued,
	// not at creation time.
	entry, err := program.findKernel(name)
	if err != nil {
		return nil, err
	}

	argsCopy := make([]Argument, len(args))
	copy(argsCopy, args)

	return &Kernel{program: program, entry: entry, ndrange: ndrange, args: argsCopy}, nil
}

// Release frees the kernel's runtime state. It has no HAL-side handle of
// its own to free.
func (k *Kernel) Release() {
	k.released = true
}

func (k *Kernel) exec() error {
	hals, err := translateArgs(k.args)
	if err != nil {
		return err
	}

	k.program.mu.Lock()
	defer k.program.mu.Unlock()
	if k.program.released {
		return ErrReleased
	}

	k.program.device.mu.Lock()
	defer k.program.device.mu.Unlock()

	return k.program.device.hal.KernelExec(k.program.handle, k.entry, k.ndrange.toHAL(), hals)
}
