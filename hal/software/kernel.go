package software

import (
	"sync"

	"github.com/gogpu/clik/hal"
)

// KernelFunc is the callback a program manifest's kernel name resolves
// to. dev gives the callback access to the device's backing arena so it
// can resolve BufferRef arguments to live byte slices via ArgBytes.
type KernelFunc func(dev *Device, ndrange hal.NDRange, args []hal.Arg) error

var (
	kernelsMu sync.RWMutex
	kernels   = make(map[string]KernelFunc)
)

// RegisterKernel makes fn resolvable by name from any program manifest
// that lists it. Call from an init() function in a package that defines
// compute kernels for the software backend.
func RegisterKernel(name string, fn KernelFunc) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	kernels[name] = fn
}

func lookupKernel(name string) (KernelFunc, bool) {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	fn, ok := kernels[name]
	return fn, ok
}

// ArgBytes resolves one translated Arg to a byte slice: a global address
// argument returns its live arena region, a value argument returns its
// inline payload, and a local-memory argument returns a fresh zeroed
// scratch slice — the software backend keeps no local-memory store
// across invocations, matching the HAL's "opaque per-work-group scratch"
// contract.
//
// A global buffer argument carries no Size of its own (spec.md §4.2:
// Size is 0 for the BufferRef case), so its length is looked up from the
// arena's own record of the allocation instead of the Arg.
func (d *Device) ArgBytes(arg hal.Arg) ([]byte, error) {
	switch {
	case arg.Kind == hal.ArgValue:
		return arg.Bytes, nil
	case arg.Kind == hal.ArgAddress && arg.Space == hal.SpaceLocal:
		return make([]byte, arg.Size), nil
	default:
		size, err := d.arena.blockSize(arg.Address)
		if err != nil {
			return nil, err
		}
		return d.arena.slice(arg.Address, size)
	}
}
