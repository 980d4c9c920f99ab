// Package hal defines the device-side contract the clik runtime drives:
// program loading, device memory allocation, buffer read/write/copy, and
// kernel execution over an N-D index space (see Device).
//
// # Backends
//
// Concrete backends live in subpackages and register themselves with
// RegisterBackend from an init() function:
//
//   - hal/software: an in-process reference backend with real buffer
//     storage and a registry of named Go callbacks standing in for
//     compiled device kernels.
//   - hal/dlopen: loads a native shared library implementing this
//     package's contract as a flat C ABI, via goffi.
//
// The runtime looks a backend up by name:
//
//	backend, ok := hal.GetBackend("software")
//	if !ok {
//		return fmt.Errorf("software backend not available")
//	}
//	dev, err := backend.DeviceCreate(0)
//
// # Design principles
//
// The HAL prioritizes portability over safety: argument and bounds
// validation happen in the runtime layer above, not here. A Device
// implementation is free to assume its caller already checked
// offset+size bounds and N-D range well-formedness; only allocation
// failure and device-level operation failure are reported back as
// errors.
//
// # Thread safety
//
// RegisterBackend, GetBackend, and AvailableBackends are safe for
// concurrent use. The owning runtime Device makes most calls to a Device
// value behind its own mutex, but the queue worker issues MemRead,
// MemWrite and MemCopy with that mutex released, so those can run
// concurrently with other calls on the same Device.
package hal
