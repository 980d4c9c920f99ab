package hal

import "errors"

// Sentinel errors a Device or Backend implementation returns to let the
// runtime classify a failure without inspecting backend-specific detail.
var (
	// ErrBackendNotFound indicates the requested backend is not registered.
	ErrBackendNotFound = errors.New("hal: backend not found")

	// ErrNoDevices indicates a backend's NumDevices returned 0.
	ErrNoDevices = errors.New("hal: backend exposes no devices")

	// ErrLoadFailed indicates ProgramLoad rejected the supplied bytes.
	ErrLoadFailed = errors.New("hal: program load failed")

	// ErrKernelNotFound indicates ProgramFindKernel could not search the
	// program at all (for example, an unknown program handle). A name the
	// program does not export is reported as NoEntryPoint with a nil
	// error instead.
	ErrKernelNotFound = errors.New("hal: kernel not found")

	// ErrAllocFailed indicates MemAlloc returned NullAddress.
	ErrAllocFailed = errors.New("hal: device allocation failed")

	// ErrDeviceFailure indicates a mem_read, mem_write, mem_copy, or
	// kernel_exec call failed mid-operation. Unlike the errors above,
	// which fail before any device-side work has started, this one can
	// occur after the operation has already had partial effect.
	ErrDeviceFailure = errors.New("hal: device operation failed")
)
