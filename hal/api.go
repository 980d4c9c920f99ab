package hal

// DeviceAddress is an opaque location in device memory. The zero value is
// the reserved null address, returned by MemAlloc on failure.
type DeviceAddress uint64

// NullAddress is the sentinel DeviceAddress indicating allocation failure.
const NullAddress DeviceAddress = 0

// ProgramHandle identifies a loaded program on a device. The zero value is
// the reserved invalid handle, returned by ProgramLoad on failure.
type ProgramHandle uint64

// InvalidProgram is the sentinel ProgramHandle indicating a load failure.
const InvalidProgram ProgramHandle = 0

// EntryPoint identifies a kernel's entry point within a loaded program. The
// zero value is the reserved not-found result, returned by
// ProgramFindKernel when the name does not resolve.
type EntryPoint uint64

// NoEntryPoint is the sentinel EntryPoint indicating a name lookup miss.
const NoEntryPoint EntryPoint = 0

// ArgKind distinguishes a by-value argument from a by-address one.
type ArgKind int

const (
	// ArgValue carries its payload inline; the device reads Bytes directly.
	ArgValue ArgKind = iota
	// ArgAddress carries a DeviceAddress; Space determines whether it
	// names a global allocation or a local (shared) one.
	ArgAddress
)

// ArgSpace distinguishes the global and local (per-work-group shared)
// address spaces an ArgAddress argument may target.
type ArgSpace int

const (
	// SpaceGlobal addresses device-global memory.
	SpaceGlobal ArgSpace = iota
	// SpaceLocal requests a per-work-group shared allocation of Size
	// bytes; its Address field is unused.
	SpaceLocal
)

// Arg is one translated kernel argument, ready to hand to KernelExec. It
// corresponds 1:1 to a runtime Argument after translation.
type Arg struct {
	Kind    ArgKind
	Space   ArgSpace
	Size    uint64
	Address DeviceAddress // valid when Kind == ArgAddress and Space == SpaceGlobal
	Bytes   []byte        // valid when Kind == ArgValue
}

// NDRange describes a 1-to-3-dimensional index space. Unused higher
// dimensions must already carry the defaults (offsets=0, global=1,
// local=1) before reaching a Device method — the HAL port does not fill
// them in itself.
type NDRange struct {
	Offsets [3]uint64
	Global  [3]uint64
	Local   [3]uint64
	Dims    uint32
}

// WorkGroupSize returns the product of Local[i] across all three slots.
// A zero result means no work can be dispatched.
func (r NDRange) WorkGroupSize() uint64 {
	return r.Local[0] * r.Local[1] * r.Local[2]
}

// Device is the device-side contract the runtime depends on. A Device is
// obtained from a Backend's DeviceCreate. The owning runtime Device makes
// most calls under its own mutex, but its queue worker calls MemRead,
// MemWrite and MemCopy with that mutex released, so those calls can
// overlap other calls on the same Device.
type Device interface {
	// ProgramLoad ingests an opaque kernel binary, returning InvalidProgram
	// if the backend rejects the bytes.
	ProgramLoad(bytes []byte) (ProgramHandle, error)

	// ProgramFree releases a program handle previously returned by
	// ProgramLoad.
	ProgramFree(h ProgramHandle)

	// ProgramFindKernel resolves a kernel name to an entry point within a
	// loaded program, returning NoEntryPoint if the name is not exported.
	ProgramFindKernel(h ProgramHandle, name string) (EntryPoint, error)

	// MemAlloc reserves size bytes of device memory aligned to alignment,
	// returning NullAddress on failure.
	MemAlloc(size, alignment uint64) (DeviceAddress, error)

	// MemFree releases a device address previously returned by MemAlloc.
	MemFree(addr DeviceAddress)

	// MemRead copies size bytes from device memory at src into host
	// memory at dst.
	MemRead(dst []byte, src DeviceAddress, size uint64) error

	// MemWrite copies size bytes from host memory at src into device
	// memory at dst.
	MemWrite(dst DeviceAddress, src []byte, size uint64) error

	// MemCopy copies size bytes from src to dst, both in device memory.
	MemCopy(dst, src DeviceAddress, size uint64) error

	// KernelExec dispatches a kernel over ndrange with the given
	// translated argument vector.
	KernelExec(program ProgramHandle, entry EntryPoint, ndrange NDRange, args []Arg) error

	// Destroy releases the device handle itself, along with any
	// backend-private resources (arenas, library handles) it owns. The
	// caller has already drained and released every Program, Kernel, and
	// Buffer it created.
	Destroy() error
}

// Info exposes the discovery operations a HAL backend offers ahead of
// device creation: how many devices it has, a human-readable platform
// name, and a factory for a given device index. The runtime requires
// NumDevices() > 0 and DeviceCreate(0) to succeed before it treats a
// backend as usable.
type Info interface {
	NumDevices() int
	PlatformName() string
	DeviceCreate(index int) (Device, error)
}

// Backend is what a HAL implementation registers: discovery plus device
// creation, looked up by name through GetBackend.
type Backend interface {
	Info
}
