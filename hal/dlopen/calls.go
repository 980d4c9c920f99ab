package dlopen

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
)

// Every wrapper below follows goffi's calling convention: args[] holds
// pointers to WHERE each argument value is stored, not the values
// themselves, and a pointer-typed argument needs one more level of
// indirection than a scalar one (ptr := unsafe.Pointer(&data[0]); args[i]
// = unsafe.Pointer(&ptr)).

func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func (l *library) numDevices() uint32 {
	var result uint32
	_ = ffi.CallFunction(&l.cifU32Void, l.numDevices, unsafe.Pointer(&result), nil)
	return result
}

func (l *library) platformName() string {
	var result unsafe.Pointer
	_ = ffi.CallFunction(&l.cifPtrVoid, l.platformName, unsafe.Pointer(&result), nil)
	if result == nil {
		return ""
	}
	return goString(result)
}

func (l *library) deviceCreate(index uint32) (uint64, error) {
	var result uint64
	args := [1]unsafe.Pointer{unsafe.Pointer(&index)}
	if err := ffi.CallFunction(&l.cifU64U32, l.deviceCreate, unsafe.Pointer(&result), args[:]); err != nil {
		return 0, fmt.Errorf("dlopen: device_create: %w", err)
	}
	return result, nil
}

func (l *library) programLoad(device uint64, bytes []byte) (uint64, error) {
	var result uint64
	var dataPtr unsafe.Pointer
	if len(bytes) > 0 {
		dataPtr = unsafe.Pointer(&bytes[0])
	}
	length := uint64(len(bytes))
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&dataPtr),
		unsafe.Pointer(&length),
	}
	if err := ffi.CallFunction(&l.cifU64U64PtrU64, l.programLoad, unsafe.Pointer(&result), args[:]); err != nil {
		return 0, fmt.Errorf("dlopen: program_load: %w", err)
	}
	return result, nil
}

func (l *library) programFree(device, program uint64) {
	args := [2]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&program)}
	_ = ffi.CallFunction(&l.cifVoidU64U64, l.programFree, nil, args[:])
}

func (l *library) programFindKernel(device, program uint64, name string) (uint64, error) {
	var result uint64
	cname := cstring(name)
	namePtr := unsafe.Pointer(&cname[0])
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&program),
		unsafe.Pointer(&namePtr),
	}
	if err := ffi.CallFunction(&l.cifU64U64U64Ptr, l.programFindKernel, unsafe.Pointer(&result), args[:]); err != nil {
		return 0, fmt.Errorf("dlopen: program_find_kernel: %w", err)
	}
	return result, nil
}

func (l *library) memAlloc(device, size, alignment uint64) (uint64, error) {
	var result uint64
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&size),
		unsafe.Pointer(&alignment),
	}
	if err := ffi.CallFunction(&l.cifU64U64U64U64, l.memAlloc, unsafe.Pointer(&result), args[:]); err != nil {
		return 0, fmt.Errorf("dlopen: mem_alloc: %w", err)
	}
	return result, nil
}

func (l *library) memFree(device, addr uint64) {
	args := [2]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&addr)}
	_ = ffi.CallFunction(&l.cifVoidU64U64, l.memFree, nil, args[:])
}

func (l *library) memRead(device uint64, dst []byte, src, size uint64) error {
	var result uint32
	var dstPtr unsafe.Pointer
	if len(dst) > 0 {
		dstPtr = unsafe.Pointer(&dst[0])
	}
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&dstPtr),
		unsafe.Pointer(&src),
		unsafe.Pointer(&size),
	}
	if err := ffi.CallFunction(&l.cifU32U64PtrU64U64, l.memRead, unsafe.Pointer(&result), args[:]); err != nil {
		return fmt.Errorf("dlopen: mem_read: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("dlopen: mem_read: device reported failure")
	}
	return nil
}

func (l *library) memWrite(device, dst uint64, src []byte, size uint64) error {
	var result uint32
	var srcPtr unsafe.Pointer
	if len(src) > 0 {
		srcPtr = unsafe.Pointer(&src[0])
	}
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&dst),
		unsafe.Pointer(&srcPtr),
		unsafe.Pointer(&size),
	}
	if err := ffi.CallFunction(&l.cifU32U64U64PtrU64, l.memWrite, unsafe.Pointer(&result), args[:]); err != nil {
		return fmt.Errorf("dlopen: mem_write: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("dlopen: mem_write: device reported failure")
	}
	return nil
}

func (l *library) memCopy(device, dst, src, size uint64) error {
	var result uint32
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&dst),
		unsafe.Pointer(&src),
		unsafe.Pointer(&size),
	}
	if err := ffi.CallFunction(&l.cifU32U64U64U64U64, l.memCopy, unsafe.Pointer(&result), args[:]); err != nil {
		return fmt.Errorf("dlopen: mem_copy: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("dlopen: mem_copy: device reported failure")
	}
	return nil
}

func (l *library) kernelExec(device, program, entry uint64, ndrange, packedArgs []byte, numArgs, dims uint32) error {
	var result uint32
	ndrangePtr := unsafe.Pointer(&ndrange[0])
	var argsPtr unsafe.Pointer
	if len(packedArgs) > 0 {
		argsPtr = unsafe.Pointer(&packedArgs[0])
	}
	args := [7]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&program),
		unsafe.Pointer(&entry),
		unsafe.Pointer(&ndrangePtr),
		unsafe.Pointer(&argsPtr),
		unsafe.Pointer(&numArgs),
		unsafe.Pointer(&dims),
	}
	if err := ffi.CallFunction(&l.cifKernelExec, l.kernelExec, unsafe.Pointer(&result), args[:]); err != nil {
		return fmt.Errorf("dlopen: kernel_exec: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("dlopen: kernel_exec: device reported failure")
	}
	return nil
}

// goString reads a NUL-terminated C string starting at ptr.
func goString(ptr unsafe.Pointer) string {
	if ptr == nil {
		return ""
	}
	var n int
	for {
		b := *(*byte)(unsafe.Pointer(uintptr(ptr) + uintptr(n)))
		if b == 0 {
			break
		}
		n++
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}
