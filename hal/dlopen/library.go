package dlopen

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// library wraps one loaded shared object and the resolved symbols plus
// prepared CallInterfaces the rest of this package invokes through.
type library struct {
	handle unsafe.Pointer

	numDevices        unsafe.Pointer
	platformName      unsafe.Pointer
	deviceCreate      unsafe.Pointer
	programLoad       unsafe.Pointer
	programFree       unsafe.Pointer
	programFindKernel unsafe.Pointer
	memAlloc          unsafe.Pointer
	memFree           unsafe.Pointer
	memRead           unsafe.Pointer
	memWrite          unsafe.Pointer
	memCopy           unsafe.Pointer
	kernelExec        unsafe.Pointer

	cifU32Void       types.CallInterface // uint32 num_devices(void)
	cifPtrVoid       types.CallInterface // const char* platform_name(void)
	cifU64U32        types.CallInterface // uint64 device_create(uint32)
	cifVoidU64U64    types.CallInterface // void program_free/mem_free(uint64, uint64)
	cifU64U64PtrU64  types.CallInterface // uint64 program_load(uint64, ptr, uint64)
	cifU64U64U64Ptr  types.CallInterface // uint64 program_find_kernel(uint64, uint64, ptr)
	cifU64U64U64U64  types.CallInterface // uint64 mem_alloc(uint64, uint64, uint64)
	cifU32U64PtrU64U64 types.CallInterface // uint32 mem_read(uint64, ptr, uint64, uint64)
	cifU32U64U64PtrU64 types.CallInterface // uint32 mem_write(uint64, uint64, ptr, uint64)
	cifU32U64U64U64U64 types.CallInterface // uint32 mem_copy(uint64, uint64, uint64, uint64)
	cifKernelExec      types.CallInterface // uint32 kernel_exec(uint64, uint64, uint64, ptr, ptr, uint32, uint32)
}

// open loads path and resolves every symbol this package's ABI requires.
func open(path string) (*library, error) {
	handle, err := ffi.LoadLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("dlopen: load %s: %w", path, err)
	}

	lib := &library{handle: handle}

	symbols := map[string]*unsafe.Pointer{
		"num_devices":         &lib.numDevices,
		"platform_name":       &lib.platformName,
		"device_create":       &lib.deviceCreate,
		"program_load":        &lib.programLoad,
		"program_free":        &lib.programFree,
		"program_find_kernel": &lib.programFindKernel,
		"mem_alloc":           &lib.memAlloc,
		"mem_free":            &lib.memFree,
		"mem_read":            &lib.memRead,
		"mem_write":           &lib.memWrite,
		"mem_copy":            &lib.memCopy,
		"kernel_exec":         &lib.kernelExec,
	}
	for name, slot := range symbols {
		sym, err := ffi.GetSymbol(handle, name)
		if err != nil {
			return nil, fmt.Errorf("dlopen: symbol %s not found in %s: %w", name, path, err)
		}
		*slot = sym
	}

	if err := lib.prepareCallInterfaces(); err != nil {
		return nil, err
	}
	return lib, nil
}

func (l *library) prepareCallInterfaces() error {
	u64 := types.UInt64TypeDescriptor
	u32 := types.UInt32TypeDescriptor
	ptr := types.PointerTypeDescriptor

	type prep struct {
		cif  *types.CallInterface
		ret  *types.TypeDescriptor
		args []*types.TypeDescriptor
	}
	specs := []prep{
		{&l.cifU32Void, u32, nil},
		{&l.cifPtrVoid, ptr, nil},
		{&l.cifU64U32, u64, []*types.TypeDescriptor{u32}},
		{&l.cifVoidU64U64, nil, []*types.TypeDescriptor{u64, u64}},
		{&l.cifU64U64PtrU64, u64, []*types.TypeDescriptor{u64, ptr, u64}},
		{&l.cifU64U64U64Ptr, u64, []*types.TypeDescriptor{u64, u64, ptr}},
		{&l.cifU64U64U64U64, u64, []*types.TypeDescriptor{u64, u64, u64}},
		{&l.cifU32U64PtrU64U64, u32, []*types.TypeDescriptor{u64, ptr, u64, u64}},
		{&l.cifU32U64U64PtrU64, u32, []*types.TypeDescriptor{u64, u64, ptr, u64}},
		{&l.cifU32U64U64U64U64, u32, []*types.TypeDescriptor{u64, u64, u64, u64}},
		{&l.cifKernelExec, u32, []*types.TypeDescriptor{u64, u64, u64, ptr, ptr, u32, u32}},
	}
	for _, s := range specs {
		if err := ffi.PrepareCallInterface(s.cif, types.DefaultCall, s.ret, s.args); err != nil {
			return fmt.Errorf("dlopen: prepare call interface: %w", err)
		}
	}
	return nil
}
