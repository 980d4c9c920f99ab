// Package dlopen loads a native shared library that implements the HAL
// C ABI and adapts it to hal.Device/hal.Backend, the way
// hal/vulkan/vk loads libvulkan.so and resolves vkGetInstanceProcAddr —
// via github.com/go-webgpu/goffi's pure-Go FFI instead of cgo.
//
// The library must export the following symbols, matching this package's
// device-side contract field for field:
//
//	uint32_t num_devices(void)
//	const char* platform_name(void)
//	uint64_t   device_create(uint32_t index)
//	uint64_t   program_load(uint64_t device, const uint8_t *bytes, uint64_t len)
//	void       program_free(uint64_t device, uint64_t program)
//	uint64_t   program_find_kernel(uint64_t device, uint64_t program, const char *name)
//	uint64_t   mem_alloc(uint64_t device, uint64_t size, uint64_t alignment)
//	void       mem_free(uint64_t device, uint64_t addr)
//	uint32_t   mem_read(uint64_t device, uint8_t *dst, uint64_t src, uint64_t size)
//	uint32_t   mem_write(uint64_t device, uint64_t dst, const uint8_t *src, uint64_t size)
//	uint32_t   mem_copy(uint64_t device, uint64_t dst, uint64_t src, uint64_t size)
//	uint32_t   kernel_exec(uint64_t device, uint64_t program, uint64_t entry,
//	                        const uint8_t *ndrange, const uint8_t *args,
//	                        uint32_t num_args, uint32_t dims)
//
// uint64_t 0 is the failure sentinel everywhere a handle or address is
// returned (InvalidProgram, NoEntryPoint, NullAddress); the uint32_t
// "bool" returns use 0 for failure and nonzero for success. ndrange and
// args are passed as flat little-endian byte buffers packed by this
// package (see abi.go) rather than native structs, since goffi calls
// through a single generic CallInterface per symbol and does not do
// struct marshaling.
//
// This backend is not auto-registered: a library path must be supplied
// at runtime, so callers use Open directly instead of relying on an
// init()-time side effect.
package dlopen
