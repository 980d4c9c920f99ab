package software

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/gogpu/clik/hal"
	"github.com/gogpu/clik/hal/memory"
)

const (
	defaultArenaSize = 64 << 20
	blockAlignment   = 4096
)

// arena is the single mmap-backed region a Device carves buffers out of.
// Every live allocation is tracked by address so free can hand the exact
// BuddyBlock back to the allocator.
type arena struct {
	mu        sync.Mutex
	data      []byte
	allocator *memory.BuddyAllocator
	blocks    map[hal.DeviceAddress]memory.BuddyBlock
}

func newArena(size uint64) (*arena, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("software: mmap arena: %w", err)
	}
	alloc, err := memory.NewBuddyAllocator(size, blockAlignment)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("software: buddy allocator: %w", err)
	}
	return &arena{
		data:      data,
		allocator: alloc,
		blocks:    make(map[hal.DeviceAddress]memory.BuddyBlock),
	}, nil
}

// alloc reserves size bytes rounded up to at least alignment. Rounding up
// to alignment before handing the request to the buddy allocator is what
// makes the block's offset in the arena alignment-aligned: a buddy block
// of size S is always located at an offset that is a multiple of S. The
// returned address is that offset plus one, so the address value itself
// is not alignment-aligned.
func (a *arena) alloc(size, alignment uint64) (hal.DeviceAddress, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if alignment > size {
		size = alignment
	}
	block, err := a.allocator.Alloc(size)
	if err != nil {
		return hal.NullAddress, err
	}
	// Addresses are offset+1 so that offset 0 (a legitimate block) never
	// collides with hal.NullAddress.
	addr := hal.DeviceAddress(block.Offset + 1)
	a.blocks[addr] = block
	return addr, nil
}

func (a *arena) free(addr hal.DeviceAddress) {
	a.mu.Lock()
	defer a.mu.Unlock()
	block, ok := a.blocks[addr]
	if !ok {
		return
	}
	delete(a.blocks, addr)
	_ = a.allocator.Free(block)
}

// blockSize returns the live allocation size backing addr, as recorded by
// the buddy allocator at alloc time. It exists because a BufferRef HAL
// argument carries no size of its own (spec.md §4.2: Size is 0 for the
// buffer case) — callers resolving such an argument to bytes look the
// length up from the allocation instead.
func (a *arena) blockSize(addr hal.DeviceAddress) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	block, ok := a.blocks[addr]
	if !ok {
		return 0, fmt.Errorf("unknown device address %d", addr)
	}
	return block.Size, nil
}

func (a *arena) slice(addr hal.DeviceAddress, size uint64) ([]byte, error) {
	if addr == hal.NullAddress {
		return nil, fmt.Errorf("null device address")
	}
	a.mu.Lock()
	data := a.data
	a.mu.Unlock()
	off := uint64(addr) - 1
	if off+size > uint64(len(data)) {
		return nil, fmt.Errorf("address range [%d, %d) out of bounds", off, off+size)
	}
	return data[off : off+size], nil
}

func (a *arena) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.data == nil {
		return nil
	}
	err := unix.Munmap(a.data)
	a.data = nil
	return err
}
