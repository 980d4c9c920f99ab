package memory

import (
	"errors"
	"sync"
	"testing"
)

// All test sizes below use 4096 as the minimum block size: that's the
// alignment clik's software arena always requests (buffer.go's
// bufferAlignment constant), so it's the only granularity hal/software
// actually exercises this allocator at.

func TestNewBuddyAllocator(t *testing.T) {
	tests := []struct {
		name         string
		totalSize    uint64
		minBlockSize uint64
		wantErr      bool
	}{
		{
			name:         "valid 1MB arena with 4KB min",
			totalSize:    1 << 20, // 1 MB
			minBlockSize: 4096,
			wantErr:      false,
		},
		{
			name:         "valid 64MB arena with 4KB min",
			totalSize:    64 << 20, // matches software.defaultArenaSize
			minBlockSize: 4096,
			wantErr:      false,
		},
		{
			name:         "valid equal sizes",
			totalSize:    4096,
			minBlockSize: 4096,
			wantErr:      false,
		},
		{
			name:         "invalid zero total",
			totalSize:    0,
			minBlockSize: 4096,
			wantErr:      true,
		},
		{
			name:         "invalid zero min",
			totalSize:    1 << 20,
			minBlockSize: 0,
			wantErr:      true,
		},
		{
			name:         "invalid non-power-of-2 total",
			totalSize:    1000,
			minBlockSize: 4096,
			wantErr:      true,
		},
		{
			name:         "invalid non-power-of-2 min",
			totalSize:    1 << 20,
			minBlockSize: 300,
			wantErr:      true,
		},
		{
			name:         "invalid min > total",
			totalSize:    4096,
			minBlockSize: 1 << 20,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuddyAllocator(tt.totalSize, tt.minBlockSize)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBuddyAllocator() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && b == nil {
				t.Error("NewBuddyAllocator() returned nil allocator without error")
			}
		})
	}
}

// TestBuddyAlloc exercises allocation sizes a Device's MemAlloc actually
// requests: CreateBuffer's bufferAlignment (4096) rounds every request up
// to at least that, so buffer.go's alloc() call never asks this allocator
// for anything smaller.
func TestBuddyAlloc(t *testing.T) {
	b, err := NewBuddyAllocator(1<<20, 4096) // 1MB arena, 4KB min
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	tests := []struct {
		name     string
		size     uint64
		wantSize uint64 // Expected allocated size (rounded up)
		wantErr  error
	}{
		{"min size", 1, 4096, nil},
		{"exact min", 4096, 4096, nil},
		{"between powers", 5000, 8192, nil},
		{"exact power", 8192, 8192, nil},
		{"16KB buffer", 16384, 16384, nil},
		{"zero size", 0, 0, ErrInvalidSize},
		{"too large", 2 << 20, 0, ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := b.Alloc(tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Alloc(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
				return
			}
			if err == nil {
				if block.Size != tt.wantSize {
					t.Errorf("Alloc(%d) size = %d, want %d", tt.size, block.Size, tt.wantSize)
				}
				// Clean up
				if err := b.Free(block); err != nil {
					t.Errorf("Free failed: %v", err)
				}
			}
		})
	}
}

// TestBuddyAllocMultiple mirrors a Device handing out many CreateBuffer
// allocations from one arena before any of them are released.
func TestBuddyAllocMultiple(t *testing.T) {
	b, err := NewBuddyAllocator(1<<20, 4096) // 1MB arena
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	blocks := make([]BuddyBlock, 0)
	for i := 0; i < 100; i++ {
		block, err := b.Alloc(4096)
		if err != nil {
			t.Fatalf("Alloc %d failed: %v", i, err)
		}
		blocks = append(blocks, block)
	}

	stats := b.Stats()
	if stats.AllocationCount != 100 {
		t.Errorf("AllocationCount = %d, want 100", stats.AllocationCount)
	}
	if stats.AllocatedSize != 100*4096 {
		t.Errorf("AllocatedSize = %d, want %d", stats.AllocatedSize, 100*4096)
	}

	for _, block := range blocks {
		if err := b.Free(block); err != nil {
			t.Errorf("Free failed: %v", err)
		}
	}

	stats = b.Stats()
	if stats.AllocationCount != 0 {
		t.Errorf("AllocationCount after free = %d, want 0", stats.AllocationCount)
	}
	if stats.AllocatedSize != 0 {
		t.Errorf("AllocatedSize after free = %d, want 0", stats.AllocatedSize)
	}
}

func TestBuddyAllocUntilFull(t *testing.T) {
	b, err := NewBuddyAllocator(64*1024, 4096) // 64KB arena, 4KB min = 16 buffers max
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	blocks := make([]BuddyBlock, 0)

	for {
		block, err := b.Alloc(4096)
		if errors.Is(err, ErrOutOfMemory) {
			break
		}
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		blocks = append(blocks, block)
	}

	if len(blocks) != 16 {
		t.Errorf("Allocated %d blocks, want 16", len(blocks))
	}

	if err := b.Free(blocks[0]); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	blocks = blocks[1:]

	block, err := b.Alloc(4096)
	if err != nil {
		t.Errorf("Alloc after free failed: %v", err)
	} else {
		blocks = append(blocks, block)
	}

	for _, blk := range blocks {
		_ = b.Free(blk)
	}
}

func TestBuddyFree(t *testing.T) {
	b, err := NewBuddyAllocator(1<<20, 4096)
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	block, err := b.Alloc(4096)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}

	if err := b.Free(block); err != nil {
		t.Errorf("Free() error = %v", err)
	}

	// A double free mirrors a Buffer.Release() bug (freeing the same
	// device address twice) and must fail loudly rather than corrupt the
	// free lists.
	if err := b.Free(block); !errors.Is(err, ErrDoubleFree) {
		t.Errorf("Double Free() error = %v, want ErrDoubleFree", err)
	}
}

func TestBuddyMerging(t *testing.T) {
	b, err := NewBuddyAllocator(64*1024, 4096) // 64KB arena
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	// Allocate two adjacent 32KB buffers (fills the entire arena).
	block1, err := b.Alloc(32 * 1024)
	if err != nil {
		t.Fatalf("Alloc 1 failed: %v", err)
	}
	block2, err := b.Alloc(32 * 1024)
	if err != nil {
		t.Fatalf("Alloc 2 failed: %v", err)
	}

	_, err = b.Alloc(4096)
	if !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("Expected ErrOutOfMemory, got %v", err)
	}

	if err := b.Free(block1); err != nil {
		t.Fatalf("Free 1 failed: %v", err)
	}
	if err := b.Free(block2); err != nil {
		t.Fatalf("Free 2 failed: %v", err)
	}

	// Now should be able to allocate the whole arena as one buffer.
	bigBlock, err := b.Alloc(64 * 1024)
	if err != nil {
		t.Errorf("Alloc full block failed: %v", err)
	}
	if bigBlock.Size != 64*1024 {
		t.Errorf("Big block size = %d, want %d", bigBlock.Size, 64*1024)
	}

	stats := b.Stats()
	if stats.MergeCount == 0 {
		t.Error("Expected merges to occur")
	}
}

func TestBuddyReset(t *testing.T) {
	b, err := NewBuddyAllocator(1<<20, 4096)
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		_, err := b.Alloc(4096)
		if err != nil {
			t.Fatalf("Alloc failed: %v", err)
		}
	}

	stats := b.Stats()
	if stats.AllocationCount != 10 {
		t.Errorf("AllocationCount = %d, want 10", stats.AllocationCount)
	}

	b.Reset()

	stats = b.Stats()
	if stats.AllocationCount != 0 {
		t.Errorf("AllocationCount after reset = %d, want 0", stats.AllocationCount)
	}
	if stats.AllocatedSize != 0 {
		t.Errorf("AllocatedSize after reset = %d, want 0", stats.AllocatedSize)
	}

	block, err := b.Alloc(1 << 20)
	if err != nil {
		t.Errorf("Alloc full size after reset failed: %v", err)
	}
	if block.Size != 1<<20 {
		t.Errorf("Block size = %d, want %d", block.Size, 1<<20)
	}
}

func TestBuddyStats(t *testing.T) {
	b, err := NewBuddyAllocator(1<<20, 4096)
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	stats := b.Stats()
	if stats.TotalSize != 1<<20 {
		t.Errorf("TotalSize = %d, want %d", stats.TotalSize, 1<<20)
	}
	if stats.AllocatedSize != 0 {
		t.Errorf("Initial AllocatedSize = %d, want 0", stats.AllocatedSize)
	}

	block1, _ := b.Alloc(4096)
	block2, _ := b.Alloc(8192)

	stats = b.Stats()
	if stats.AllocatedSize != 4096+8192 {
		t.Errorf("AllocatedSize = %d, want %d", stats.AllocatedSize, 4096+8192)
	}
	if stats.AllocationCount != 2 {
		t.Errorf("AllocationCount = %d, want 2", stats.AllocationCount)
	}
	if stats.TotalAllocated != 4096+8192 {
		t.Errorf("TotalAllocated = %d, want %d", stats.TotalAllocated, 4096+8192)
	}

	_ = b.Free(block1)
	stats = b.Stats()
	if stats.AllocatedSize != 8192 {
		t.Errorf("AllocatedSize after free = %d, want 8192", stats.AllocatedSize)
	}
	if stats.TotalFreed != 4096 {
		t.Errorf("TotalFreed = %d, want 4096", stats.TotalFreed)
	}

	_ = b.Free(block2)
}

// TestBuddyAllocAlignment pins the invariant hal/software's arena relies
// on: every returned offset is aligned to its own block size, so the bytes
// behind a device address handed back from MemAlloc start at a position
// in the arena aligned to the requested alignment. (The address value
// itself is that offset plus one.)
func TestBuddyAllocAlignment(t *testing.T) {
	b, err := NewBuddyAllocator(1<<20, 4096)
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	sizes := []uint64{4096, 8192, 16384, 32768, 65536, 131072}
	for _, size := range sizes {
		block, err := b.Alloc(size)
		if err != nil {
			t.Fatalf("Alloc(%d) failed: %v", size, err)
		}

		if block.Offset%block.Size != 0 {
			t.Errorf("Block offset %d not aligned to size %d", block.Offset, block.Size)
		}

		_ = b.Free(block)
	}
}

// TestBuddyNoOverlap guards the invariant that makes arena.slice safe:
// two live device addresses must never reference overlapping byte ranges.
func TestBuddyNoOverlap(t *testing.T) {
	b, err := NewBuddyAllocator(1<<20, 4096) // 1MB, matches a small arena
	if err != nil {
		t.Fatalf("NewBuddyAllocator failed: %v", err)
	}

	blocks := make([]BuddyBlock, 0)
	for i := 0; i < 50; i++ {
		block, err := b.Alloc(4096)
		if errors.Is(err, ErrOutOfMemory) {
			break
		}
		if err != nil {
			t.Fatalf("Alloc failed: %v", err)
		}
		blocks = append(blocks, block)
	}

	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			a := blocks[i]
			bb := blocks[j]

			aEnd := a.Offset + a.Size
			bEnd := bb.Offset + bb.Size

			if a.Offset < bEnd && bb.Offset < aEnd {
				t.Errorf("Blocks overlap: [%d-%d) and [%d-%d)",
					a.Offset, aEnd, bb.Offset, bEnd)
			}
		}
	}

	for _, blk := range blocks {
		_ = b.Free(blk)
	}
}

// Benchmarks

// BenchmarkBuddyAlloc measures single-buffer alloc/free cost against an
// arena sized like software.defaultArenaSize.
func BenchmarkBuddyAlloc(b *testing.B) {
	allocator, err := NewBuddyAllocator(64<<20, 4096) // 64MB, matches defaultArenaSize
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		block, err := allocator.Alloc(4096)
		if err != nil {
			allocator.Reset()
			block, _ = allocator.Alloc(4096)
		}
		_ = allocator.Free(block)
	}
}

func BenchmarkBuddyAllocFree(b *testing.B) {
	allocator, err := NewBuddyAllocator(64<<20, 4096)
	if err != nil {
		b.Fatal(err)
	}

	blocks := make([]BuddyBlock, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 1000; j++ {
			blocks[j], _ = allocator.Alloc(4096)
		}
		for j := 0; j < 1000; j++ {
			_ = allocator.Free(blocks[j])
		}
	}
}

// BenchmarkBuddyAllocParallel measures concurrent allocation throughput.
// hal/software's arena serializes every MemAlloc under its own mutex, and
// this benchmark does the same, so it bounds the contention a Device sees
// when multiple goroutines create buffers at once.
func BenchmarkBuddyAllocParallel(b *testing.B) {
	b.ReportAllocs()
	allocator, err := NewBuddyAllocator(64<<20, 4096)
	if err != nil {
		b.Fatal(err)
	}
	var mu sync.Mutex

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			mu.Lock()
			block, err := allocator.Alloc(4096)
			if err != nil {
				// Allocator is full, contending benchmark goroutines
				// hit this under parallel load; just skip the iteration.
				mu.Unlock()
				continue
			}
			_ = allocator.Free(block)
			mu.Unlock()
		}
	})
}

// BenchmarkBuddyAllocVariedSizes mixes buffer sizes a real clik workload
// creates: small scalar/param buffers (4KB, the alignment floor), mid-size
// work buffers (16KB-64KB), and large staging buffers (1MB+).
func BenchmarkBuddyAllocVariedSizes(b *testing.B) {
	b.ReportAllocs()
	allocator, err := NewBuddyAllocator(64<<20, 4096)
	if err != nil {
		b.Fatal(err)
	}

	sizes := []uint64{4096, 16384, 65536, 262144, 1 << 20}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		size := sizes[i%len(sizes)]
		block, err := allocator.Alloc(size)
		if err != nil {
			allocator.Reset()
			block, _ = allocator.Alloc(size)
		}
		_ = allocator.Free(block)
	}
}

// BenchmarkBuddyFragmentation measures allocation under fragmentation
// pressure: fill the arena with buffers, release every other one, then
// re-allocate into the resulting gaps. This mirrors a Queue draining a
// long-running workload where buffers are created and released out of
// order relative to their timestamps.
func BenchmarkBuddyFragmentation(b *testing.B) {
	b.ReportAllocs()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		allocator, _ := NewBuddyAllocator(1<<20, 4096) // 1MB arena

		blocks := make([]BuddyBlock, 0, 256)
		for {
			block, err := allocator.Alloc(4096)
			if err != nil {
				break
			}
			blocks = append(blocks, block)
		}

		for j := 0; j < len(blocks); j += 2 {
			_ = allocator.Free(blocks[j])
		}

		b.StartTimer()

		for j := 0; j < len(blocks)/2; j++ {
			block, err := allocator.Alloc(4096)
			if err != nil {
				break
			}
			_ = allocator.Free(block)
		}
	}
}

// BenchmarkBuddyAllocSizes measures allocation speed across the range of
// buffer sizes clik's examples actually request (4KB params up to 1MB
// staging buffers).
func BenchmarkBuddyAllocSizes(b *testing.B) {
	sizes := []struct {
		name string
		size uint64
	}{
		{"4KB", 4096},
		{"16KB", 16384},
		{"64KB", 65536},
		{"1MB", 1 << 20},
	}

	for _, s := range sizes {
		b.Run(s.name, func(b *testing.B) {
			b.ReportAllocs()
			allocator, err := NewBuddyAllocator(64<<20, 4096)
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				block, err := allocator.Alloc(s.size)
				if err != nil {
					allocator.Reset()
					block, _ = allocator.Alloc(s.size)
				}
				_ = allocator.Free(block)
			}
		})
	}
}

// Helper tests

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    uint64
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{4, true},
		{5, false},
		{4096, true},
		{1000, false},
		{1 << 20, true},
	}

	for _, tt := range tests {
		if got := isPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("isPowerOfTwo(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    uint64
		want uint64
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{100, 128},
		{4096, 4096},
		{4097, 8192},
	}

	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestLog2(t *testing.T) {
	tests := []struct {
		n    uint64
		want int
	}{
		{1, 0},
		{2, 1},
		{4, 2},
		{8, 3},
		{16, 4},
		{4096, 12},
		{1 << 20, 20},
	}

	for _, tt := range tests {
		if got := log2(tt.n); got != tt.want {
			t.Errorf("log2(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
