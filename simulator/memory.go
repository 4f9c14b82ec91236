package simulator

const (
	MEMORY_PAGE_SHIFT = 12
	MEMORY_PAGE_SIZE  = 1 << MEMORY_PAGE_SHIFT
)

type memoryPage [MEMORY_PAGE_SIZE]byte

// Memory is a sparse, byte addressable, little-endian 32-bit address space.
// Pages are allocated on first store; unallocated memory reads as zero.
type Memory struct {
	pages map[uint32]*memoryPage
}

// NewMemory returns an empty memory image.
func NewMemory() *Memory {
	return &Memory{
		pages: map[uint32]*memoryPage{},
	}
}

func (mem *Memory) page(addr uint32, alloc bool) (page *memoryPage) {
	index := addr >> MEMORY_PAGE_SHIFT
	page, ok := mem.pages[index]
	if !ok && alloc {
		if mem.pages == nil {
			mem.pages = map[uint32]*memoryPage{}
		}
		page = &memoryPage{}
		mem.pages[index] = page
	}
	return
}

// LoadByte reads the byte at addr.
func (mem *Memory) LoadByte(addr uint32) uint8 {
	page := mem.page(addr, false)
	if page == nil {
		return 0
	}
	return page[addr&(MEMORY_PAGE_SIZE-1)]
}

// StoreByte writes the byte at addr.
func (mem *Memory) StoreByte(addr uint32, value uint8) {
	page := mem.page(addr, true)
	page[addr&(MEMORY_PAGE_SIZE-1)] = value
}

// Load reads a little-endian value width bytes wide.
// Addresses wrap around the top of the address space.
func (mem *Memory) Load(addr uint32, width int) (value uint32) {
	for n := range width {
		value |= uint32(mem.LoadByte(addr+uint32(n))) << (8 * n)
	}
	return
}

// Store writes the low width bytes of value, little-endian.
func (mem *Memory) Store(addr uint32, width int, value uint32) {
	for n := range width {
		mem.StoreByte(addr+uint32(n), uint8(value>>(8*n)))
	}
}

func (mem *Memory) LoadHalfWord(addr uint32) uint16 { return uint16(mem.Load(addr, 2)) }
func (mem *Memory) LoadWord(addr uint32) uint32     { return mem.Load(addr, 4) }

func (mem *Memory) StoreHalfWord(addr uint32, value uint16) { mem.Store(addr, 2, uint32(value)) }
func (mem *Memory) StoreWord(addr uint32, value uint32)     { mem.Store(addr, 4, value) }
