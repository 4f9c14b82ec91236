package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()
	assert.Equal(uint32(0), mem.LoadWord(0x1234))
	assert.Equal(0, len(mem.pages))

	mem.StoreWord(0x1000, 0x12345678)
	assert.Equal(uint8(0x78), mem.LoadByte(0x1000))
	assert.Equal(uint8(0x12), mem.LoadByte(0x1003))
	assert.Equal(uint16(0x5678), mem.LoadHalfWord(0x1000))
	assert.Equal(uint16(0x1234), mem.LoadHalfWord(0x1002))
	assert.Equal(uint32(0x12345678), mem.LoadWord(0x1000))
	assert.Equal(1, len(mem.pages))

	mem.StoreHalfWord(0x1001, 0xabcd)
	assert.Equal(uint32(0x12abcd78), mem.LoadWord(0x1000))

	mem.StoreByte(0x1003, 0xff)
	assert.Equal(uint32(0xffabcd78), mem.LoadWord(0x1000))
}

func TestMemory_CrossPage(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()
	mem.StoreWord(MEMORY_PAGE_SIZE-2, 0xdeadbeef)
	assert.Equal(2, len(mem.pages))
	assert.Equal(uint32(0xdeadbeef), mem.LoadWord(MEMORY_PAGE_SIZE-2))
	assert.Equal(uint16(0xdead), mem.LoadHalfWord(MEMORY_PAGE_SIZE))

	mem.StoreWord(0xffff_fffe, 0x11223344)
	assert.Equal(uint16(0x3344), mem.LoadHalfWord(0xffff_fffe))
	assert.Equal(uint16(0x1122), mem.LoadHalfWord(0))
}

func TestMemory_ZeroValue(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	assert.Equal(uint8(0), mem.LoadByte(42))
	mem.StoreByte(42, 7)
	assert.Equal(uint8(7), mem.LoadByte(42))
}
