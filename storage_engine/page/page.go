// Package page implements the slotted page: a fixed 4 KiB byte buffer that
// packs variable-length records behind a forward-growing slot directory and
// a backward-growing record heap.
//
// Layout:
//
//	[ header 6B ][ slot 0 ][ slot 1 ]...[ slot N-1 ] ... free ... [ record k ][ record k-1 ]...[ record 0 ]
//	0            6                                   ^             ^                                    4096
//	                                       free_space_start   free_space_end
//
// Slots grow forward from byte 6. Records grow backward from byte 4096.
// Free space is the gap between free_space_start and free_space_end.
package page

import "encoding/binary"

// PageSize is the fixed size, in bytes, of every page buffer.
const PageSize = 4096

// InvalidPageID is the all-ones sentinel meaning "no page".
const InvalidPageID uint16 = 0xFFFF

const (
	headerOffNumSlots       = 0 // uint16
	headerOffFreeSpaceStart = 2 // uint16
	headerOffFreeSpaceEnd   = 4 // uint16
	HeaderSize              = 6

	// SlotSize is the on-disk size of one slot directory entry:
	// offset(2) + length(2) + flags(1).
	SlotSize = 5

	slotOffOffset = 0
	slotOffLength = 2
	slotOffFlags  = 4

	flagDeleted = 0x1
)

// Page is a fixed-size slotted page buffer plus the object-level page
// identifier. The identifier is never serialized into Data — it is set by
// whatever installs the page (the buffer pool) and comes from the page's
// position in the database file.
type Page struct {
	Data   [PageSize]byte
	pageID uint16
}

// Slot describes one directory entry: where its record lives, how long it
// is, and whether it has been tombstoned. Offset/Length remain valid even
// after a delete — invariant 5 of the page layout requires the byte range
// stay intact until compaction reclaims it.
type Slot struct {
	Offset    uint16
	Length    uint16
	IsDeleted bool
}

// New returns a zero-initialized, empty page with no assigned id.
func New() *Page {
	p := &Page{}
	p.ResetMemory()
	return p
}

// ResetMemory re-initializes the buffer to the empty-page state and clears
// the page id.
func (p *Page) ResetMemory() {
	for i := range p.Data {
		p.Data[i] = 0
	}
	binary.LittleEndian.PutUint16(p.Data[headerOffNumSlots:], 0)
	binary.LittleEndian.PutUint16(p.Data[headerOffFreeSpaceStart:], HeaderSize)
	binary.LittleEndian.PutUint16(p.Data[headerOffFreeSpaceEnd:], PageSize)
	p.pageID = InvalidPageID
}

// SetPageID sets the object-level page identifier.
func (p *Page) SetPageID(id uint16) { p.pageID = id }

// PageID returns the object-level page identifier.
func (p *Page) PageID() uint16 { return p.pageID }

func (p *Page) numSlots() uint16 {
	return binary.LittleEndian.Uint16(p.Data[headerOffNumSlots:])
}

func (p *Page) setNumSlots(n uint16) {
	binary.LittleEndian.PutUint16(p.Data[headerOffNumSlots:], n)
}

// FreeSpaceStart is the byte offset one past the last slot entry.
func (p *Page) FreeSpaceStart() uint16 {
	return binary.LittleEndian.Uint16(p.Data[headerOffFreeSpaceStart:])
}

func (p *Page) setFreeSpaceStart(v uint16) {
	binary.LittleEndian.PutUint16(p.Data[headerOffFreeSpaceStart:], v)
}

// FreeSpaceEnd is the byte offset of the lowest occupied record byte.
func (p *Page) FreeSpaceEnd() uint16 {
	return binary.LittleEndian.Uint16(p.Data[headerOffFreeSpaceEnd:])
}

func (p *Page) setFreeSpaceEnd(v uint16) {
	binary.LittleEndian.PutUint16(p.Data[headerOffFreeSpaceEnd:], v)
}

func slotBase(i uint16) uint16 {
	return HeaderSize + i*SlotSize
}

func (p *Page) readSlot(i uint16) Slot {
	base := slotBase(i)
	return Slot{
		Offset:    binary.LittleEndian.Uint16(p.Data[base+slotOffOffset:]),
		Length:    binary.LittleEndian.Uint16(p.Data[base+slotOffLength:]),
		IsDeleted: p.Data[base+slotOffFlags]&flagDeleted != 0,
	}
}

func (p *Page) writeSlot(i uint16, s Slot) {
	base := slotBase(i)
	binary.LittleEndian.PutUint16(p.Data[base+slotOffOffset:], s.Offset)
	binary.LittleEndian.PutUint16(p.Data[base+slotOffLength:], s.Length)
	var flags byte
	if s.IsDeleted {
		flags = flagDeleted
	}
	p.Data[base+slotOffFlags] = flags
}

// NumSlots returns the number of directory entries ever allocated,
// including tombstones.
func (p *Page) NumSlots() uint16 { return p.numSlots() }

// Slot returns a copy of the slot entry at index i. Callers must check
// i < NumSlots() themselves; this is an internal helper exposed for tests
// that want to inspect raw layout.
func (p *Page) Slot(i uint16) Slot { return p.readSlot(i) }

// fits reports whether a record of length bytes can be placed given
// slotCount slots would exist in the directory afterward.
func (p *Page) fits(slotCount uint16, length uint16) bool {
	newRecordStart := int(p.FreeSpaceEnd()) - int(length)
	slotArrayEnd := HeaderSize + int(slotCount)*SlotSize
	return slotArrayEnd < newRecordStart
}

// InsertRecord places data at the tail of free space and appends a new
// slot describing it. Returns the new slot index and true on success, or
// (0, false) without mutating the page when there is insufficient space.
func (p *Page) InsertRecord(data []byte) (slotIdx uint16, ok bool) {
	length := uint16(len(data))
	n := p.numSlots()
	if !p.fits(n+1, length) {
		return 0, false
	}

	newRecordStart := p.FreeSpaceEnd() - length
	copy(p.Data[newRecordStart:newRecordStart+length], data)

	p.writeSlot(n, Slot{Offset: newRecordStart, Length: length, IsDeleted: false})
	p.setNumSlots(n + 1)
	p.setFreeSpaceStart(p.FreeSpaceStart() + SlotSize)
	p.setFreeSpaceEnd(newRecordStart)

	return n, true
}

// GetRecord returns a borrowed view of the record bytes at slotNum, or nil
// if the slot is out of range or tombstoned.
func (p *Page) GetRecord(slotNum uint16) []byte {
	if slotNum >= p.numSlots() {
		return nil
	}
	s := p.readSlot(slotNum)
	if s.IsDeleted {
		return nil
	}
	return p.Data[s.Offset : s.Offset+s.Length]
}

// DeleteRecord tombstones the slot at slotNum without touching its bytes.
// Slot indices never shift. Fails if the index is out of range or the slot
// is already a tombstone.
func (p *Page) DeleteRecord(slotNum uint16) bool {
	if slotNum >= p.numSlots() {
		return false
	}
	s := p.readSlot(slotNum)
	if s.IsDeleted {
		return false
	}
	s.IsDeleted = true
	p.writeSlot(slotNum, s)
	return true
}

// UpdateRecord overwrites the record at slotNum with data. If data fits
// within the existing allocation it is rewritten in place; otherwise the
// old byte range is tombstoned (preserving it for later compaction), the
// new bytes are appended to the heap, and slotNum is rewritten to point at
// the new location — slotNum itself never changes. Fails if the slot is
// missing/tombstoned, or (in the grow path) there is no room for the
// tombstone-plus-new-record.
func (p *Page) UpdateRecord(slotNum uint16, data []byte) bool {
	if slotNum >= p.numSlots() {
		return false
	}
	old := p.readSlot(slotNum)
	if old.IsDeleted {
		return false
	}

	newLength := uint16(len(data))
	if newLength <= old.Length {
		copy(p.Data[old.Offset:old.Offset+newLength], data)
		p.writeSlot(slotNum, Slot{Offset: old.Offset, Length: newLength, IsDeleted: false})
		return true
	}

	n := p.numSlots()
	if !p.fits(n+1, newLength) {
		return false
	}

	// Grow path: append a tombstone carrying the old range, then relocate.
	p.writeSlot(n, Slot{Offset: old.Offset, Length: old.Length, IsDeleted: true})
	p.setNumSlots(n + 1)
	p.setFreeSpaceStart(p.FreeSpaceStart() + SlotSize)

	newOffset := p.FreeSpaceEnd() - newLength
	copy(p.Data[newOffset:newOffset+newLength], data)
	p.setFreeSpaceEnd(newOffset)

	p.writeSlot(slotNum, Slot{Offset: newOffset, Length: newLength, IsDeleted: false})
	return true
}

// GetNumberOfRecords counts non-tombstoned slots.
func (p *Page) GetNumberOfRecords() uint16 {
	var count uint16
	n := p.numSlots()
	for i := uint16(0); i < n; i++ {
		if !p.readSlot(i).IsDeleted {
			count++
		}
	}
	return count
}

// NeedsCompaction is true iff there are slots and more than a quarter of
// them are tombstones.
func (p *Page) NeedsCompaction() bool {
	n := p.numSlots()
	if n == 0 {
		return false
	}
	var tombstones uint16
	for i := uint16(0); i < n; i++ {
		if p.readSlot(i).IsDeleted {
			tombstones++
		}
	}
	return tombstones > n/4
}

// contiguousFreeSpace is the gap between the slot directory tail and the
// record heap head — the intended semantics of the source's
// getContiguousFreeSpace, which in the original computed
// free_space_end - free_space_end (always zero).
func (p *Page) contiguousFreeSpace() int {
	return int(p.FreeSpaceEnd()) - int(p.FreeSpaceStart())
}

// TotalFreeSpace is the contiguous free space plus the byte length of
// every tombstoned slot — the space insert_record_smart can recover via
// compaction.
func (p *Page) TotalFreeSpace() int {
	free := p.contiguousFreeSpace()
	n := p.numSlots()
	for i := uint16(0); i < n; i++ {
		s := p.readSlot(i)
		if s.IsDeleted {
			free += int(s.Length)
		}
	}
	return free
}
