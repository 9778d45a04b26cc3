package page

import "sort"

// CompactPage rewrites the record heap to eliminate tombstones and coalesce
// free space, without changing the bytes of any surviving record. Slots are
// walked in descending-offset order (the record closest to PageSize first);
// a running gap accumulates the length of every tombstone seen so far, and
// each live record is shifted toward higher addresses by that gap. The
// rebuilt directory holds only survivors, in the order they were visited.
func (p *Page) CompactPage() {
	n := p.numSlots()
	if n == 0 {
		return
	}

	type entry struct {
		slot Slot
	}
	entries := make([]entry, n)
	for i := uint16(0); i < n; i++ {
		entries[i] = entry{slot: p.readSlot(i)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].slot.Offset > entries[j].slot.Offset
	})

	survivors := make([]Slot, 0, n)
	var gap uint16
	lastPlaced := uint16(PageSize)

	for _, e := range entries {
		if e.slot.IsDeleted {
			gap += e.slot.Length
			continue
		}
		newOffset := e.slot.Offset + gap
		if newOffset != e.slot.Offset {
			// Overlapping-safe shift: source and destination ranges may
			// overlap because we're sliding toward higher addresses.
			copy(p.Data[newOffset:newOffset+e.slot.Length], p.Data[e.slot.Offset:e.slot.Offset+e.slot.Length])
		}
		survivors = append(survivors, Slot{Offset: newOffset, Length: e.slot.Length, IsDeleted: false})
		lastPlaced = newOffset
	}

	for i, s := range survivors {
		p.writeSlot(uint16(i), s)
	}
	p.setNumSlots(uint16(len(survivors)))
	p.setFreeSpaceStart(HeaderSize + uint16(len(survivors))*SlotSize)
	if len(survivors) == 0 {
		p.setFreeSpaceEnd(PageSize)
	} else {
		p.setFreeSpaceEnd(lastPlaced)
	}
}

// InsertRecordSmart attempts InsertRecord; if that fails for lack of
// contiguous space but enough total free space (contiguous plus
// tombstones) exists, it compacts the page once and retries.
func (p *Page) InsertRecordSmart(data []byte) (slotIdx uint16, ok bool) {
	if idx, ok := p.InsertRecord(data); ok {
		return idx, true
	}

	needed := len(data) + SlotSize
	if p.TotalFreeSpace() < needed {
		return 0, false
	}

	p.CompactPage()
	return p.InsertRecord(data)
}
