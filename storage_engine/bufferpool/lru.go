package bufferpool

import "container/list"

// lruList tracks unpinned-or-touched frame indices, oldest at the head,
// most recently used at the tail. It is the O(1)-removal analog of the
// teacher's accessOrder []int64 slice (storage_engine/bufferpool/
// bufferpool.go's updateAccessOrder, which does a linear scan to remove a
// frame before re-appending it) — spec.md §3.3 calls for an lru_index
// mapping frame index to position specifically so removal doesn't have to
// scan, and container/list plus an index map is the standard-library tool
// for exactly that; no third-party ordered container in the corpus adds
// pin-aware eviction semantics on top (see DESIGN.md).
type lruList struct {
	l     *list.List
	index map[int]*list.Element
}

func newLRUList() *lruList {
	return &lruList{
		l:     list.New(),
		index: make(map[int]*list.Element),
	}
}

// touch moves frameIdx to the tail (most recently used), inserting it if
// not already present.
func (lr *lruList) touch(frameIdx int) {
	if el, ok := lr.index[frameIdx]; ok {
		lr.l.MoveToBack(el)
		return
	}
	lr.index[frameIdx] = lr.l.PushBack(frameIdx)
}

// remove drops frameIdx from the list if present.
func (lr *lruList) remove(frameIdx int) {
	if el, ok := lr.index[frameIdx]; ok {
		lr.l.Remove(el)
		delete(lr.index, frameIdx)
	}
}

// frontToBack returns frame indices oldest-first, for eviction scans.
func (lr *lruList) frontToBack() []int {
	out := make([]int, 0, lr.l.Len())
	for el := lr.l.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(int))
	}
	return out
}
