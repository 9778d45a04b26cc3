// Package bufferpool implements the BufferPoolManager: a bounded set of
// frames mapping page identifiers to in-memory pages, fetched from disk on
// miss, evicted under LRU respecting pin counts, and written back when
// dirty.
//
// The pool works on LRU based caching, and holds access to the disk
// manager for flushing cached pages and for loading pages that are not
// resident. A single sync.Mutex guards every public operation, matching
// the teacher's BufferPool (storage_engine/bufferpool/bufferpool.go's
// bp.mu sync.Mutex) rather than per-page locks — spec.md §5 calls out a
// single coarse mutex as the sanctioned concurrency model for this core.
package bufferpool

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"slotpool/storage_engine/config"
	"slotpool/storage_engine/disk"
	"slotpool/storage_engine/page"
	"slotpool/telemetry"
)

// Manager owns pool_size frames, the page table, the free-frame list, the
// LRU list, and the backing disk file.
type Manager struct {
	mu sync.Mutex

	frames     []*frame
	pageTable  map[uint16]int // page id -> frame index
	freeFrames []int
	lru        *lruList

	disk    *disk.Manager
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics attaches buffer pool counters.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// New constructs a pool of poolSize frames backed by filePath, opening (or
// creating) the file for read+write.
func New(poolSize int, filePath string, opts ...Option) (*Manager, error) {
	if poolSize <= 0 {
		return nil, errors.New("pool size must be positive")
	}

	dm, err := disk.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "open buffer pool backing file")
	}

	m := &Manager{
		frames:     make([]*frame, poolSize),
		pageTable:  make(map[uint16]int, poolSize),
		freeFrames: make([]int, poolSize),
		lru:        newLRUList(),
		disk:       dm,
		logger:     zap.NewNop(),
	}
	for i := 0; i < poolSize; i++ {
		m.frames[i] = newFrame()
		m.freeFrames[i] = i
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewFromOptions loads pool_size and file_path from a TOML config file at
// path and constructs a Manager from them, per spec.md §6.
func NewFromOptions(path string, opts ...Option) (*Manager, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "new buffer pool from config")
	}
	return New(cfg.PoolSize, cfg.FilePath, opts...)
}

// Close flushes every dirty resident frame and closes the backing file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.flushAllDirtyLocked(); err != nil {
		return err
	}
	return m.disk.Close()
}

// FetchPage returns a handle to pageID, pinning it. On a cache hit, the
// frame's pin count is incremented and its LRU position touched. On a
// miss, a frame is acquired (free list, else LRU eviction), the page's
// bytes are read from disk (a short or missing read yields an empty
// page), and the frame is installed with pin count 1.
//
// Returns nil if no frame could be acquired (all resident frames pinned).
func (m *Manager) FetchPage(pageID uint16) (*page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.pageTable[pageID]; ok {
		f := m.frames[idx]
		f.pinCount++
		m.lru.touch(idx)
		m.metrics.Hit()
		m.logger.Debug("fetch_page hit", zap.Uint16("page_id", pageID), zap.Int32("pin_count", f.pinCount))
		return f.pg, nil
	}

	m.metrics.Miss()
	idx, err := m.acquireFrameLocked()
	if err != nil {
		m.logger.Warn("fetch_page miss: no frame available", zap.Uint16("page_id", pageID))
		return nil, nil
	}
	f := m.frames[idx]

	if err := m.disk.ReadPage(pageID, &f.pg.Data); err != nil {
		m.freeFrames = append(m.freeFrames, idx)
		return nil, errors.Wrapf(err, "fetch_page %d", pageID)
	}
	// A page that was never written reads back as all zeros, which is not a
	// valid header (free_space_start is at least HeaderSize); install the
	// empty-page state instead.
	if f.pg.FreeSpaceStart() == 0 {
		f.pg.ResetMemory()
	}
	f.pg.SetPageID(pageID)
	f.pageID = pageID

	f.pinCount = 1
	f.isDirty = false
	m.pageTable[pageID] = idx
	m.lru.touch(idx)

	m.logger.Debug("fetch_page miss: loaded from disk", zap.Uint16("page_id", pageID))
	return f.pg, nil
}

// NewPage acquires a frame, allocates a fresh page id, and returns a
// pinned, dirty, empty page. Returns (nil, InvalidPageID) if no frame
// could be acquired.
func (m *Manager) NewPage() (*page.Page, uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.acquireFrameLocked()
	if err != nil {
		m.logger.Warn("new_page: no frame available")
		return nil, page.InvalidPageID
	}
	f := m.frames[idx]

	pageID := m.disk.AllocatePageID()
	f.pg.ResetMemory()
	f.pg.SetPageID(pageID)
	f.pageID = pageID
	f.pinCount = 1
	f.isDirty = true

	m.pageTable[pageID] = idx
	m.lru.touch(idx)

	m.logger.Debug("new_page", zap.Uint16("page_id", pageID))
	return f.pg, pageID
}

// UnpinPage decrements pageID's pin count. If isDirty is true the frame's
// dirty bit is set — the bit is sticky: a later UnpinPage(pageID, false)
// never clears a dirty bit set by an earlier call. Fails if pageID is not
// resident, or its pin count is already zero.
func (m *Manager) UnpinPage(pageID uint16, isDirty bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.pageTable[pageID]
	if !ok {
		return false
	}
	f := m.frames[idx]
	if f.pinCount <= 0 {
		return false
	}
	f.pinCount--
	if isDirty {
		f.isDirty = true
	}
	return true
}

// FlushPage writes pageID to disk if dirty. Succeeds without I/O if
// resident and clean. Fails if pageID is not resident. Pin state and LRU
// position are unaffected.
func (m *Manager) FlushPage(pageID uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushPageLocked(pageID)
}

func (m *Manager) flushPageLocked(pageID uint16) error {
	idx, ok := m.pageTable[pageID]
	if !ok {
		return errors.Errorf("flush_page: page %d not resident", pageID)
	}
	f := m.frames[idx]
	if !f.isDirty {
		return nil
	}
	if err := m.disk.WritePage(pageID, &f.pg.Data); err != nil {
		return errors.Wrapf(err, "flush_page %d", pageID)
	}
	f.isDirty = false
	m.metrics.Flush()
	m.logger.Debug("flush_page", zap.Uint16("page_id", pageID))
	return nil
}

// FlushAllDirtyPages writes every dirty resident frame to disk. Pin counts
// and LRU order are unaffected.
func (m *Manager) FlushAllDirtyPages() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushAllDirtyLocked()
}

func (m *Manager) flushAllDirtyLocked() error {
	for pageID, idx := range m.pageTable {
		f := m.frames[idx]
		if !f.isDirty {
			continue
		}
		if err := m.disk.WritePage(pageID, &f.pg.Data); err != nil {
			return errors.Wrapf(err, "flush_all_dirty_pages: page %d", pageID)
		}
		f.isDirty = false
		m.metrics.Flush()
	}
	return nil
}

// DeletePage removes pageID from the pool. Fails if the page is not
// resident (preserving the teacher's resident-only semantics — see
// SPEC_FULL.md) or is still pinned. A dirty page is flushed before its frame
// is released.
func (m *Manager) DeletePage(pageID uint16) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.pageTable[pageID]
	if !ok {
		return false, nil
	}
	f := m.frames[idx]
	if f.pinCount > 0 {
		return false, nil
	}

	if f.isDirty {
		if err := m.disk.WritePage(pageID, &f.pg.Data); err != nil {
			return false, errors.Wrapf(err, "delete_page %d", pageID)
		}
		f.isDirty = false
	}

	delete(m.pageTable, pageID)
	m.lru.remove(idx)
	f.reset()
	m.freeFrames = append(m.freeFrames, idx)
	return true, nil
}

// acquireFrameLocked pops a free frame, or evicts one via LRU. Caller
// holds m.mu.
func (m *Manager) acquireFrameLocked() (int, error) {
	if len(m.freeFrames) > 0 {
		idx := m.freeFrames[0]
		m.freeFrames = m.freeFrames[1:]
		return idx, nil
	}
	return m.evictLocked()
}

// evictLocked scans the LRU list from head (oldest) to tail for the first
// unpinned frame, writes it back if dirty, and returns its index to the
// caller for reuse. Returns an error if every resident frame is pinned.
func (m *Manager) evictLocked() (int, error) {
	for _, idx := range m.lru.frontToBack() {
		f := m.frames[idx]
		if f.pinCount > 0 {
			continue
		}

		if f.isDirty {
			if err := m.disk.WritePage(f.pageID, &f.pg.Data); err != nil {
				return 0, errors.Wrapf(err, "evict: flush page %d", f.pageID)
			}
			f.isDirty = false
		}

		m.logger.Debug("evict", zap.Uint16("page_id", f.pageID))
		m.metrics.Eviction()

		delete(m.pageTable, f.pageID)
		m.lru.remove(idx)
		f.reset()
		return idx, nil
	}
	return 0, errors.New("evict: all frames pinned")
}
