// Package disk is the random-access page file backing the buffer pool.
// A single binary file holds page i at bytes [i*PageSize, (i+1)*PageSize).
// There is no file header or trailer; holes read back as all-zero pages.
package disk

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"slotpool/storage_engine/page"
)

// Manager owns the single open database file and the page-id allocator.
type Manager struct {
	file *os.File

	// NextPageID is rehydrated from file size on open rather than always
	// starting at zero, so reopening an existing database does not
	// collide with previously written pages. See DESIGN.md.
	NextPageID uint16
}

// Open opens filePath for read+write, creating it if absent, and seeds
// NextPageID from the file's current size.
func Open(filePath string) (*Manager, error) {
	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open database file %q", filePath)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat database file %q", filePath)
	}

	return &Manager{
		file:       f,
		NextPageID: uint16(stat.Size() / page.PageSize),
	}, nil
}

// Close closes the underlying file.
func (m *Manager) Close() error {
	return m.file.Close()
}

// ReadPage reads PageSize bytes at offset pageID*PageSize into dst. A read
// past EOF (including a page-id that was never written) is not an error:
// the unread tail of dst is left zero.
func (m *Manager) ReadPage(pageID uint16, dst *[page.PageSize]byte) error {
	for i := range dst {
		dst[i] = 0
	}
	offset := int64(pageID) * page.PageSize
	n, err := m.file.ReadAt(dst[:], offset)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "read page %d", pageID)
	}
	return nil
}

// WritePage writes PageSize bytes at offset pageID*PageSize and flushes the
// write to stable storage.
func (m *Manager) WritePage(pageID uint16, src *[page.PageSize]byte) error {
	offset := int64(pageID) * page.PageSize
	if _, err := m.file.WriteAt(src[:], offset); err != nil {
		return errors.Wrapf(err, "write page %d", pageID)
	}
	if err := m.file.Sync(); err != nil {
		return errors.Wrapf(err, "flush page %d", pageID)
	}
	return nil
}

// AllocatePageID returns the next unused page id, advancing the allocator.
func (m *Manager) AllocatePageID() uint16 {
	id := m.NextPageID
	m.NextPageID++
	return id
}
