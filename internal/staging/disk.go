package staging

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/lshdb/internal/fs"
	"github.com/hupe1980/lshdb/internal/signature"
)

const (
	// FileName is the disk store's file below its directory.
	FileName = "signatures.bin"

	diskMagic      = 0x4C534853 // "LSHS"
	diskVersion    = 1
	diskHeaderSize = 12
)

var (
	// ErrInvalidHeader is returned when the store file is not a staging file.
	ErrInvalidHeader = errors.New("staging: invalid header")
	// ErrWordsMismatch is returned when an existing file holds signatures of
	// a different length.
	ErrWordsMismatch = errors.New("staging: signature length mismatch")
)

// DiskStore appends entries to a file. The file is opened lazily on the
// first Store and closed before reading.
type DiskStore struct {
	fsys  fs.FileSystem
	path  string
	words int

	mu    sync.Mutex
	file  fs.File
	w     *bufio.Writer
	buf   []byte
	count int
}

// OpenDiskStore opens the store in dir. With appendExisting an existing
// file is kept and new entries are appended to it; otherwise it is
// truncated on the first Store.
func OpenDiskStore(fsys fs.FileSystem, dir string, words int, appendExisting bool) (*DiskStore, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if words <= 0 {
		return nil, fmt.Errorf("staging: words must be positive, got %d", words)
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &DiskStore{
		fsys:  fsys,
		path:  filepath.Join(dir, FileName),
		words: words,
		buf:   make([]byte, 0, signature.EntrySize(words)),
	}
	if !appendExisting {
		if err := fsys.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return s, nil
	}
	info, err := fsys.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, err
	}
	if info.Size() < diskHeaderSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrInvalidHeader, info.Size())
	}
	if err := s.checkHeader(); err != nil {
		return nil, err
	}
	s.count = int((info.Size() - diskHeaderSize) / int64(signature.EntrySize(words)))
	return s, nil
}

// Path returns the store file path.
func (s *DiskStore) Path() string { return s.path }

func header(words int) []byte {
	h := make([]byte, 0, diskHeaderSize)
	h = binary.BigEndian.AppendUint32(h, diskMagic)
	h = binary.BigEndian.AppendUint32(h, diskVersion)
	return binary.BigEndian.AppendUint32(h, uint32(words))
}

func (s *DiskStore) checkHeader() error {
	f, err := s.fsys.OpenFile(s.path, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.readHeader(f)
}

func (s *DiskStore) readHeader(r io.Reader) error {
	h := make([]byte, diskHeaderSize)
	if _, err := io.ReadFull(r, h); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if magic := binary.BigEndian.Uint32(h); magic != diskMagic {
		return fmt.Errorf("%w: magic %#x", ErrInvalidHeader, magic)
	}
	if v := binary.BigEndian.Uint32(h[4:]); v != diskVersion {
		return fmt.Errorf("%w: version %d", ErrInvalidHeader, v)
	}
	if words := int(binary.BigEndian.Uint32(h[8:])); words != s.words {
		return fmt.Errorf("%w: file has %d words, store expects %d", ErrWordsMismatch, words, s.words)
	}
	return nil
}

func (s *DiskStore) ensureOpen() error {
	if s.file != nil {
		return nil
	}
	f, err := s.fsys.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w := bufio.NewWriter(f)
	if info.Size() == 0 {
		if _, err := w.Write(header(s.words)); err != nil {
			_ = f.Close()
			return err
		}
	}
	s.file, s.w = f, w
	return nil
}

// Store appends e.
func (s *DiskStore) Store(e signature.Entry) error {
	if len(e.Sig) != s.words {
		return fmt.Errorf("%w: entry %d has %d words, store expects %d",
			signature.ErrLengthMismatch, e.ID, len(e.Sig), s.words)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	s.buf = signature.AppendEntry(s.buf[:0], e)
	if _, err := s.w.Write(s.buf); err != nil {
		return err
	}
	s.count++
	return nil
}

// Flush writes buffered entries and syncs the file.
func (s *DiskStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

func (s *DiskStore) flush() error {
	if s.file == nil {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close flushes and closes the output. A later Store reopens it in
// append mode.
func (s *DiskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeOutput()
}

func (s *DiskStore) closeOutput() error {
	if s.file == nil {
		return nil
	}
	err := s.flush()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file, s.w = nil, nil
	return err
}

func (s *DiskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// All closes the output and streams entries back from the file.
func (s *DiskStore) All() iter.Seq2[signature.Entry, error] {
	return func(yield func(signature.Entry, error) bool) {
		s.mu.Lock()
		err := s.closeOutput()
		s.mu.Unlock()
		if err != nil {
			yield(signature.Entry{}, err)
			return
		}

		f, err := s.fsys.OpenFile(s.path, os.O_RDONLY, 0)
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			yield(signature.Entry{}, err)
			return
		}
		defer f.Close()

		r := bufio.NewReader(f)
		if err := s.readHeader(r); err != nil {
			yield(signature.Entry{}, err)
			return
		}
		buf := make([]byte, signature.EntrySize(s.words))
		for {
			if _, err := io.ReadFull(r, buf); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(signature.Entry{}, fmt.Errorf("staging: read %s: %w", s.path, err))
				return
			}
			e, err := signature.DecodeEntry(buf, s.words)
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// Clear closes the output and removes the file.
func (s *DiskStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeOutput(); err != nil {
		return err
	}
	if err := s.fsys.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.count = 0
	return nil
}
