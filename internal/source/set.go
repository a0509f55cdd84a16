package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
)

// FileSet owns the files of a build. It is safe for concurrent use; the
// *File values it hands out never move.
type FileSet struct {
	mu      sync.RWMutex
	files   []*File
	byPath  map[string]FileID
	baseDir string // для относительных путей в выводе
}

// NewFileSet returns an empty set.
func NewFileSet() *FileSet {
	return &FileSet{byPath: make(map[string]FileID)}
}

// NewFileSetWithBase returns an empty set whose display paths are relative
// to baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

func (fs *FileSet) SetBaseDir(dir string) {
	fs.mu.Lock()
	fs.baseDir = dir
	fs.mu.Unlock()
}

// BaseDir is the directory display paths are relative to; the working
// directory when none was set.
func (fs *FileSet) BaseDir() string {
	fs.mu.RLock()
	dir := fs.baseDir
	fs.mu.RUnlock()
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return dir
}

// Add stores content under path and returns a fresh id, even when the path
// was added before; Lookup then finds the newest file.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	path = filepath.ToSlash(filepath.Clean(path))
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("too many files: %w", err))
	}
	id := FileID(n)
	fs.files = append(fs.files, newFile(id, path, content, flags))
	fs.byPath[path] = id
	return id
}

// Load reads path from disk, normalizes it and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	content, err := os.ReadFile(path) //nolint:gosec // paths come from the manifest or the command line
	if err != nil {
		return 0, err
	}
	content, flags := normalize(content)
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file with id, or nil.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if int(id) >= len(fs.files) {
		return nil
	}
	return fs.files[id]
}

// Lookup finds the most recent file added under path.
func (fs *FileSet) Lookup(path string) (*File, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.byPath[filepath.ToSlash(filepath.Clean(path))]
	if !ok {
		return nil, false
	}
	return fs.files[id], true
}

// Resolve converts both ends of sp into positions; zero values for spans of
// unknown files.
func (fs *FileSet) Resolve(sp Span) (start, end LineCol) {
	f := fs.Get(sp.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return f.Position(sp.Start), f.Position(sp.End)
}

// DisplayPath is the path of id relative to the base directory when one
// was set and the path lies below it.
func (fs *FileSet) DisplayPath(id FileID) string {
	f := fs.Get(id)
	if f == nil {
		return ""
	}
	fs.mu.RLock()
	base := fs.baseDir
	fs.mu.RUnlock()
	if base == "" {
		return f.Path
	}
	if rel, err := RelativePath(f.Path, base); err == nil {
		return rel
	}
	return f.Path
}

// RelativePath returns path relative to baseDir in slash form.
func RelativePath(path, baseDir string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(baseDir), filepath.FromSlash(path))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
