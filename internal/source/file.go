// Package source keeps the text of unit descriptions and lang-item tables
// and maps byte spans inside them to line/column positions.
package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type (
	// FileID identifies a file within its FileSet.
	FileID uint32
	// FileFlags records how a file's content was obtained.
	FileFlags uint8
)

const (
	// FileVirtual marks content added from memory (tests, stdin).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File is one loaded text. Content has no BOM and LF line endings.
type File struct {
	ID      FileID
	Path    string // slash separated
	Content []byte
	Flags   FileFlags

	lineStarts []uint32 // offset of the first byte of each line
}

// LineCol is a 1-based position.
type LineCol struct {
	Line uint32
	Col  uint32 // in bytes
}

func newFile(id FileID, path string, content []byte, flags FileFlags) *File {
	starts := make([]uint32, 1, 16)
	for i, b := range content {
		if b != '\n' {
			continue
		}
		next, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			panic(fmt.Errorf("%s: file too large: %w", path, err))
		}
		starts = append(starts, next)
	}
	return &File{ID: id, Path: path, Content: content, Flags: flags, lineStarts: starts}
}

// LineCount is the number of lines; a trailing newline opens an empty one.
func (f *File) LineCount() int { return len(f.lineStarts) }

// Position converts a byte offset into a line and column.
func (f *File) Position(off uint32) LineCol {
	i, exact := slices.BinarySearch(f.lineStarts, off)
	if !exact {
		i--
	}
	line, err := safecast.Conv[uint32](i + 1)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	return LineCol{Line: line, Col: off - f.lineStarts[i] + 1}
}

// GetLine returns line n (1-based) without its newline, or "" when the
// file has no such line.
func (f *File) GetLine(n uint32) string {
	if n == 0 || int(n) > len(f.lineStarts) {
		return ""
	}
	start := int(f.lineStarts[n-1])
	end := len(f.Content)
	if int(n) < len(f.lineStarts) {
		end = int(f.lineStarts[n]) - 1
	}
	return string(f.Content[start:end])
}

// Text returns the bytes covered by sp, or "" when sp does not lie in f.
func (f *File) Text(sp Span) string {
	if sp.File != f.ID || sp.Start > sp.End || int(sp.End) > len(f.Content) {
		return ""
	}
	return string(f.Content[sp.Start:sp.End])
}

// normalize strips a UTF-8 BOM and turns CRLF into LF; lone CRs stay.
func normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		content = content[3:]
		flags |= FileHadBOM
	}
	first := -1
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			first = i
			break
		}
	}
	if first < 0 {
		return content, flags
	}
	out := make([]byte, first, len(content))
	copy(out, content[:first])
	for i := first; i < len(content); i++ {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			continue
		}
		out = append(out, content[i])
	}
	return out, flags | FileNormalizedCRLF
}
