package csvdata

// streaming.go wraps file readers before they reach the parser:
//
//   - bomSkipper drops a leading UTF-8 byte order mark (common in Excel exports)
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader tracks bytes read for load statistics
//
// Use WrapSource to apply them in the right order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkipper removes a UTF-8 BOM from the start of the stream.
type bomSkipper struct {
	r       *bufio.Reader
	checked bool
}

// SkipBOM returns a reader that drops a leading UTF-8 BOM, if present.
func SkipBOM(r io.Reader) io.Reader {
	return &bomSkipper{r: bufio.NewReader(r)}
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// utf8Sanitizer rewrites invalid UTF-8 bytes to '?' without buffering the
// whole stream. A multi-byte rune split across reads is carried over.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

// SanitizeUTF8 returns a reader that replaces each invalid UTF-8 byte with '?'.
func SanitizeUTF8(r io.Reader) io.Reader {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place and returns the number of bytes to emit.
// Unless atEOF, an incomplete rune at the end is held back for the next read.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}

		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// CountingReader counts the bytes that pass through it.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// WrapSource prepares a raw file stream for parsing.
//
// Order matters: the BOM is stripped before sanitizing (its bytes are valid
// UTF-8 but must not reach the first field) and counting sees the raw bytes.
func WrapSource(r io.Reader) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r)
	return SanitizeUTF8(SkipBOM(counter)), counter
}
