package y4m

import (
	"bytes"
	"fmt"

	"deltae/internal/failure"
)

const (
	frameMarker = "FRAME"
	// maxLineLength bounds header and frame marker lines so a stream that is
	// not Y4M at all fails fast instead of buffering forever.
	maxLineLength = 64 * 1024
)

var (
	ErrBadFrameMarker = fmt.Errorf("%w: malformed frame marker", failure.ErrFormat)
	ErrTruncated      = fmt.Errorf("%w: truncated stream", failure.ErrFormat)
)

// Frame is one raw frame payload. Data is owned by the Frame and is never
// modified after the Reader emits it.
type Frame struct {
	Index  int
	Data   []byte
	Header *Header
}

// FrameFunc receives each completed frame. Returning an error stops the
// Reader; the error is returned from the Write call that completed the frame.
type FrameFunc func(*Frame) error

// Reader is a push parser for YUV4MPEG2 streams.
type Reader struct {
	fn        FrameFunc
	header    *Header
	frameSize int
	buf       []byte
	inPayload bool
	frames    int
	consumed  int64
	err       error
}

// NewReader returns a Reader that calls fn once per completed frame.
func NewReader(fn FrameFunc) *Reader {
	return &Reader{fn: fn}
}

// Header returns the parsed stream header, or nil before it has arrived.
func (r *Reader) Header() *Header { return r.header }

// Frames returns the number of frames emitted so far.
func (r *Reader) Frames() int { return r.frames }

// Buffered returns the number of bytes held for an incomplete frame.
func (r *Reader) Buffered() int { return len(r.buf) }

// Consumed returns the total number of bytes accepted by Write.
func (r *Reader) Consumed() int64 { return r.consumed }

// Write accepts the next chunk of the stream. It always consumes all of p
// unless an error occurs; once an error has been returned the Reader is
// unusable and keeps returning it.
func (r *Reader) Write(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.buf = append(r.buf, p...)
	r.consumed += int64(len(p))

	off, err := r.drain()
	if off > 0 {
		r.buf = append(r.buf[:0], r.buf[off:]...)
	}
	if err != nil {
		r.err = err
		return 0, err
	}
	return len(p), nil
}

func (r *Reader) drain() (int, error) {
	off := 0
	if r.header == nil {
		line, ok, err := nextLine(r.buf, "stream header")
		if err != nil || !ok {
			return 0, err
		}
		header, err := ParseHeader(line)
		if err != nil {
			return 0, err
		}
		size, err := FrameSize(header)
		if err != nil {
			return 0, err
		}
		r.header, r.frameSize = header, size
		off = len(line)
	}

	for {
		rest := r.buf[off:]
		if !r.inPayload {
			if len(rest) >= len(frameMarker) && !bytes.HasPrefix(rest, []byte(frameMarker)) {
				return off, fmt.Errorf("%w at frame %d", ErrBadFrameMarker, r.frames)
			}
			line, ok, err := nextLine(rest, "frame marker")
			if err != nil || !ok {
				return off, err
			}
			if !bytes.HasPrefix(line, []byte(frameMarker)) {
				return off, fmt.Errorf("%w at frame %d", ErrBadFrameMarker, r.frames)
			}
			off += len(line)
			r.inPayload = true
			continue
		}

		if len(rest) < r.frameSize {
			return off, nil
		}
		data := make([]byte, r.frameSize)
		copy(data, rest[:r.frameSize])
		off += r.frameSize
		r.inPayload = false

		frame := &Frame{Index: r.frames, Data: data, Header: r.header}
		r.frames++
		if r.fn != nil {
			if err := r.fn(frame); err != nil {
				return off, err
			}
		}
	}
}

// nextLine returns buf up to and including the first newline.
func nextLine(buf []byte, what string) ([]byte, bool, error) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		if len(buf) > maxLineLength {
			return nil, false, fmt.Errorf("%w: %s exceeds %d bytes", ErrBadHeader, what, maxLineLength)
		}
		return nil, false, nil
	}
	return buf[:idx+1], true, nil
}

// Close reports whether the stream ended cleanly. Bytes left over from a
// partial frame yield ErrTruncated; the frames already emitted stay valid.
func (r *Reader) Close() error {
	if r.err != nil {
		return r.err
	}
	if r.header == nil {
		if len(r.buf) == 0 {
			return fmt.Errorf("%w: empty stream", ErrTruncated)
		}
		return fmt.Errorf("%w: incomplete stream header", ErrTruncated)
	}
	if len(r.buf) > 0 || r.inPayload {
		return fmt.Errorf("%w: %d trailing bytes after frame %d", ErrTruncated, len(r.buf), r.frames)
	}
	return nil
}
