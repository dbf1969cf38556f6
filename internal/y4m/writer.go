package y4m

import (
	"fmt"
	"io"

	"deltae/internal/failure"
)

// Writer serializes frames into a YUV4MPEG2 stream.
type Writer struct {
	w         io.Writer
	header    *Header
	frameSize int
}

// NewWriter writes the stream header for h and returns a Writer for its frames.
func NewWriter(w io.Writer, h *Header) (*Writer, error) {
	size, err := FrameSize(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, h.String()+"\n"); err != nil {
		return nil, fmt.Errorf("%w: write y4m header: %w", failure.ErrIO, err)
	}
	return &Writer{w: w, header: h, frameSize: size}, nil
}

// WriteFrame writes one frame payload, which must be exactly FrameSize bytes.
func (w *Writer) WriteFrame(data []byte) error {
	if len(data) != w.frameSize {
		return fmt.Errorf("%w: frame payload is %d bytes, want %d", failure.ErrFormat, len(data), w.frameSize)
	}
	if _, err := io.WriteString(w.w, frameMarker+"\n"); err != nil {
		return fmt.Errorf("%w: write frame marker: %w", failure.ErrIO, err)
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("%w: write frame payload: %w", failure.ErrIO, err)
	}
	return nil
}
