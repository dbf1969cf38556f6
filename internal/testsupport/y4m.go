package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"deltae/internal/y4m"
)

// Header parses a Y4M header line or fails the test.
func Header(t testing.TB, line string) *y4m.Header {
	t.Helper()

	h, err := y4m.ParseHeader([]byte(line))
	if err != nil {
		t.Fatalf("parse header %q: %v", line, err)
	}
	return h
}

// Frame packs code values for each plane into a frame payload laid out for
// h. Plane slices must match the plane sizes implied by the header.
func Frame(t testing.TB, h *y4m.Header, index int, y, cb, cr []int) *y4m.Frame {
	t.Helper()

	cw, ch := h.ChromaSize()
	if len(y) != h.Width*h.Height {
		t.Fatalf("luma plane has %d samples, want %d", len(y), h.Width*h.Height)
	}
	if len(cb) != cw*ch || len(cr) != cw*ch {
		t.Fatalf("chroma planes have %d/%d samples, want %d", len(cb), len(cr), cw*ch)
	}

	bps := h.BytesPerSample()
	data := make([]byte, 0, (len(y)+len(cb)+len(cr))*bps)
	for _, plane := range [][]int{y, cb, cr} {
		for _, v := range plane {
			if bps == 1 {
				data = append(data, byte(v))
			} else {
				data = binary.LittleEndian.AppendUint16(data, uint16(v))
			}
		}
	}
	return &y4m.Frame{Index: index, Data: data, Header: h}
}

// UniformFrame builds a frame whose planes each hold a single code value.
func UniformFrame(t testing.TB, h *y4m.Header, index, y, cb, cr int) *y4m.Frame {
	t.Helper()

	cw, ch := h.ChromaSize()
	return Frame(t, h, index, Fill(h.Width*h.Height, y), Fill(cw*ch, cb), Fill(cw*ch, cr))
}

// Fill returns n copies of v.
func Fill(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Stream serializes frames into a complete Y4M byte stream.
func Stream(t testing.TB, h *y4m.Header, frames ...*y4m.Frame) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := y4m.NewWriter(&buf, h)
	if err != nil {
		t.Fatalf("y4m writer: %v", err)
	}
	for _, f := range frames {
		if err := w.WriteFrame(f.Data); err != nil {
			t.Fatalf("write frame %d: %v", f.Index, err)
		}
	}
	return buf.Bytes()
}

// WriteStream writes a Y4M stream to name inside dir and returns its path.
func WriteStream(t testing.TB, dir, name string, h *y4m.Header, frames ...*y4m.Frame) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Stream(t, h, frames...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
