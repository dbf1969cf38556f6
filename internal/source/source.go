package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"deltae/internal/failure"
)

// Stdin is the path naming standard input.
const Stdin = "-"

const peekSize = 64 * 1024

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ErrStdinTwice is returned when both sides of a comparison name stdin.
var ErrStdinTwice = fmt.Errorf("%w: only one input may be read from stdin", failure.ErrConfiguration)

// Input is an opened stream ready to be handed to the pipeline.
type Input struct {
	Path       string
	Size       int64 // on-disk size, -1 when unknown
	Compressed bool

	r       io.Reader
	closers []io.Closer
	read    int64
}

// Open opens path for sequential reading. stdin is used when path is "-".
func Open(path string, stdin io.Reader) (*Input, error) {
	in := &Input{Path: path, Size: -1}
	var raw io.Reader
	if path == Stdin {
		if stdin == nil {
			stdin = os.Stdin
		}
		raw = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, failure.Wrap(failure.ErrIO, "source", "open", path, err)
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, failure.Wrap(failure.ErrIO, "source", "stat", path, err)
		}
		if info.IsDir() {
			_ = f.Close()
			return nil, failure.Wrap(failure.ErrIO, "source", "open", path+" is a directory", nil)
		}
		if info.Mode().IsRegular() {
			in.Size = info.Size()
			adviseSequential(f)
		}
		in.closers = append(in.closers, f)
		raw = f
	}

	br := bufio.NewReaderSize(raw, peekSize)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		_ = in.Close()
		return nil, failure.Wrap(failure.ErrIO, "source", "read", path, err)
	}
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			_ = in.Close()
			return nil, failure.Wrap(failure.ErrFormat, "source", "zstd", path, err)
		}
		in.Compressed = true
		in.closers = append(in.closers, closerFunc(func() error { dec.Close(); return nil }))
		in.r = dec
		return in, nil
	}
	in.r = br
	return in, nil
}

// OpenPair opens the reference and reconstructed inputs. At most one may be
// stdin. The reference is closed again if the reconstruction fails to open.
func OpenPair(ref, rec string, stdin io.Reader) (*Input, *Input, error) {
	if ref == Stdin && rec == Stdin {
		return nil, nil, ErrStdinTwice
	}
	refIn, err := Open(ref, stdin)
	if err != nil {
		return nil, nil, err
	}
	recIn, err := Open(rec, stdin)
	if err != nil {
		_ = refIn.Close()
		return nil, nil, err
	}
	return refIn, recIn, nil
}

// Read implements io.Reader. Decompression errors are tagged as format
// errors so a corrupt archive is not mistaken for a failing disk.
func (in *Input) Read(p []byte) (int, error) {
	n, err := in.r.Read(p)
	in.read += int64(n)
	if err != nil && !errors.Is(err, io.EOF) && in.Compressed {
		return n, failure.Wrap(failure.ErrFormat, "source", "zstd", in.Path, err)
	}
	return n, err
}

// BytesRead reports how many decoded bytes have been consumed so far.
func (in *Input) BytesRead() int64 { return in.read }

// Name returns a short display name.
func (in *Input) Name() string {
	if in.Path == Stdin {
		return "stdin"
	}
	return filepath.Base(in.Path)
}

// Describe renders the input for "Opening" notices and logs.
func (in *Input) Describe() string {
	var details []string
	if in.Size >= 0 {
		details = append(details, humanize.IBytes(uint64(in.Size)))
	}
	if in.Compressed {
		details = append(details, "zstd")
	}
	if len(details) == 0 {
		return in.Name()
	}
	return fmt.Sprintf("%s (%s)", in.Name(), strings.Join(details, ", "))
}

// Close releases the decoder and the underlying file in reverse order.
// Standard input is never closed.
func (in *Input) Close() error {
	var errs []error
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	in.closers = nil
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
