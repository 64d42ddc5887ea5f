package software

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/sod/native"
)

// ExtRaw is the file extension of the lossless float32 container.
const ExtRaw = ".sodz"

// Raw container layout:
//
//	magic    [4]byte  "SODZ"
//	version  uint8
//	reserved [3]byte
//	width    uint32 (little endian)
//	height   uint32
//	channels uint32
//	payload  zstd stream of width*height*channels little-endian float32
const (
	rawVersion = 1

	// maxRawElements bounds allocations driven by untrusted headers (1 GiB of floats).
	maxRawElements = 1 << 28
)

var rawMagic = [4]byte{'S', 'O', 'D', 'Z'}

// ErrCorruptRaw is returned for malformed .sodz files.
var ErrCorruptRaw = errors.New("software: corrupt raw container")

type rawHeader struct {
	Magic    [4]byte
	Version  uint8
	_        [3]byte
	Width    uint32
	Height   uint32
	Channels uint32
}

// encodeRaw writes the raw container for buf.
func encodeRaw(w io.Writer, d native.Descriptor, buf []float32) error {
	hdr := rawHeader{
		Magic:    rawMagic,
		Version:  rawVersion,
		Width:    uint32(d.Width),
		Height:   uint32(d.Height),
		Channels: uint32(d.Channels),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		return err
	}

	// Write in row-sized chunks to bound the scratch buffer.
	rowLen := d.Width * d.Channels
	scratch := make([]byte, rowLen*4)
	for off := 0; off < len(buf); off += rowLen {
		for i, v := range buf[off : off+rowLen] {
			binary.LittleEndian.PutUint32(scratch[i*4:], math.Float32bits(v))
		}
		if _, err := enc.Write(scratch); err != nil {
			_ = enc.Close()
			return err
		}
	}
	return enc.Close()
}

// decodeRaw reads a raw container into a new engine buffer.
// A non-zero channel hint must match the stored channel count.
func (e *Engine) decodeRaw(path string, channels int) (native.Descriptor, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return native.Null, fmt.Errorf("software: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)

	var hdr rawHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return native.Null, fmt.Errorf("%w: header: %w", ErrCorruptRaw, err)
	}
	if hdr.Magic != rawMagic {
		return native.Null, fmt.Errorf("%w: bad magic %q", ErrCorruptRaw, hdr.Magic[:])
	}
	if hdr.Version != rawVersion {
		return native.Null, fmt.Errorf("%w: unsupported version %d", ErrCorruptRaw, hdr.Version)
	}

	w, h, c := int(hdr.Width), int(hdr.Height), int(hdr.Channels)
	if w <= 0 || h <= 0 || c <= 0 || uint64(w)*uint64(h)*uint64(c) > maxRawElements {
		return native.Null, fmt.Errorf("%w: shape %dx%dx%d", ErrCorruptRaw, w, h, c)
	}
	if channels != 0 && channels != c {
		return native.Null, fmt.Errorf("%w: file has %d channels, %d requested", ErrUnsupportedChannels, c, channels)
	}

	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return native.Null, fmt.Errorf("%w: payload: %w", ErrCorruptRaw, err)
	}
	defer dec.Close()

	d, dst, err := e.newBuffer(w, h, c)
	if err != nil {
		return native.Null, err
	}

	rowLen := w * c
	scratch := make([]byte, rowLen*4)
	for off := 0; off < len(dst); off += rowLen {
		if _, err := io.ReadFull(dec, scratch); err != nil {
			e.Free(d)
			return native.Null, fmt.Errorf("%w: payload: %w", ErrCorruptRaw, err)
		}
		for i := range dst[off : off+rowLen] {
			dst[off+i] = math.Float32frombits(binary.LittleEndian.Uint32(scratch[i*4:]))
		}
	}

	e.log().Debug("software: decoded", "path", path, "format", "sodz", "desc", d.String())
	return d, nil
}
