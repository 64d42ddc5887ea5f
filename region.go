package sod

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/gogpu/sod/native"
)

// Range is a half-open interval along one axis. The zero value selects the
// whole axis.
type Range struct {
	start, stop       int
	hasStart, hasStop bool
}

// All selects the whole axis.
func All() Range { return Range{} }

// Span selects [start, stop).
func Span(start, stop int) Range {
	return Range{start: start, stop: stop, hasStart: true, hasStop: true}
}

// From selects [start, extent).
func From(start int) Range { return Range{start: start, hasStart: true} }

// Until selects [0, stop).
func Until(stop int) Range { return Range{stop: stop, hasStop: true} }

// String formats the range in slice notation, e.g. "100:200" or ":".
func (r Range) String() string {
	var s, e string
	if r.hasStart {
		s = strconv.Itoa(r.start)
	}
	if r.hasStop {
		e = strconv.Itoa(r.stop)
	}
	return s + ":" + e
}

type span struct{ start, stop int }

func (s span) len() int { return s.stop - s.start }

// resolve fills in defaults and checks 0 <= start < stop <= extent.
func (r Range) resolve(axis string, extent int) (span, error) {
	s := span{start: 0, stop: extent}
	if r.hasStart {
		s.start = r.start
	}
	if r.hasStop {
		s.stop = r.stop
	}
	if s.start < 0 || s.start >= s.stop || s.stop > extent {
		return span{}, fmt.Errorf("%w: %s range %s outside [0, %d)", ErrIndex, axis, r, extent)
	}
	return s, nil
}

// Region selects part of an image. It is implemented only by Spatial and
// SpatialChannel.
type Region interface {
	region()
	fmt.Stringer
}

// Spatial selects rows and columns and keeps every channel.
type Spatial struct {
	Rows, Cols Range
}

func (Spatial) region() {}

func (s Spatial) String() string {
	return "[" + s.Rows.String() + ", " + s.Cols.String() + "]"
}

// SpatialChannel selects rows, columns and channels.
type SpatialChannel struct {
	Rows, Cols, Channels Range
}

func (SpatialChannel) region() {}

func (s SpatialChannel) String() string {
	return "[" + s.Rows.String() + ", " + s.Cols.String() + ", " + s.Channels.String() + "]"
}

// Select returns a new image holding the selected region. The source is
// never modified and the result never shares its buffer.
func (img *Image) Select(r Region) (*Image, error) {
	src, err := img.current("select")
	if err != nil {
		return nil, err
	}
	switch r := r.(type) {
	case Spatial:
		return img.selectSpatial(src, r)
	case *Spatial:
		if r != nil {
			return img.selectSpatial(src, *r)
		}
	case SpatialChannel:
		return img.selectChannels(src, r)
	case *SpatialChannel:
		if r != nil {
			return img.selectChannels(src, *r)
		}
	}
	return nil, fmt.Errorf("%w: select: region must be sod.Spatial{Rows, Cols} or "+
		"sod.SpatialChannel{Rows, Cols, Channels}, got %T", ErrIndex, r)
}

func (img *Image) selectSpatial(src native.Descriptor, r Spatial) (*Image, error) {
	rows, err := r.Rows.resolve("row", src.Height)
	if err != nil {
		return nil, err
	}
	cols, err := r.Cols.resolve("column", src.Width)
	if err != nil {
		return nil, err
	}
	out, err := img.o.eng.Crop(src, cols.start, rows.start, cols.len(), rows.len())
	runtime.KeepAlive(img)
	if err := checkResult("select", src, out, err); err != nil {
		return nil, err
	}
	return wrap(img.o.eng, out), nil
}

func (img *Image) selectChannels(src native.Descriptor, r SpatialChannel) (*Image, error) {
	rows, err := r.Rows.resolve("row", src.Height)
	if err != nil {
		return nil, err
	}
	cols, err := r.Cols.resolve("column", src.Width)
	if err != nil {
		return nil, err
	}
	chans, err := r.Channels.resolve("channel", src.Channels)
	if err != nil {
		return nil, err
	}

	sv, err := img.View()
	if err != nil {
		return nil, err
	}
	defer sv.detach()

	out, err := allocate(img.o.eng, cols.len(), rows.len(), chans.len())
	if err != nil {
		return nil, err
	}
	dv, err := out.View()
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	defer dv.detach()

	for row := 0; row < rows.len(); row++ {
		for col := 0; col < cols.len(); col++ {
			px := sv.Pixel(rows.start+row, cols.start+col)
			copy(dv.Pixel(row, col), px[chans.start:chans.stop])
		}
	}
	runtime.KeepAlive(img)
	return out, nil
}
