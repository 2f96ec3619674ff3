package gif

import (
	"bytes"
	"compress/lzw"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"
)

// Disposal methods.
const (
	DisposalUnspecified = 0x00
	DisposalNone        = 0x01
	DisposalBackground  = 0x02
	DisposalPrevious    = 0x03
)

// Masks etc.
const (
	// Fields.
	fColorTable         = 1 << 7
	fInterlace          = 1 << 6
	fColorTableBitsMask = 7

	// Graphic control flags.
	gcTransparentColorSet = 1 << 0
	gcDisposalMethodMask  = 7 << 2
)

// Section indicators.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Extensions.
const (
	eText           = 0x01 // Plain Text
	eGraphicControl = 0xF9 // Graphic Control
	eComment        = 0xFE // Comment
	eApplication    = 0xFF // Application
)

var errNotEnough = errors.New("gif: not enough image data")

// FrameError reports an image block that could not be decoded. The stream is
// left positioned at the following block so decoding may continue.
type FrameError struct {
	Index int // Zero-based index of the image block in the stream.
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("gif: frame %d: %v", e.Index, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

type reader interface {
	io.Reader
	io.ByteReader
}

type decoder struct {
	r reader

	vers             string
	width            int
	height           int
	backgroundIndex  byte
	globalColorTable color.Palette
	loopCount        int

	// From the most recent graphic control extension.
	delayTime           int
	disposalMethod      byte
	transparentIndex    byte
	hasTransparentIndex bool

	images int
	tmp    [1024]byte
}

func (d *decoder) readHeaderAndScreenDescriptor() error {
	if err := readFull(d.r, d.tmp[:13]); err != nil {
		return fmt.Errorf("gif: reading header: %w", err)
	}
	d.vers = string(d.tmp[:6])
	if d.vers != "GIF87a" && d.vers != "GIF89a" {
		return fmt.Errorf("gif: can't recognize format %q", d.vers)
	}
	d.width = int(readUint16(d.tmp[6:8]))
	d.height = int(readUint16(d.tmp[8:10]))
	if fields := d.tmp[10]; fields&fColorTable != 0 {
		d.backgroundIndex = d.tmp[11]
		p, err := d.readColorTable(fields)
		if err != nil {
			return err
		}
		d.globalColorTable = p
	}
	// d.tmp[12] is the pixel aspect ratio, which is ignored.
	return nil
}

func (d *decoder) readColorTable(fields byte) (color.Palette, error) {
	n := 1 << (1 + uint(fields&fColorTableBitsMask))
	if err := readFull(d.r, d.tmp[:3*n]); err != nil {
		return nil, fmt.Errorf("gif: reading color table: %w", err)
	}
	p := make(color.Palette, n)
	for i, j := 0, 0; i < n; i++ {
		p[i] = color.RGBA{R: d.tmp[j], G: d.tmp[j+1], B: d.tmp[j+2], A: 0xff}
		j += 3
	}
	return p, nil
}

func (d *decoder) readGraphicControl() error {
	if err := readFull(d.r, d.tmp[:6]); err != nil {
		return fmt.Errorf("gif: can't read graphic control: %w", err)
	}
	if d.tmp[0] != 4 {
		return fmt.Errorf("gif: invalid graphic control extension block size: %d", d.tmp[0])
	}
	flags := d.tmp[1]
	d.disposalMethod = (flags & gcDisposalMethodMask) >> 2
	d.delayTime = int(readUint16(d.tmp[2:4]))
	if flags&gcTransparentColorSet != 0 {
		d.transparentIndex = d.tmp[4]
		d.hasTransparentIndex = true
	}
	if d.tmp[5] != 0 {
		return fmt.Errorf("gif: invalid graphic control extension block terminator: %d", d.tmp[5])
	}
	return nil
}

func (d *decoder) resetGraphicControl() {
	d.delayTime = 0
	d.disposalMethod = 0
	d.transparentIndex = 0
	d.hasTransparentIndex = false
}

// readImageDescriptor reads one image block. Structural errors are returned
// as-is; errors confined to the compressed pixel data are returned as a
// *FrameError once the whole block has been consumed.
func (d *decoder) readImageDescriptor() (*Frame, error) {
	index := d.images
	d.images++
	defer d.resetGraphicControl()

	if err := readFull(d.r, d.tmp[:9]); err != nil {
		return nil, fmt.Errorf("gif: can't read image descriptor: %w", err)
	}
	left := int(readUint16(d.tmp[0:2]))
	top := int(readUint16(d.tmp[2:4]))
	width := int(readUint16(d.tmp[4:6]))
	height := int(readUint16(d.tmp[6:8]))
	fields := d.tmp[8]

	p := d.globalColorTable
	if fields&fColorTable != 0 {
		var err error
		if p, err = d.readColorTable(fields); err != nil {
			return nil, err
		}
	}

	litWidth, err := readByte(d.r)
	if err != nil {
		return nil, fmt.Errorf("gif: reading image data: %w", err)
	}
	data, err := d.readData()
	if err != nil {
		return nil, fmt.Errorf("gif: reading image data: %w", err)
	}

	f := &Frame{
		DelayTime:        delayDuration(d.delayTime),
		DisposalMethod:   d.disposalMethod,
		TransparentIndex: -1,
	}
	if d.hasTransparentIndex {
		f.TransparentIndex = int(d.transparentIndex)
	}

	if len(p) == 0 {
		return nil, &FrameError{Index: index, Err: errors.New("no color table")}
	}
	if width == 0 || height == 0 {
		return nil, &FrameError{Index: index, Err: errors.New("empty image")}
	}
	if litWidth < 2 || litWidth > 8 {
		return nil, &FrameError{Index: index, Err: fmt.Errorf("pixel size in decode out of range: %d", litWidth)}
	}

	if d.hasTransparentIndex {
		ti := int(d.transparentIndex)
		if ti < len(p) {
			p = append(color.Palette(nil), p...)
		} else {
			// Out of range indices are legal; extend the palette so they resolve.
			ext := make(color.Palette, ti+1)
			copy(ext, p)
			for i := len(p); i < len(ext); i++ {
				ext[i] = color.RGBA{A: 0xff}
			}
			p = ext
		}
		p[ti] = color.RGBA{}
	}

	m := image.NewPaletted(image.Rect(left, top, left+width, top+height), p)
	lr := lzw.NewReader(bytes.NewReader(data), lzw.LSB, int(litWidth))
	defer lr.Close()
	if _, err := io.ReadFull(lr, m.Pix); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = errNotEnough
		}
		return nil, &FrameError{Index: index, Err: err}
	}
	if len(p) < 256 {
		for _, px := range m.Pix {
			if int(px) >= len(p) {
				return nil, &FrameError{Index: index, Err: fmt.Errorf("invalid pixel value %d", px)}
			}
		}
	}
	if fields&fInterlace != 0 {
		uninterlace(m)
	}

	f.Image = m
	return f, nil
}

// readData gathers the data sub-blocks of an image.
func (d *decoder) readData() ([]byte, error) {
	var data []byte
	for {
		n, err := d.readBlock()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return data, nil
		}
		data = append(data, d.tmp[:n]...)
	}
}

// readBlock reads one length-prefixed sub-block into d.tmp.
func (d *decoder) readBlock() (int, error) {
	n, err := readByte(d.r)
	if n == 0 || err != nil {
		return 0, err
	}
	if err := readFull(d.r, d.tmp[:n]); err != nil {
		return 0, err
	}
	return int(n), nil
}

// interlaceScan defines the ordering for a pass of the interlace algorithm.
type interlaceScan struct {
	skip, start int
}

var interlacing = []interlaceScan{
	{8, 0}, // Group 1 : Every 8th. row, starting with row 0.
	{8, 4}, // Group 2 : Every 8th. row, starting with row 4.
	{4, 2}, // Group 3 : Every 4th. row, starting with row 2.
	{2, 1}, // Group 4 : Every 2nd. row, starting with row 1.
}

func uninterlace(m *image.Paletted) {
	dx := m.Bounds().Dx()
	dy := m.Bounds().Dy()
	nPix := make([]uint8, dx*dy)
	offset := 0
	for _, pass := range interlacing {
		nOffset := pass.start * dx
		for y := pass.start; y < dy; y += pass.skip {
			copy(nPix[nOffset:nOffset+dx], m.Pix[offset:offset+dx])
			offset += dx
			nOffset += dx * pass.skip
		}
	}
	m.Pix = nPix
}

func delayDuration(cs int) time.Duration {
	return time.Duration(cs) * 10 * time.Millisecond
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func readByte(r io.ByteReader) (byte, error) {
	b, err := r.ReadByte()
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return b, err
}
