package gif

import (
	"bufio"
	"compress/lzw"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
)

type writer interface {
	io.Writer
	io.ByteWriter
	Flush() error
}

var _ writer = (*bufio.Writer)(nil)

type encoder struct {
	w   writer
	err error

	cfg              image.Config
	backgroundIndex  byte
	globalColorTable color.Palette

	buf [256]byte
}

func (e *encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *encoder) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

func (e *encoder) flush() {
	if e.err != nil {
		return
	}
	e.err = e.w.Flush()
}

func (e *encoder) writeHeader() {
	if e.err != nil {
		return
	}
	if e.cfg.Width > math.MaxUint16 || e.cfg.Height > math.MaxUint16 {
		e.err = errors.New("gif: image is too large to encode")
		return
	}

	copy(e.buf[:6], "GIF89a")
	writeUint16(e.buf[6:8], uint16(e.cfg.Width))
	writeUint16(e.buf[8:10], uint16(e.cfg.Height))
	if p := e.globalColorTable; len(p) > 0 {
		size := log2(len(p))
		e.buf[10] = fColorTable | uint8(size)
		e.buf[11] = e.backgroundIndex
		e.buf[12] = 0x00 // Pixel aspect ratio.
		e.write(e.buf[:13])
		e.writeColorTable(p, size)
	} else {
		e.buf[10] = 0x00
		e.buf[11] = 0x00
		e.buf[12] = 0x00
		e.write(e.buf[:13])
	}
}

// writeColorTable writes a table of 2^(size+1) entries, padding with black.
func (e *encoder) writeColorTable(p color.Palette, size int) {
	n := 1 << (size + 1)
	table := make([]byte, 3*n)
	for i := 0; i < n && i < len(p); i++ {
		c := color.RGBAModel.Convert(p[i]).(color.RGBA)
		table[3*i], table[3*i+1], table[3*i+2] = c.R, c.G, c.B
	}
	e.write(table)
}

func (e *encoder) writeImageBlock(pm *image.Paletted, delay int, disposal byte) {
	if e.err != nil {
		return
	}
	if len(pm.Palette) == 0 {
		e.err = errors.New("gif: cannot encode image block with empty palette")
		return
	}

	b := pm.Bounds()
	if b.Empty() {
		e.err = errors.New("gif: cannot encode empty image block")
		return
	}
	if b.Min.X < 0 || b.Min.Y < 0 || b.Max.X > math.MaxUint16 || b.Max.Y > math.MaxUint16 {
		e.err = errors.New("gif: image block is too large to encode")
		return
	}
	if !b.In(image.Rect(0, 0, e.cfg.Width, e.cfg.Height)) {
		e.err = errors.New("gif: image block is not within image bounds")
		return
	}

	transparentIndex := -1
	for i, c := range pm.Palette {
		if c == nil {
			continue
		}
		if _, _, _, a := c.RGBA(); a == 0 {
			transparentIndex = i
			break
		}
	}

	if delay > 0 || disposal != 0 || transparentIndex != -1 {
		e.buf[0] = sExtension
		e.buf[1] = eGraphicControl
		e.buf[2] = 0x04
		e.buf[3] = (disposal << 2) & gcDisposalMethodMask
		if transparentIndex != -1 {
			e.buf[3] |= gcTransparentColorSet
			e.buf[6] = uint8(transparentIndex)
		} else {
			e.buf[6] = 0x00
		}
		writeUint16(e.buf[4:6], uint16(delay))
		e.buf[7] = 0x00
		e.write(e.buf[:8])
	}

	e.buf[0] = sImageDescriptor
	writeUint16(e.buf[1:3], uint16(b.Min.X))
	writeUint16(e.buf[3:5], uint16(b.Min.Y))
	writeUint16(e.buf[5:7], uint16(b.Dx()))
	writeUint16(e.buf[7:9], uint16(b.Dy()))

	size := log2(len(pm.Palette))
	if samePalette(pm.Palette, e.globalColorTable) {
		size = log2(len(e.globalColorTable))
		e.buf[9] = 0x00
		e.write(e.buf[:10])
	} else {
		e.buf[9] = fColorTable | uint8(size)
		e.write(e.buf[:10])
		e.writeColorTable(pm.Palette, size)
	}

	litWidth := size + 1
	if litWidth < 2 {
		litWidth = 2
	}
	e.writeByte(uint8(litWidth))

	bw := &blockWriter{e: e}
	lw := lzw.NewWriter(bw, lzw.LSB, litWidth)
	if dx := b.Dx(); dx == pm.Stride {
		_, e.err = lw.Write(pm.Pix[:dx*b.Dy()])
	} else {
		for i, y := 0, b.Min.Y; y < b.Max.Y && e.err == nil; i, y = i+pm.Stride, y+1 {
			_, e.err = lw.Write(pm.Pix[i : i+dx])
		}
	}
	if err := lw.Close(); err != nil && e.err == nil {
		e.err = err
	}
	bw.close()
}

// blockWriter chops the LZW stream into length-prefixed sub-blocks.
type blockWriter struct {
	e   *encoder
	n   int
	buf [256]byte
}

func (b *blockWriter) Write(p []byte) (int, error) {
	for _, c := range p {
		b.buf[1+b.n] = c
		if b.n++; b.n == 0xff {
			b.flush()
		}
	}
	return len(p), b.e.err
}

func (b *blockWriter) flush() {
	if b.n == 0 {
		return
	}
	b.buf[0] = uint8(b.n)
	b.e.write(b.buf[:b.n+1])
	b.n = 0
}

func (b *blockWriter) close() {
	b.flush()
	b.e.writeByte(0x00)
}

func samePalette(a, b color.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		r0, g0, b0, a0 := a[i].RGBA()
		r1, g1, b1, a1 := b[i].RGBA()
		if r0 != r1 || g0 != g1 || b0 != b1 || a0 != a1 {
			return false
		}
	}
	return true
}

// log2 returns the smallest n such that 2^(n+1) >= x, capped at 7.
func log2(x int) int {
	for i := 0; i < 8; i++ {
		if x <= 1<<(i+1) {
			return i
		}
	}
	return 7
}

func writeUint16(b []uint8, u uint16) {
	b[0] = uint8(u)
	b[1] = uint8(u >> 8)
}
