package export

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// palette is the global color table of an export: opaque colors followed
// by an optional transparent entry.
type palette struct {
	colors      color.Palette
	opaque      int // Number of opaque entries.
	transparent int // Index of the transparent entry, -1 without one.
	cache       map[color.RGBA]uint8
}

// buildPalette quantizes the drawable pixels of every frame into at most n
// colors, reserving the last entry for transparency when needed.
func buildPalette(frames []*image.RGBA, q draw.Quantizer, n int, transparent bool) *palette {
	if transparent {
		n--
	}

	var colors color.Palette
	if m := pool(frames); !m.Rect.Empty() {
		for _, c := range q.Quantize(make(color.Palette, 0, n), m) {
			nc := color.NRGBAModel.Convert(c).(color.NRGBA)
			if nc.A == 0 || len(colors) == n {
				continue
			}
			colors = append(colors, color.RGBA{R: nc.R, G: nc.G, B: nc.B, A: 0xff})
		}
	}
	if len(colors) == 0 {
		colors = append(colors, color.RGBA{A: 0xff})
	}

	p := &palette{colors: colors, opaque: len(colors), transparent: -1, cache: make(map[color.RGBA]uint8)}
	if transparent {
		p.transparent = len(p.colors)
		p.colors = append(p.colors, color.RGBA{})
	}
	return p
}

// pool gathers the drawable pixels of every frame, made opaque, into one image.
func pool(frames []*image.RGBA) *image.RGBA {
	size := 0
	for _, m := range frames {
		size += len(m.Pix)
	}
	pix := make([]uint8, 0, size)
	for _, m := range frames {
		for i := 0; i < len(m.Pix); i += 4 {
			if c, ok := opaque(color.RGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: m.Pix[i+3]}); ok {
				pix = append(pix, c.R, c.G, c.B, c.A)
			}
		}
	}
	return &image.RGBA{Pix: pix, Stride: len(pix), Rect: image.Rect(0, 0, len(pix)/4, 1)}
}

// hasTransparency reports whether any pixel would be written as transparent.
func hasTransparency(frames []*image.RGBA) bool {
	for _, m := range frames {
		for i := 3; i < len(m.Pix); i += 4 {
			if m.Pix[i] < alphaThreshold {
				return true
			}
		}
	}
	return false
}

// index maps c to the nearest opaque palette entry, or the transparent one.
func (p *palette) index(c color.RGBA) uint8 {
	c, ok := opaque(c)
	if !ok {
		return uint8(p.transparent)
	}
	if i, ok := p.cache[c]; ok {
		return i
	}
	i := uint8(p.colors[:p.opaque].Index(c))
	p.cache[c] = i
	return i
}

// paletted maps every pixel of m without dithering.
func (p *palette) paletted(m *image.RGBA) *image.Paletted {
	pm := image.NewPaletted(m.Rect, p.colors)
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		i, j := m.PixOffset(m.Rect.Min.X, y), pm.PixOffset(m.Rect.Min.X, y)
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x, i, j = x+1, i+4, j+1 {
			pm.Pix[j] = p.index(color.RGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: m.Pix[i+3]})
		}
	}
	return pm
}
