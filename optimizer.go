package gif

import (
	"errors"
	"image"
)

// NewOptimizer returns a new Optimizer with the given transparent palette index.
func NewOptimizer(transparentIndex uint8) *Optimizer {
	return &Optimizer{ti: transparentIndex}
}

// Optimizer tracks the pixels visible after each frame when frames are drawn
// without disposal, so later frames only need to carry what changed.
type Optimizer struct {
	pm *image.Paletted
	ti uint8
}

// Optimize compares the given image with the previous frame and replaces identical pixels
// with the transparent palette index. The smallest possible sub-image containing all
// changed pixels is returned.
// The first image passed cannot be optimized and is only used to initialize the internal
// image buffer.
func (o *Optimizer) Optimize(pm *image.Paletted) (*image.Paletted, error) {
	if o.pm == nil {
		o.pm = image.NewPaletted(pm.Rect, pm.Palette)
		for y := pm.Rect.Min.Y; y < pm.Rect.Max.Y; y++ {
			i := pm.PixOffset(pm.Rect.Min.X, y)
			copy(o.pm.Pix[o.pm.PixOffset(pm.Rect.Min.X, y):], pm.Pix[i:i+pm.Rect.Dx()])
		}
		return pm, nil
	}

	if !pm.Rect.In(o.pm.Rect) {
		return nil, errors.New("image outside bounds")
	}

	crop := o.changed(pm)
	if crop.Empty() {
		// GIF frames cannot be empty, so keep a single untouched pixel.
		crop = image.Rect(pm.Rect.Min.X, pm.Rect.Min.Y, pm.Rect.Min.X+1, pm.Rect.Min.Y+1)
	}

	for y := crop.Min.Y; y < crop.Max.Y; y++ {
		i, j := pm.PixOffset(crop.Min.X, y), o.pm.PixOffset(crop.Min.X, y)
		for x := crop.Min.X; x < crop.Max.X; x, i, j = x+1, i+1, j+1 {
			if c := pm.Pix[i]; c == o.pm.Pix[j] || c == o.ti {
				pm.Pix[i] = o.ti
			} else {
				o.pm.Pix[j] = c
			}
		}
	}

	if !pm.Rect.Eq(crop) {
		pm = pm.SubImage(crop).(*image.Paletted)
	}
	return pm, nil
}

// changed returns the bounding box of pixels that differ from the previous frame.
func (o *Optimizer) changed(pm *image.Paletted) image.Rectangle {
	var crop image.Rectangle
	for y := pm.Rect.Min.Y; y < pm.Rect.Max.Y; y++ {
		x0, x1 := -1, -1
		i, j := pm.PixOffset(pm.Rect.Min.X, y), o.pm.PixOffset(pm.Rect.Min.X, y)
		for x := pm.Rect.Min.X; x < pm.Rect.Max.X; x, i, j = x+1, i+1, j+1 {
			if c := pm.Pix[i]; c != o.pm.Pix[j] && c != o.ti {
				if x0 < 0 {
					x0 = x
				}
				x1 = x + 1
			}
		}
		if x0 >= 0 {
			crop = crop.Union(image.Rect(x0, y, x1, y+1))
		}
	}
	return crop
}
