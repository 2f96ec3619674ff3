package scene

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
)

// Thumbnail renders the current frame of l, unscaled and unrotated, shrunk
// to fit within maxWidth by maxHeight. It returns nil for layers without a
// raster.
func Thumbnail(l *Layer, maxWidth, maxHeight int) image.Image {
	src, ok := resolve(l, l.Frame)
	if !ok || maxWidth <= 0 || maxHeight <= 0 {
		return nil
	}

	full := image.NewRGBA(image.Rectangle{Max: src.box.Size()})
	b := src.img.Bounds()
	draw.Draw(full, b.Sub(src.box.Min), src.img, b.Min, draw.Src)

	size := full.Rect.Size()
	scale := math.Min(1, math.Min(float64(maxWidth)/float64(size.X), float64(maxHeight)/float64(size.Y)))
	if scale == 1 {
		return full
	}
	w := max(1, int(math.Round(float64(size.X)*scale)))
	h := max(1, int(math.Round(float64(size.Y)*scale)))
	return transform.Resize(full, w, h, transform.NearestNeighbor)
}
