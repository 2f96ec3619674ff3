package scene

import "math"

const DefaultSnapThreshold = 30

type Anchor string

const (
	AnchorCenter       Anchor = "center"
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopCenter    Anchor = "top-center"
	AnchorTopRight     Anchor = "top-right"
	AnchorLeftCenter   Anchor = "left-center"
	AnchorRightCenter  Anchor = "right-center"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorBottomRight  Anchor = "bottom-right"
)

// anchors lists the snap points in priority order as fractions of the
// canvas, which are also the matching fractions of the layer.
var anchors = []struct {
	Anchor
	fx, fy float64
}{
	{AnchorCenter, 0.5, 0.5},
	{AnchorTopLeft, 0, 0},
	{AnchorTopCenter, 0.5, 0},
	{AnchorTopRight, 1, 0},
	{AnchorLeftCenter, 0, 0.5},
	{AnchorRightCenter, 1, 0.5},
	{AnchorBottomLeft, 0, 1},
	{AnchorBottomCenter, 0.5, 1},
	{AnchorBottomRight, 1, 1},
}

type SnapResult struct {
	Snapped  bool
	Position Point
	Anchor   Anchor
	Distance float64
}

// Snap moves a layer dragged to pos so that one of its anchors sits exactly
// on the matching canvas point, choosing the nearest within threshold.
// Rotation is ignored.
func Snap(l *Layer, pos Point, settings CanvasSettings, threshold float64) SnapResult {
	res := SnapResult{Position: pos}
	size := l.Size()
	w, h := float64(size.X)*l.Scale, float64(size.Y)*l.Scale
	cw, ch := float64(settings.Width), float64(settings.Height)

	for _, a := range anchors {
		offset := Point{(a.fx - 0.5) * w, (a.fy - 0.5) * h}
		target := Point{a.fx * cw, a.fy * ch}
		d := pos.Add(offset).Sub(target)
		dist := math.Hypot(d.X, d.Y)
		if dist > threshold || res.Snapped && dist >= res.Distance {
			continue
		}
		res = SnapResult{
			Snapped:  true,
			Position: target.Sub(offset),
			Anchor:   a.Anchor,
			Distance: dist,
		}
	}
	return res
}
