package scene

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// CanvasSettings describe the logical workspace layer positions are expressed in.
type CanvasSettings struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"backgroundColor"`
	OutputFormat    string `json:"outputFormat"`
	Quality         int    `json:"quality"`
}

func DefaultSettings() CanvasSettings {
	return CanvasSettings{
		Width:           1920,
		Height:          1080,
		BackgroundColor: "#ffffff",
		OutputFormat:    "png",
		Quality:         100,
	}
}

func (s CanvasSettings) Center() Point {
	return Point{float64(s.Width) / 2, float64(s.Height) / 2}
}

func (s CanvasSettings) Background() (color.NRGBA, error) {
	return ParseColor(s.BackgroundColor)
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa, CSS color names and
// "transparent". The empty string is transparent.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "transparent" {
		return color.NRGBA{}, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("scene: unknown color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("scene: invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("scene: invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
