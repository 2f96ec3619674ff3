package gif

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"
)

func NewEncoder(w io.Writer) *Encoder {
	w1, _ := w.(writer)
	if w1 == nil {
		w1 = bufio.NewWriter(w)
	}
	return &encoder{w: w1}
}

type Encoder = encoder

// WriteHeader writes the GIF89a header and logical screen descriptor. A
// color.Palette color model becomes the global color table shared by every
// frame that uses the same palette.
func (e *Encoder) WriteHeader(cfg image.Config, backgroundIndex byte) error {
	if cfg.ColorModel != nil {
		p, ok := cfg.ColorModel.(color.Palette)
		if !ok {
			return errors.New("gif: color model must be a color.Palette")
		}
		if len(p) > 256 {
			return errors.New("gif: palette has more than 256 colors")
		}
		e.globalColorTable = p
	}

	e.cfg = cfg
	e.backgroundIndex = backgroundIndex
	e.writeHeader()
	return e.err
}

func (e *Encoder) WriteComment(c *Comment) error {
	if err := validateStrings(c.Strings); err != nil {
		return fmt.Errorf("gif: comment %v", err)
	}

	e.buf[0] = sExtension
	e.buf[1] = eComment
	if e.write(e.buf[:2]); e.err != nil {
		return e.err
	}

	for _, s := range c.Strings {
		if e.writeByte(byte(len(s))); e.err != nil {
			return e.err
		}
		if _, e.err = io.WriteString(e.w, s); e.err != nil {
			return e.err
		}
	}
	e.writeByte(0x00)
	return e.err
}

func validateStrings(strings []string) error {
	if len(strings) == 0 {
		return errors.New("must provide at least one string")
	}
	for _, str := range strings {
		if len(str) == 0 || len(str) > 0xff {
			return errors.New("string must be 1 to 255 characters long")
		}
		for i := 0; i < len(str); i++ {
			if str[i] > 0x7f {
				return errors.New("string must only contain ASCII characters")
			}
		}
	}
	return nil
}

func (e *Encoder) WriteApplicationNetscape(an *ApplicationNetscape) error {
	for _, sb := range an.SubBlocks {
		if len(sb) == 0 || len(sb) > 0xff {
			return errors.New("gif: application sub-block must be 1 to 255 bytes long")
		}
	}
	if an.LoopCount < 0 || an.LoopCount > 0xffff {
		return fmt.Errorf("gif: loop count out of range: %d", an.LoopCount)
	}

	e.buf[0] = sExtension
	e.buf[1] = eApplication
	e.buf[2] = 0x0b
	if e.write(e.buf[:3]); e.err != nil {
		return e.err
	}
	if _, e.err = io.WriteString(e.w, "NETSCAPE2.0"); e.err != nil {
		return e.err
	}

	e.buf[0] = 0x03
	e.buf[1] = 0x01
	writeUint16(e.buf[2:4], uint16(an.LoopCount))
	if e.write(e.buf[:4]); e.err != nil {
		return e.err
	}

	for _, sb := range an.SubBlocks {
		if e.writeByte(byte(len(sb))); e.err != nil {
			return e.err
		}
		if e.write(sb); e.err != nil {
			return e.err
		}
	}
	e.writeByte(0x00)
	return e.err
}

// WriteFrame writes one image block. The delay is rounded to the nearest
// 100th of a second.
func (e *Encoder) WriteFrame(f *Frame) error {
	if f.Image == nil {
		return errors.New("gif: frame has no image")
	}
	if f.DisposalMethod > DisposalPrevious {
		return fmt.Errorf("gif: invalid disposal method: %d", f.DisposalMethod)
	}
	cs := (f.DelayTime + 5*time.Millisecond) / (10 * time.Millisecond)
	if cs < 0 || cs > 0xffff {
		return fmt.Errorf("gif: delay out of range: %v", f.DelayTime)
	}
	e.writeImageBlock(f.Image, int(cs), f.DisposalMethod)
	return e.err
}

func (e *Encoder) WriteTrailer() error {
	e.writeByte(sTrailer)
	return e.err
}

func (e *Encoder) Flush() error {
	e.flush()
	return e.err
}
