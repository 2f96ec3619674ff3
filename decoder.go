package gif

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"time"
)

type (
	Header struct {
		Version         string       // GIF version, either GIF87a or GIF89a.
		Config          image.Config // Global color table (palette), width and height.
		BackgroundIndex byte         // Background index in the global color table.
	}
	Comment struct {
		Strings []string // Comments, up to 255 ASCII characters per string.
	}
	ApplicationNetscape struct {
		LoopCount int      // Number of times an animation will be restarted during display, 0 meaning forever.
		SubBlocks [][]byte // Optional sub-blocks of arbitrary data.
	}
	UnknownApplication struct {
		Identifier string   // Identifier string of the application.
		SubBlocks  [][]byte // Optional sub-blocks of arbitrary data.
	}
	UnknownExtension struct {
		Label     byte
		SubBlocks [][]byte // Optional sub-blocks of arbitrary data, including the plain text header.
	}
	Frame struct {
		Image            *image.Paletted // Paletted patch, positioned within the logical screen by its bounds.
		DelayTime        time.Duration   // Display duration, stored in 100ths of a second.
		DisposalMethod   byte            // Disposal method, one of DisposalNone, DisposalBackground, DisposalPrevious.
		TransparentIndex int             // Transparent palette index, or -1. Ignored when encoding.
	}
)

func NewDecoder(r io.Reader) *Decoder {
	r1, _ := r.(reader)
	if r1 == nil {
		r1 = bufio.NewReader(r)
	}
	return &decoder{r: r1, loopCount: -1}
}

type Decoder = decoder

func (d *Decoder) DecodeFirst() (image.Image, error) {
	if _, err := d.ReadHeader(); err != nil {
		return nil, err
	}

	for {
		if b, err := d.ReadBlock(); err != nil {
			if err != io.EOF {
				return nil, err
			}
			return nil, fmt.Errorf("gif: missing image data")
		} else if f, ok := b.(*Frame); ok {
			return f.Image, nil
		}
	}
}

func (d *Decoder) DecodeConfig() (image.Config, error) {
	if hdr, err := d.ReadHeader(); err != nil {
		return image.Config{}, err
	} else {
		return hdr.Config, nil
	}
}

func (d *Decoder) ReadHeader() (*Header, error) {
	if err := d.readHeaderAndScreenDescriptor(); err != nil {
		return nil, err
	}
	hdr := &Header{
		Version: d.vers,
		Config: image.Config{
			Width:  d.width,
			Height: d.height,
		},
		BackgroundIndex: d.backgroundIndex,
	}
	if d.globalColorTable != nil {
		hdr.Config.ColorModel = d.globalColorTable
	}
	return hdr, nil
}

// ReadBlock returns the next meaningful block in the stream: a *Frame,
// *Comment, *ApplicationNetscape, *UnknownApplication or *UnknownExtension.
// It returns io.EOF at the trailer. An undecodable image is reported as a
// *FrameError, after which reading may continue.
func (d *Decoder) ReadBlock() (any, error) {
	for {
		c, err := readByte(d.r)
		if err != nil {
			return nil, fmt.Errorf("gif: reading block: %w", err)
		}

		switch c {
		case sExtension:
			if e, err := d.readExtension(); e != nil || err != nil {
				return e, err
			}

		case sImageDescriptor:
			return d.readImageDescriptor()

		case sTrailer:
			return nil, io.EOF

		default:
			return nil, fmt.Errorf("gif: unknown block type: 0x%.2x", c)
		}
	}
}

// LoopCount returns the loop count of the most recent Netscape extension read, or -1.
func (d *Decoder) LoopCount() int {
	return d.loopCount
}

func (d *Decoder) readExtension() (any, error) {
	label, err := readByte(d.r)
	if err != nil {
		return nil, fmt.Errorf("gif: reading extension: %w", err)
	}
	switch label {
	case eGraphicControl:
		return nil, d.readGraphicControl()

	case eComment:
		return d.readComment()

	case eApplication:
		return d.readApplication()

	default:
		// Plain text extensions carry their fixed header as the first sub-block.
		return d.readUnknownExtension(label)
	}
}

func (d *Decoder) readComment() (*Comment, error) {
	var strings []string
	for {
		if n, err := d.readBlock(); err != nil {
			return nil, fmt.Errorf("gif: reading comment extension: %w", err)
		} else if n == 0 {
			return &Comment{Strings: strings}, nil
		} else {
			strings = append(strings, string(d.tmp[:n]))
		}
	}
}

func (d *Decoder) readApplication() (any, error) {
	b, err := readByte(d.r)
	if err != nil {
		return nil, fmt.Errorf("gif: reading application extension: %w", err)
	}
	if err := readFull(d.r, d.tmp[:int(b)]); err != nil {
		return nil, fmt.Errorf("gif: reading application extension: %w", err)
	}

	id := string(d.tmp[:int(b)])
	if id != "NETSCAPE2.0" {
		sb, err := d.readSubBlocks()
		if err != nil {
			return nil, fmt.Errorf("gif: reading application extension: %w", err)
		}
		return &UnknownApplication{Identifier: id, SubBlocks: sb}, nil
	}

	an := &ApplicationNetscape{LoopCount: d.loopCount}
	n, err := d.readBlock()
	if err != nil {
		return nil, fmt.Errorf("gif: reading application extension: %w", err)
	}
	if n == 0 {
		return an, nil
	}
	if n == 3 && d.tmp[0] == 1 {
		d.loopCount = int(readUint16(d.tmp[1:3]))
		an.LoopCount = d.loopCount
	} else {
		an.SubBlocks = append(an.SubBlocks, append([]byte(nil), d.tmp[:n]...))
	}
	sb, err := d.readSubBlocks()
	if err != nil {
		return nil, fmt.Errorf("gif: reading application extension: %w", err)
	}
	an.SubBlocks = append(an.SubBlocks, sb...)
	return an, nil
}

func (d *Decoder) readUnknownExtension(label byte) (*UnknownExtension, error) {
	if sb, err := d.readSubBlocks(); err != nil {
		return nil, fmt.Errorf("gif: reading unknown extension: %w", err)
	} else {
		return &UnknownExtension{Label: label, SubBlocks: sb}, nil
	}
}

func (d *Decoder) readSubBlocks() ([][]byte, error) {
	var sb [][]byte
	for {
		if n, err := d.readBlock(); err != nil {
			return nil, err
		} else if n == 0 {
			return sb, nil
		} else {
			sb = append(sb, append([]byte(nil), d.tmp[:n]...))
		}
	}
}

func readUint16(b []uint8) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
