package gif_test

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/NathanBaulch/gifstack"
)

func ExampleNewEncoder() {
	f, _ := os.Create("tmp.gif")
	defer f.Close()

	enc := gif.NewEncoder(f)
	pal := make(color.Palette, 0x100)
	for i := range pal {
		pal[i] = color.Gray{Y: uint8(i)}
	}

	_ = enc.WriteHeader(image.Config{Width: 100, Height: 100, ColorModel: pal}, 0)
	_ = enc.WriteApplicationNetscape(&gif.ApplicationNetscape{})

	pm := image.NewPaletted(image.Rect(0, 0, 100, 100), pal)
	for i := 0; i < 100; i++ {
		rand.Read(pm.Pix)
		_ = enc.WriteFrame(&gif.Frame{Image: pm, DelayTime: 40 * time.Millisecond})
	}

	_ = enc.WriteTrailer()
	_ = enc.Flush()
}

func ExampleNewDecoder() {
	f, _ := os.Open("tmp.gif")
	defer f.Close()

	dec := gif.NewDecoder(f)
	_, _ = dec.ReadHeader()

	for {
		if blk, err := dec.ReadBlock(); err == io.EOF {
			break
		} else if frm, ok := blk.(*gif.Frame); ok {
			fmt.Println(frm.Image.Bounds(), frm.DelayTime, frm.DisposalMethod)
		}
	}
}

func ExampleDecode() {
	data, _ := os.ReadFile("tmp.gif")

	info, err := gif.Decode(data, gif.WithMaxFrames(50), gif.WithFullCanvas())
	if err != nil {
		fmt.Println(err)
		return
	}
	s := info.Stats()
	fmt.Println(len(info.Frames), info.LoopCount, info.FrameRate(), s.AverageDelay)
}
