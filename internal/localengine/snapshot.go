package localengine

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/bmp"

	"paramexport/internal/engine"
)

var background = color.RGBA{R: 0xf2, G: 0xf2, B: 0xf2, A: 0xff}

// writeSnapshot draws a cube outline seen from the requested view, tinted by the
// committed parameter values, and encodes it as BMP.
func writeSnapshot(path string, opts engine.SnapshotOptions, params []engine.Parameter) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("snapshot size %dx%d", opts.Width, opts.Height)
	}
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	ink := tint(params)
	for _, e := range outline(opts) {
		line(img, e[0], e[1], ink)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode bmp: %w", err)
	}
	return f.Close()
}

func tint(params []engine.Parameter) color.RGBA {
	h := fnv.New32a()
	for _, p := range params {
		fmt.Fprintf(h, "%s=%g;", p.Name, p.Value)
	}
	s := h.Sum32()
	return color.RGBA{R: uint8(s >> 16 & 0x7f), G: uint8(s >> 8 & 0x7f), B: uint8(s & 0x7f), A: 0xff}
}

// outline returns the visible edges of a unit cube for the view.
func outline(opts engine.SnapshotOptions) [][2]image.Point {
	w, h := opts.Width, opts.Height
	cx, cy := w/2, h/2
	s := min(w, h) / 4
	switch opts.View {
	case engine.ViewFront, engine.ViewTop:
		a := image.Pt(cx-s, cy-s)
		b := image.Pt(cx+s, cy-s)
		c := image.Pt(cx+s, cy+s)
		d := image.Pt(cx-s, cy+s)
		return [][2]image.Point{{a, b}, {b, c}, {c, d}, {d, a}}
	default:
		// Top-right isometric: three visible faces meeting at the near corner.
		dx := s * 866 / 1000
		dy := s / 2
		top := image.Pt(cx, cy-s)
		near := image.Pt(cx, cy)
		left := image.Pt(cx-dx, cy-dy)
		right := image.Pt(cx+dx, cy-dy)
		bottom := image.Pt(cx, cy+s)
		bl := image.Pt(cx-dx, cy+dy)
		br := image.Pt(cx+dx, cy+dy)
		return [][2]image.Point{
			{top, left}, {top, right}, {left, near}, {right, near},
			{near, bottom}, {left, bl}, {right, br}, {bl, bottom}, {br, bottom},
		}
	}
}

func line(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(a.X, a.Y, c)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
