package mosaic

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"geosat/internal/common"
	"geosat/internal/tiles"
)

// Options controls how the canvas is composed
type Options struct {
	// Fill paints cells with no tile bytes. Nil means opaque black.
	Fill color.Color
}

func (o Options) fill() color.Color {
	if o.Fill == nil {
		return color.RGBA{A: 0xff}
	}
	return o.Fill
}

// Stitch decodes every tile of r found in data and draws it into a canvas of
// r.WidthPx() × r.HeightPx(). Tile (x, y) lands at ((x-MinX)*256, (y-MinY)*256).
func Stitch(data map[tiles.Key][]byte, r tiles.Range, opts Options) (*image.RGBA, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, r.WidthPx(), r.HeightPx()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.fill()), image.Point{}, draw.Src)

	for key := range r.Tiles() {
		raw, ok := data[key]
		if !ok || len(raw) == 0 {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, &common.CompositeError{Zoom: key.Zoom, X: key.X, Y: key.Y, Err: err}
		}
		drawTile(canvas, cell(r, key), img)
	}
	return canvas, nil
}

// cell is the destination rectangle of key on the canvas
func cell(r tiles.Range, key tiles.Key) image.Rectangle {
	xOff := (key.X - r.MinX) * tiles.TileSize
	yOff := (key.Y - r.MinY) * tiles.TileSize
	return image.Rect(xOff, yOff, xOff+tiles.TileSize, yOff+tiles.TileSize)
}

func drawTile(canvas *image.RGBA, dst image.Rectangle, img image.Image) {
	b := img.Bounds()
	if b.Dx() == tiles.TileSize && b.Dy() == tiles.TileSize {
		draw.Draw(canvas, dst, img, b.Min, draw.Src)
		return
	}
	// 512px retina tiles and odd server sizes
	xdraw.ApproxBiLinear.Scale(canvas, dst, img, b, xdraw.Src, nil)
}
