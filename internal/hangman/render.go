package hangman

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	gallowsSize   = 240
	captionHeight = 48
)

// 틀린 횟수만큼 순서대로 그린다: 머리, 몸통, 왼팔, 오른팔, 왼다리, 오른다리
var figureParts = []string{
	`<circle cx="150" cy="70" r="18" fill="none" stroke="#c0392b" stroke-width="5"/>`,
	`<path d="M150 88 L150 148" fill="none" stroke="#c0392b" stroke-width="5"/>`,
	`<path d="M150 104 L124 128" fill="none" stroke="#c0392b" stroke-width="5"/>`,
	`<path d="M150 104 L176 128" fill="none" stroke="#c0392b" stroke-width="5"/>`,
	`<path d="M150 148 L128 184" fill="none" stroke="#c0392b" stroke-width="5"/>`,
	`<path d="M150 148 L172 184" fill="none" stroke="#c0392b" stroke-width="5"/>`,
}

// GallowsRenderer draws the gallows for a session as PNG.
type GallowsRenderer struct {
	background color.Color
	ink        color.Color
}

func NewGallowsRenderer() *GallowsRenderer {
	return &GallowsRenderer{
		background: color.RGBA{R: 0xfa, G: 0xf7, B: 0xf0, A: 0xff},
		ink:        color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff},
	}
}

func (r *GallowsRenderer) svg(wrong int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, gallowsSize, gallowsSize, gallowsSize, gallowsSize)
	b.WriteString(`<path d="M30 220 L200 220" fill="none" stroke="#2c3e50" stroke-width="6"/>`)
	b.WriteString(`<path d="M70 220 L70 20 L150 20 L150 52" fill="none" stroke="#2c3e50" stroke-width="6"/>`)
	b.WriteString(`<path d="M70 60 L108 20" fill="none" stroke="#2c3e50" stroke-width="4"/>`)
	if wrong > len(figureParts) {
		wrong = len(figureParts)
	}
	for i := 0; i < wrong; i++ {
		b.WriteString(figureParts[i])
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// RenderPNG rasterizes the gallows and writes the masked word and lives under it.
func (r *GallowsRenderer) RenderPNG(ctx context.Context, s *Session) ([]byte, error) {
	if s == nil {
		return nil, ErrNoActiveGame
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(r.svg(s.WrongCount())))
	if err != nil {
		return nil, fmt.Errorf("parse gallows svg: %w", err)
	}

	w, h := gallowsSize, gallowsSize+captionHeight
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: r.background}, image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(gallowsSize), float64(gallowsSize))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(r.ink), Face: face}
	r.drawCentered(d, s.Masked(), gallowsSize+18)
	r.drawCentered(d, fmt.Sprintf("lives %d/%d", max(s.Lives, 0), InitialLives), gallowsSize+38)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *GallowsRenderer) drawCentered(d *font.Drawer, text string, baseline int) {
	width := d.MeasureString(text).Round()
	x := (gallowsSize - width) / 2
	if x < 4 {
		x = 4
	}
	d.Dot = fixed.P(x, baseline)
	d.DrawString(text)
}
