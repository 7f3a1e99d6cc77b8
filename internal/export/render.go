// Package export rasterizes display cards into PNG images.
package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/atinyakov/valentine/internal/card"
	"github.com/atinyakov/valentine/internal/service"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

// Card geometry in unscaled pixels.
const (
	CardWidth   = 448
	Margin      = 24
	padding     = 32
	photoHeight = 256
	boxPadding  = 16
	lineGap     = 6
)

// Footer is printed at the bottom of every card.
const Footer = "Dibuat dengan <3 untukmu"

// ErrBadScale is returned for a scale below 1.
var ErrBadScale = errors.New("export scale must be at least 1")

var muted = color.NRGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}

// Renderer draws cards with a fixed bitmap face.
type Renderer struct {
	face      font.Face
	maxPixels int
}

// NewRenderer returns a Renderer using the 7x13 basic font.
func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13, maxPixels: service.MaxImagePixels}
}

type textOp struct {
	s        string
	baseline int
	col      color.Color
}

type layout struct {
	size  image.Point
	card  image.Rectangle
	photo image.Rectangle
	box   image.Rectangle
	text  []textOp
}

func (r *Renderer) layout(v card.View, hasPhoto bool) layout {
	var l layout
	lineH := r.face.Metrics().Height.Ceil()
	ascent := r.face.Metrics().Ascent.Ceil()
	left := Margin + padding
	right := Margin + CardWidth - padding

	y := Margin + padding
	if hasPhoto {
		l.photo = image.Rect(left, y, right, y+photoHeight)
		y += photoHeight + 24
	}

	accent := card.ParseHex(v.Theme.Accent)
	text := card.ParseHex(v.Theme.Text)
	line := func(s string, col color.Color, after int) {
		l.text = append(l.text, textOp{s: s, baseline: y + ascent, col: col})
		y += lineH + after
	}

	line(card.Title, accent, 8)
	line(card.DateLine, muted, 24)
	line("DARI", muted, 4)
	line(v.Sender, text, 12)
	line("<3", accent, 12)
	line("UNTUK", muted, 4)
	line(v.Receiver, text, 24)

	boxTop := y
	y += boxPadding
	maxChars := (right - left - 2*boxPadding) / r.advance()
	for _, s := range wrap(v.Message, maxChars) {
		line(s, text, lineGap)
	}
	y += boxPadding - lineGap
	l.box = image.Rect(left, boxTop, right, y)
	y += 24

	line(Footer, muted, 0)

	l.card = image.Rect(Margin, Margin, Margin+CardWidth, y+padding)
	l.size = image.Pt(CardWidth+2*Margin, l.card.Max.Y+Margin)
	return l
}

func (r *Renderer) advance() int {
	a, ok := r.face.GlyphAdvance('m')
	if !ok || a.Ceil() <= 0 {
		return 7
	}
	return a.Ceil()
}

// Render draws v at the given scale. A photo that cannot be decoded, or
// whose header declares more pixels than the renderer allows, is left out.
func (r *Renderer) Render(v card.View, scale int) (*image.RGBA, error) {
	if scale < 1 {
		return nil, ErrBadScale
	}
	photo := r.decodePhoto(v.Image)
	l := r.layout(v, photo != nil)

	base := image.NewRGBA(image.Rectangle{Max: l.size})
	bg := newGradient(v.Theme.Gradient, base.Bounds())
	draw.Draw(base, base.Bounds(), bg, image.Point{}, draw.Src)
	draw.Draw(base, l.card, image.NewUniform(card.ParseHex(v.Theme.CardBg)), image.Point{}, draw.Over)
	strokeRect(base, l.card, 2, card.ParseHex(v.Theme.Border))
	draw.DrawMask(base, l.box, bg, l.box.Min, image.NewUniform(color.Alpha{A: 0x4d}), image.Point{}, draw.Over)

	for _, op := range l.text {
		d := font.Drawer{Dst: base, Src: image.NewUniform(op.col), Face: r.face}
		w := d.MeasureString(op.s).Ceil()
		d.Dot = fixed.P((l.size.X-w)/2, op.baseline)
		d.DrawString(op.s)
	}

	out := base
	if scale > 1 {
		out = image.NewRGBA(image.Rect(0, 0, l.size.X*scale, l.size.Y*scale))
		xdraw.NearestNeighbor.Scale(out, out.Bounds(), base, base.Bounds(), xdraw.Src, nil)
	}
	if photo != nil {
		dst := image.Rect(l.photo.Min.X*scale, l.photo.Min.Y*scale, l.photo.Max.X*scale, l.photo.Max.Y*scale)
		xdraw.CatmullRom.Scale(out, dst, photo, cover(photo.Bounds(), dst.Size()), xdraw.Src, nil)
		tint := newGradient(v.Theme.Gradient, dst)
		draw.DrawMask(out, dst, tint, dst.Min, image.NewUniform(color.Alpha{A: 0x33}), image.Point{}, draw.Over)
	}
	return out, nil
}

// WritePNG renders v and encodes it to w.
func (r *Renderer) WritePNG(w io.Writer, v card.View, scale int) error {
	img, err := r.Render(v, scale)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func (r *Renderer) decodePhoto(uri *string) image.Image {
	if uri == nil || *uri == "" {
		return nil
	}
	_, data, err := service.DecodeDataURI(*uri)
	if err != nil {
		return nil
	}
	// Only the header is read here.
	if !service.PixelsWithin(data, r.maxPixels) {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return img
}

// cover returns the centered part of src with the aspect ratio of size.
func cover(src image.Rectangle, size image.Point) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 || size.X == 0 || size.Y == 0 {
		return src
	}
	if sw*size.Y > sh*size.X {
		w := sh * size.X / size.Y
		x := src.Min.X + (sw-w)/2
		return image.Rect(x, src.Min.Y, x+w, src.Max.Y)
	}
	h := sw * size.Y / size.X
	if h < 1 {
		h = 1
	}
	y := src.Min.Y + (sh-h)/2
	return image.Rect(src.Min.X, y, src.Max.X, y+h)
}

func strokeRect(dst draw.Image, r image.Rectangle, width int, c color.Color) {
	u := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), u, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), u, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y+width, r.Min.X+width, r.Max.Y-width), u, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Max.X-width, r.Min.Y+width, r.Max.X, r.Max.Y-width), u, image.Point{}, draw.Over)
}

// wrap breaks s into lines of at most width runes, splitting on spaces and
// hard-breaking longer words.
func wrap(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var cur []rune
		for _, word := range strings.Fields(para) {
			w := []rune(word)
			for len(w) > width {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(w[:width]))
				w = w[width:]
			}
			switch {
			case len(cur) == 0:
				cur = w
			case len(cur)+1+len(w) <= width:
				cur = append(append(cur, ' '), w...)
			default:
				lines = append(lines, string(cur))
				cur = w
			}
		}
		lines = append(lines, string(cur))
	}
	return lines
}
