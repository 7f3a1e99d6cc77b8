package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinyakov/valentine/internal/card"
	"github.com/atinyakov/valentine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func sampleView(image *string) card.View {
	return card.Display(models.Greeting{
		ID: "abc", Sender: "A", Receiver: "B", Message: "hello there", Theme: "red", Image: image,
	})
}

func TestRender_Scale(t *testing.T) {
	r := NewRenderer()
	v := sampleView(nil)

	one, err := r.Render(v, 1)
	require.NoError(t, err)
	two, err := r.Render(v, 2)
	require.NoError(t, err)

	assert.Equal(t, CardWidth+2*Margin, one.Bounds().Dx())
	assert.Equal(t, one.Bounds().Dx()*2, two.Bounds().Dx())
	assert.Equal(t, one.Bounds().Dy()*2, two.Bounds().Dy())
}

func TestRender_BackgroundStartsAtFirstStop(t *testing.T) {
	v := sampleView(nil)
	img, err := NewRenderer().Render(v, 1)
	require.NoError(t, err)

	want := card.ParseHex(v.Theme.Gradient[0])
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(want.R), r>>8)
	assert.Equal(t, uint32(want.G), g>>8)
	assert.Equal(t, uint32(want.B), b>>8)
}

func TestRender_PhotoMakesCardTaller(t *testing.T) {
	uri := "data:image/png;base64," + pixelPNG
	r := NewRenderer()

	plain, err := r.Render(sampleView(nil), 1)
	require.NoError(t, err)
	withPhoto, err := r.Render(sampleView(&uri), 1)
	require.NoError(t, err)

	assert.Equal(t, plain.Bounds().Dy()+photoHeight+24, withPhoto.Bounds().Dy())
}

func TestRender_BrokenPhotoIsSkipped(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))
	r := NewRenderer()

	plain, err := r.Render(sampleView(nil), 1)
	require.NoError(t, err)
	broken, err := r.Render(sampleView(&uri), 1)
	require.NoError(t, err)
	assert.Equal(t, plain.Bounds(), broken.Bounds())
}

func TestRender_OversizedPhotoIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 64, 64))))
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	r := NewRenderer()
	plain, err := r.Render(sampleView(nil), 1)
	require.NoError(t, err)
	fits, err := r.Render(sampleView(&uri), 1)
	require.NoError(t, err)
	assert.Equal(t, plain.Bounds().Dy()+photoHeight+24, fits.Bounds().Dy())

	small := NewRenderer()
	small.maxPixels = 32 * 32
	skipped, err := small.Render(sampleView(&uri), 1)
	require.NoError(t, err)
	assert.Equal(t, plain.Bounds(), skipped.Bounds())
}

func TestRender_LongMessageGrows(t *testing.T) {
	r := NewRenderer()
	short, err := r.Render(sampleView(nil), 1)
	require.NoError(t, err)

	v := sampleView(nil)
	v.Message = strings.Repeat("love ", 100)
	long, err := r.Render(v, 1)
	require.NoError(t, err)
	assert.Greater(t, long.Bounds().Dy(), short.Bounds().Dy())
}

func TestRender_BadScale(t *testing.T) {
	_, err := NewRenderer().Render(sampleView(nil), 0)
	assert.ErrorIs(t, err, ErrBadScale)
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().WritePNG(&buf, sampleView(nil), 2))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, (CardWidth+2*Margin)*2, img.Bounds().Dx())
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{"fits", "a b c", 10, []string{"a b c"}},
		{"breaks on space", "aaa bbb ccc", 7, []string{"aaa bbb", "ccc"}},
		{"hard break", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"newlines kept", "a\nb", 10, []string{"a", "b"}},
		{"multibyte", "ééé ééé", 3, []string{"ééé", "ééé"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrap(tt.in, tt.width))
		})
	}
}

func TestFileExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e := NewFileExporter(dir, nil)

	path, err := e.Export(context.Background(), sampleView(nil), 2, "../valentine-A-to-B.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "valentine-A-to-B.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFileExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileExporter(t.TempDir(), nil).Export(ctx, sampleView(nil), 2, "x.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileExporter_RenderFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	_, err := NewFileExporter(dir, nil).Export(context.Background(), sampleView(nil), 0, "x.png")
	require.ErrorIs(t, err, ErrBadScale)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
