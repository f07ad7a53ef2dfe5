package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/storage"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 120, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeAnimatedGIF(t *testing.T) []byte {
	t.Helper()
	anim := &gif.GIF{}
	for i := range 2 {
		frame := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
		frame.SetColorIndex(i, i, uint8(i+1))
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, anim))
	return buf.Bytes()
}

func fixedNamer() Namer {
	return Namer{
		Now:   func() time.Time { return time.UnixMilli(1700000000000) },
		Token: func() string { return "abc123" },
	}
}

func TestProfileFor(t *testing.T) {
	works := ProfileFor(BucketWorks)
	assert.Equal(t, 1500, works.MaxWidth)
	assert.Equal(t, 90, works.Quality)

	insp := ProfileFor(BucketInspirations)
	assert.Equal(t, 1000, insp.MaxWidth)
	assert.Equal(t, 80, insp.Quality)

	other := ProfileFor("avatars")
	assert.Equal(t, DefaultProfile(), other)
	assert.Equal(t, int64(5*MiB), other.MaxSize)
	assert.True(t, other.Allows("image/webp"))
	assert.False(t, other.Allows("image/svg+xml"))
}

func TestGenerateName(t *testing.T) {
	n := fixedNamer()

	tests := []struct {
		name   string
		title  string
		bucket string
		want   string
	}{
		{"title", "Sunset, Vol. 2", BucketWorks, "sunset-vol-2-1700000000000-abc123.jpg"},
		{"accents", "Árbol en otoño", BucketInspirations, "arbol-en-otono-1700000000000-abc123.jpg"},
		{"empty work title", "", BucketWorks, "obra-1700000000000-abc123.jpg"},
		{"symbols only", "¡¡!!", BucketInspirations, "inspiracion-1700000000000-abc123.jpg"},
		{"other bucket", "", "misc", "imagen-1700000000000-abc123.jpg"},
		{"truncated", "Una obra con un título larguísimo que no cabe", BucketWorks, "una-obra-con-un-titulo-larguis-1700000000000-abc123.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Name(tt.title, tt.bucket))
		})
	}
}

func TestGenerateName_Bounded(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z0-9-]{1,30}-\d{13}-[0-9a-z]{6}\.jpg$`)

	for _, title := range []string{"", "x", strings.Repeat("palabra ", 40), "Ñandú — 1999"} {
		name := GenerateName(title, BucketWorks)
		assert.Regexp(t, pattern, name)
		assert.LessOrEqual(t, len(name), 30+1+13+1+6+4)
		assert.True(t, strings.HasSuffix(name, "."+ProfileFor(BucketWorks).Ext))
	}
}

func TestCompress(t *testing.T) {
	t.Run("scales wide images to the profile width", func(t *testing.T) {
		out, err := Compress(File{Name: "a.png", ContentType: "image/png", Data: encodePNG(t, 2000, 1000)}, ProfileFor(BucketWorks))
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", out.ContentType)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
		require.NoError(t, err)
		assert.Equal(t, 1500, cfg.Width)
		assert.Equal(t, 750, cfg.Height)
	})

	t.Run("never upscales", func(t *testing.T) {
		out, err := Compress(File{ContentType: "image/png", Data: encodePNG(t, 300, 200)}, ProfileFor(BucketWorks))
		require.NoError(t, err)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
		require.NoError(t, err)
		assert.Equal(t, 300, cfg.Width)
	})

	t.Run("transparency becomes white", func(t *testing.T) {
		for _, width := range []int{100, 3000} {
			var buf bytes.Buffer
			require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, width, 40))))

			out, err := Compress(File{ContentType: "image/png", Data: buf.Bytes()}, ProfileFor(BucketWorks))
			require.NoError(t, err)

			img, err := jpeg.Decode(bytes.NewReader(out.Data))
			require.NoError(t, err)
			r, g, b, _ := img.At(img.Bounds().Dx()/2, img.Bounds().Dy()/2).RGBA()
			assert.Greater(t, r>>8, uint32(245), "width %d", width)
			assert.Greater(t, g>>8, uint32(245), "width %d", width)
			assert.Greater(t, b>>8, uint32(245), "width %d", width)
		}
	})

	t.Run("animated gif bypass", func(t *testing.T) {
		data := encodeAnimatedGIF(t)
		out, err := Compress(File{ContentType: "image/gif", Data: data}, DefaultProfile())
		require.NoError(t, err)
		assert.Equal(t, data, out.Data)
	})

	t.Run("undecodable data", func(t *testing.T) {
		_, err := Compress(File{ContentType: "image/png", Data: []byte("nope")}, DefaultProfile())
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})
}

func TestComputeBlurHash(t *testing.T) {
	hash, err := ComputeBlurHash(encodePNG(t, 400, 300))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	_, err = ComputeBlurHash([]byte("nope"))
	assert.Error(t, err)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", DetectContentType(encodePNG(t, 2, 2)))
	assert.Equal(t, "image/gif", DetectContentType(encodeAnimatedGIF(t)))
	assert.Equal(t, "text/plain", DetectContentType([]byte("hello")))
}

func newTestPipeline() (*Pipeline, *storage.Memory) {
	mem := storage.NewMemory("https://cdn.example.com")
	return NewPipeline(mem, nil, logger.Discard()).WithNamer(fixedNamer()), mem
}

func TestPipeline_UploadDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()

	res, err := p.Upload(ctx, NewFile("foto.png", encodePNG(t, 2000, 1000)), UploadOptions{Bucket: BucketWorks, Title: "Nocturno"})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/obras-imagenes/nocturno-1700000000000-abc123.jpg", res.URL)
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.NotEmpty(t, res.BlurHash)

	obj, ok := mem.Get(BucketWorks, res.Key)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", obj.ContentType)

	require.NoError(t, p.Delete(ctx, res.URL, BucketWorks))
	assert.Empty(t, mem.Keys(BucketWorks))
}

func TestPipeline_UploadKeepsGIF(t *testing.T) {
	p, mem := newTestPipeline()
	data := encodeAnimatedGIF(t)

	res, err := p.Upload(context.Background(), NewFile("anim.gif", data), UploadOptions{Bucket: BucketInspirations})
	require.NoError(t, err)

	assert.Equal(t, "inspiracion-1700000000000-abc123.gif", res.Key)
	obj, ok := mem.Get(BucketInspirations, res.Key)
	require.True(t, ok)
	assert.Equal(t, data, obj.Data)
}

func TestPipeline_UploadRejects(t *testing.T) {
	pngHeader := []byte("\x89PNG\r\n\x1a\n")

	tests := []struct {
		name string
		file File
	}{
		{name: "empty", file: File{ContentType: "image/png"}},
		{name: "not an image", file: NewFile("a.txt", []byte("hello world"))},
		{name: "svg", file: File{ContentType: "image/svg+xml", Data: []byte("<svg/>")}},
		{name: "too large", file: File{ContentType: "image/png", Data: append(pngHeader, make([]byte, 5*MiB)...)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, mem := newTestPipeline()
			_, err := p.Upload(context.Background(), tt.file, UploadOptions{Bucket: BucketWorks})
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Empty(t, mem.Keys(BucketWorks))
		})
	}
}

func TestPipeline_DeleteEmptyURL(t *testing.T) {
	p, _ := newTestPipeline()
	assert.NoError(t, p.Delete(context.Background(), "", BucketWorks))
}
