package images

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

// Compress decodes f, scales it down to the profile's max width keeping the
// aspect ratio, and re-encodes it as JPEG at the profile's quality. Images
// already narrow enough are only re-encoded. Animated GIFs are returned
// unchanged.
func Compress(f File, p Profile) (File, error) {
	if f.IsGIF() && isAnimated(f.Data) {
		return f, nil
	}

	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return File{}, domainerrors.Validationf("cannot decode image %q: %v", f.Name, err)
	}

	img = flatten(img, p.MaxWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return File{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return File{
		Name:        f.Name,
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}

// flatten draws img onto an opaque white canvas, scaled down to maxWidth
// when wider. JPEG has no alpha channel.
func flatten(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = max(h*maxWidth/w, 1)
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	}
	return dst
}

func isAnimated(data []byte) bool {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	return err == nil && len(g.Image) > 1
}
