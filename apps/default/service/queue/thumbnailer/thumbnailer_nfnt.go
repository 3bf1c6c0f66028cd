// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package thumbnailer

import (
	"bytes"
	"context"
	"image"
	"image/draw"

	// Imported for gif codec
	_ "image/gif"
	"image/jpeg"

	// Imported for png codec
	_ "image/png"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/config"
	"github.com/antinvestor/service-slatedrop/apps/default/service/keys"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/nfnt/resize"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
	// Imported for webp codec
	_ "golang.org/x/image/webp"
)

// ContentType is the type of every generated preview.
const ContentType = "image/jpeg"

// ErrUndecodable marks a source object that is not an image we can read.
var ErrUndecodable = errors.New("source is not a decodable image")

// Generate reads the image at sourceKey, scales it to fit size and stores the
// JPEG preview next to it. It returns the preview key.
func Generate(
	ctx context.Context,
	provider storage.Provider,
	sourceKey string,
	size config.ThumbnailSize,
	crop bool,
) (string, error) {
	logger := util.Log(ctx).WithField("object_key", sourceKey).
		WithField("width", size.Width).
		WithField("height", size.Height)

	img, err := readImage(ctx, provider, sourceKey)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out := adjustSize(img, size.Width, size.Height, crop)

	buf := &bytes.Buffer{}
	err = jpeg.Encode(buf, out, &jpeg.Options{Quality: 85})
	if err != nil {
		return "", errors.Wrap(err, "could not encode preview")
	}

	previewKey := keys.ThumbnailKey(sourceKey)
	err = provider.Put(ctx, previewKey, buf.Bytes(), ContentType)
	if err != nil {
		return "", err
	}

	logger.WithField("actual_width", out.Bounds().Dx()).
		WithField("actual_height", out.Bounds().Dy()).
		WithField("process_time", time.Since(start).String()).
		Info("generated thumbnail")
	return previewKey, nil
}

func readImage(ctx context.Context, provider storage.Provider, key string) (image.Image, error) {
	reader, err := provider.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer util.CloseAndLogOnError(ctx, reader)

	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, errors.Wrapf(ErrUndecodable, "%s: %v", key, err)
	}
	return img, nil
}

// adjustSize scales an image to fit within the provided width and height.
// Images already inside the bounds are returned unscaled.
// If crop is set the image is scaled to fill the bounds and the excess is cut off.
func adjustSize(img image.Image, w, h int, crop bool) image.Image {
	if !crop || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return resize.Thumbnail(uint(w), uint(h), img, resize.Lanczos3)
	}

	inAR := float64(img.Bounds().Dx()) / float64(img.Bounds().Dy())
	outAR := float64(w) / float64(h)

	var scaleW, scaleH uint
	if inAR > outAR {
		// wider than requested: match height
		scaleW = uint(float64(h) * inAR)
		scaleH = uint(h)
	} else {
		scaleW = uint(w)
		scaleH = uint(float64(w) / inAR)
	}

	scaled := resize.Resize(scaleW, scaleH, img, resize.Lanczos3)

	xoff := (scaled.Bounds().Dx() - w) / 2
	yoff := (scaled.Bounds().Dy() - h) / 2

	tr := image.Rect(0, 0, w, h)
	target := image.NewRGBA(tr)
	draw.Draw(target, tr, scaled, image.Pt(xoff, yoff), draw.Src)
	return target
}
