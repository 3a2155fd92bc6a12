package coverart

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// jpegQuality is used when transcoding. 95 keeps transcoding losses
// below what the Cover Art Archive's own derivatives introduce.
const jpegQuality = 95

// uploadableFormats are the encodings the Cover Art Archive accepts.
var uploadableFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// EnsureUploadable transcodes the image to JPEG if its format is not
// accepted by the Cover Art Archive. Streaming services increasingly
// serve WebP, which the archive rejects outright.
func EnsureUploadable(img *Image) error {
	if uploadableFormats[img.Format] {
		return nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return fmt.Errorf("transcode decode: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("transcode encode: %w", err)
	}

	img.Data = buf.Bytes()
	img.Format = "jpeg"
	img.Converted = true
	return nil
}
