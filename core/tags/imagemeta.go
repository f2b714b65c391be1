package tags

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/exif2"
	"github.com/hashicorp/go-multierror"

	"github.com/ankit-chaubey/photo-manifest/core"
)

// ExifDateLayout is the time layout of EXIF date tags.
const ExifDateLayout = "2006:01:02 15:04:05"

// reparseImagemeta reads block with imagemeta's bounded IFD reader. cause is
// why goexif was not used; it is returned alongside imagemeta's own error
// when neither decoder produced anything.
func reparseImagemeta(block []byte, cause error) (map[string]any, error) {
	ex, err := decodeImagemeta(block)
	if err != nil {
		return nil, multierror.Append(cause, err)
	}
	labels := imagemetaLabels(ex)
	if len(labels) == 0 {
		return nil, multierror.Append(cause, core.ErrNoMetadata)
	}
	return labels, nil
}

func decodeImagemeta(block []byte) (ex exif2.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic while decoding: %v", core.ErrDecode, rec)
		}
	}()
	ex, err = imagemeta.Decode(bytes.NewReader(block))
	// imagemeta reports late directory errors with the fields read so far.
	if err != nil && ex.Make == "" && ex.Model == "" && ex.DateTimeOriginal().IsZero() {
		return ex, err
	}
	return ex, nil
}

// imagemetaLabels names the typed fields of an imagemeta decode with the
// group-qualified labels Reparse uses. Zero values are left out.
func imagemetaLabels(ex exif2.Exif) map[string]any {
	labels := map[string]any{}
	text := func(label, v string) {
		if v != "" {
			labels[label] = v
		}
	}
	text("Image Make", ex.Make)
	text("Image Model", ex.Model)
	text("Image ImageDescription", ex.ImageDescription)
	text("Image Artist", ex.Artist)
	text("Image Copyright", ex.Copyright)
	text("EXIF LensMake", ex.LensMake)
	text("EXIF LensModel", ex.LensModel)

	if t := ex.DateTimeOriginal(); !t.IsZero() {
		labels["EXIF DateTimeOriginal"] = t.Format(ExifDateLayout)
	}
	if t := ex.CreateDate(); !t.IsZero() {
		labels["EXIF DateTimeDigitized"] = t.Format(ExifDateLayout)
	}
	if t := ex.ModifyDate(); !t.IsZero() {
		labels["Image DateTime"] = t.Format(ExifDateLayout)
	}

	if ex.ISO != 0 {
		labels["EXIF ISOSpeedRatings"] = int64(ex.ISO)
	}
	if ex.Flash != 0 {
		labels["EXIF Flash"] = int64(ex.Flash)
	}
	if ex.FNumber > 0 {
		labels["EXIF FNumber"] = widen(float32(ex.FNumber))
	}
	if ex.ExposureTime > 0 {
		labels["EXIF ExposureTime"] = widen(float32(ex.ExposureTime))
	}
	if ex.FocalLength > 0 {
		labels["EXIF FocalLength"] = widen(float32(ex.FocalLength))
	}
	return labels
}

// widen converts f to float64 through its shortest decimal form, so 2.8
// stays 2.8 instead of 2.799999952.
func widen(f float32) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	return v
}
