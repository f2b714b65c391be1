// Package resolve applies field precedence to the merged tag map and the XMP
// field set, and computes the derived metrics of a record.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/normalize"
	"github.com/ankit-chaubey/photo-manifest/core/xmpnav"
)

var errUnconvertible = errors.New("value cannot be converted")

// candidate is one possible source of an output field.
type candidate struct {
	source string
	text   func() (string, bool)
}

// resolver carries the state of one Resolve call. claimed maps a source to
// the field that consumed it; a source fills at most one field.
type resolver struct {
	raw     core.RawTagMap
	xmp     xmpnav.FieldSet
	cfg     core.Config
	claimed map[string]string
	issues  []core.Issue
}

// Resolve builds a Record from the merged raw tags and the XMP fields.
// Precedence is XMP, then EXIF, then IPTC; values that cannot be converted
// become absent and are reported as ConversionFailure issues.
func Resolve(raw core.RawTagMap, xmp xmpnav.FieldSet, cfg core.Config) (core.Record, []core.Issue) {
	r := &resolver{raw: raw, xmp: xmp, cfg: cfg, claimed: map[string]string{}}
	var rec core.Record

	rec.Title = r.pick("title", nil,
		r.fromXMP("xmp:title", xmp.Title),
		r.fromRaw("ImageDescription"),
		r.fromRaw("ObjectName"),
	)

	// A tag-sourced description never repeats the title.
	skipTitleEcho := func(source, s string) bool {
		return rec.Title != nil && *rec.Title == s && strings.HasPrefix(source, "tag:")
	}
	rec.Description = r.pick("description", skipTitleEcho,
		r.fromXMP("xmp:description", xmp.Description),
		r.userComment(),
		r.fromRaw("ImageDescription"),
		r.fromRaw("Caption"),
	)

	rec.Tags = r.tags()

	rec.Creator = r.pick("creator", nil,
		r.fromXMP("xmp:creator", xmp.Creator),
		r.fromRaw("Artist"),
		r.fromRaw("Byline"),
	)
	rec.Copyright = r.pick("copyright", nil,
		r.fromXMP("xmp:rights", xmp.Rights),
		r.fromRaw("Copyright"),
		r.fromRaw("CopyrightNotice"),
	)
	rec.Notes = r.pick("notes", nil, r.fromXMP("xmp:notes", xmp.Notes))

	rec.CameraMake = r.pick("cameraMake", nil, r.fromRaw("Make"))
	rec.CameraModel = r.pick("cameraModel", nil, r.fromRaw("Model"))
	rec.LensMake = r.pick("lensMake", nil, r.fromRaw("LensMake"))
	rec.LensModel = r.pick("lensModel", nil, r.fromRaw("LensModel"))

	rec.FocalLength = r.floatField("FocalLength")
	rec.FocalLength35mm = r.intField("FocalLengthIn35mmFilm")
	rec.Aperture = r.floatField("FNumber")
	rec.ISO = r.intField("ISOSpeedRatings")
	rec.ExposureTime = r.floatField("ExposureTime")
	rec.DateTaken = r.date("DateTimeOriginal", "DateTimeDigitized", "DateTime")

	if v, ok := raw["Flash"]; ok {
		if fired, ok := FlashFired(v); ok {
			rec.Flash = &fired
		} else {
			r.fail("flash", v)
		}
	}
	// Derived values use the untruncated equivalent, so 23.9 stays ultra-wide.
	if eq35, ok := normalize.ToFloat(raw["FocalLengthIn35mmFilm"]); ok {
		cat := FocalCategory(eq35)
		rec.FocalLengthCategory = &cat
		if rec.FocalLength != nil {
			if cf, ok := CropFactor(eq35, *rec.FocalLength); ok {
				rec.CropFactor = &cf
			}
		}
	}
	return rec, r.issues
}

// pick returns the first candidate with text whose source is unclaimed, and
// claims that source for field. skip rejects otherwise valid text.
func (r *resolver) pick(field string, skip func(source, text string) bool, cands ...candidate) *string {
	for _, c := range cands {
		if _, taken := r.claimed[c.source]; taken {
			continue
		}
		s, ok := c.text()
		if !ok || (skip != nil && skip(c.source, s)) {
			continue
		}
		r.claimed[c.source] = field
		return &s
	}
	return nil
}

func (r *resolver) fromXMP(source string, v *string) candidate {
	return candidate{source: source, text: func() (string, bool) {
		if v == nil {
			return "", false
		}
		s := normalize.CleanString(*v)
		return s, s != ""
	}}
}

func (r *resolver) fromRaw(name string) candidate {
	return candidate{source: "tag:" + name, text: func() (string, bool) {
		v, ok := r.raw[name]
		if !ok {
			return "", false
		}
		return normalize.ToString(v)
	}}
}

// userComment strips the character-code header when the value is still
// in its undecoded form.
func (r *resolver) userComment() candidate {
	return candidate{source: "tag:UserComment", text: func() (string, bool) {
		v, ok := r.raw["UserComment"]
		if !ok {
			return "", false
		}
		if s, ok := v.(string); ok {
			s = normalize.CleanString(s)
			return s, s != ""
		}
		b, ok := normalize.Bytes(v)
		if !ok {
			return "", false
		}
		s := normalize.DecodeUserComment(b)
		return s, s != ""
	}}
}

func (r *resolver) tags() []string {
	if len(r.xmp.Subject) > 0 {
		return FilterTags(r.xmp.Subject, r.cfg)
	}
	v, ok := r.raw["XPKeywords"]
	if !ok {
		return nil
	}
	var kws []string
	switch x := v.(type) {
	case string:
		kws = normalize.SplitKeywords(x)
	default:
		b, ok := normalize.Bytes(v)
		if !ok {
			r.fail("tags", v)
			return nil
		}
		kws = normalize.DecodeXPKeywords(b)
	}
	return FilterTags(kws, r.cfg)
}

func (r *resolver) floatField(name string) *float64 {
	v, ok := r.raw[name]
	if !ok {
		return nil
	}
	f, ok := normalize.ToFloat(v)
	if !ok {
		r.fail(name, v)
		return nil
	}
	return &f
}

func (r *resolver) intField(name string) *int {
	v, ok := r.raw[name]
	if !ok {
		return nil
	}
	n, ok := normalize.ToInt(v)
	if !ok {
		r.fail(name, v)
		return nil
	}
	return &n
}

func (r *resolver) date(names ...string) *core.Timestamp {
	for _, name := range names {
		v, ok := r.raw[name]
		if !ok {
			continue
		}
		if t, ok := normalize.ParseDateTime(v); ok {
			return &core.Timestamp{Time: t}
		}
		r.fail(name, v)
	}
	return nil
}

func (r *resolver) fail(field string, v any) {
	r.issues = append(r.issues, core.Issue{
		Field: field,
		Kind:  core.ConversionFailure,
		Err:   fmt.Errorf("%w: %T %v", errUnconvertible, v, v),
	})
}
