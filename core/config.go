package core

import (
	"sort"
	"strings"
)

// defaultExcludedTags are editor and format artifacts that end up in keyword
// lists without describing the picture.
var defaultExcludedTags = []string{
	"darktable",
	"darktable|exported",
	"darktable|changed",
	"darktable|format|jpg",
	"darktable|format|avif",
	"darktable|format|webp",
	"darktable|format|raf",
	"darktable|format|dng",
	"darktable|format|nef",
	"darktable|format|cr2",
	"darktable|format|cr3",
	"darktable|format|arw",
	"lightroom",
	"photoshop",
	"gimp",
	"rawtherapee",
	"exported",
	"changed",
	"raw",
	"jpg",
	"jpeg",
	"png",
	"webp",
	"avif",
	"heic",
	"tiff",
}

// defaultSynonyms maps re-parsed raw EXIF labels onto canonical tag names.
var defaultSynonyms = map[string]string{
	"Image ImageDescription":     "ImageDescription",
	"Image Make":                 "Make",
	"Image Model":                "Model",
	"Image DateTime":             "DateTime",
	"Image Artist":               "Artist",
	"Image Copyright":            "Copyright",
	"Image XPKeywords":           "XPKeywords",
	"EXIF ExposureTime":          "ExposureTime",
	"EXIF FNumber":               "FNumber",
	"EXIF ISOSpeedRatings":       "ISOSpeedRatings",
	"EXIF DateTimeOriginal":      "DateTimeOriginal",
	"EXIF DateTimeDigitized":     "DateTimeDigitized",
	"EXIF Flash":                 "Flash",
	"EXIF FocalLength":           "FocalLength",
	"EXIF UserComment":           "UserComment",
	"EXIF FocalLengthIn35mmFilm": "FocalLengthIn35mmFilm",
	"EXIF LensMake":              "LensMake",
	"EXIF LensModel":             "LensModel",
}

// Config carries the read-only tables the pipeline consults. Build one with
// NewConfig or DefaultConfig; the zero value excludes nothing and knows no
// synonyms.
type Config struct {
	excluded map[string]struct{}
	synonyms map[string]string
}

// NewConfig copies its inputs, so later changes by the caller do not leak
// into a running pipeline.
func NewConfig(excluded []string, synonyms map[string]string) Config {
	c := Config{
		excluded: make(map[string]struct{}, len(excluded)),
		synonyms: make(map[string]string, len(synonyms)),
	}
	for _, tag := range excluded {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			c.excluded[tag] = struct{}{}
		}
	}
	for label, name := range synonyms {
		c.synonyms[label] = name
	}
	return c
}

// DefaultConfig returns the built-in exclusion set and synonym table.
func DefaultConfig() Config {
	return NewConfig(defaultExcludedTags, defaultSynonyms)
}

// WithExcluded returns a copy of c with extra exclusions added.
func (c Config) WithExcluded(extra ...string) Config {
	return NewConfig(append(c.ExcludedTags(), extra...), c.synonyms)
}

// Excluded reports whether tag is in the exclusion set. The match is exact
// and case-insensitive.
func (c Config) Excluded(tag string) bool {
	_, ok := c.excluded[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Synonym returns the canonical tag name for a re-parsed label.
func (c Config) Synonym(label string) (string, bool) {
	name, ok := c.synonyms[label]
	return name, ok
}

// ExcludedTags lists the exclusion set in sorted order.
func (c Config) ExcludedTags() []string {
	tags := make([]string, 0, len(c.excluded))
	for tag := range c.excluded {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
