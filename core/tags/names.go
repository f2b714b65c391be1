// Package tags turns the tag sources of a core.Source into one RawTagMap.
package tags

// Tag IDs with special handling.
const (
	ExifIFDPointer uint16 = 0x8769
	GPSIFDPointer  uint16 = 0x8825
)

// tagNames is the fixed id -> name table for IFD0 and the EXIF sub-IFD.
var tagNames = map[uint16]string{
	0x010E: "ImageDescription",
	0x010F: "Make",
	0x0110: "Model",
	0x0132: "DateTime",
	0x013B: "Artist",
	0x8298: "Copyright",
	0x9C9E: "XPKeywords",
	0x829A: "ExposureTime",
	0x829D: "FNumber",
	0x8827: "ISOSpeedRatings",
	0x9003: "DateTimeOriginal",
	0x9004: "DateTimeDigitized",
	0x9209: "Flash",
	0x920A: "FocalLength",
	0x9286: "UserComment",
	0xA405: "FocalLengthIn35mmFilm",
	0xA433: "LensMake",
	0xA434: "LensModel",
	0x8769: "ExifIFDPointer",
}

// gpsNames covers the GPS sub-IFD, whose IDs overlap IFD0.
var gpsNames = map[uint16]string{
	0x0000: "GPSVersionID",
	0x0001: "GPSLatitudeRef",
	0x0002: "GPSLatitude",
	0x0003: "GPSLongitudeRef",
	0x0004: "GPSLongitude",
	0x0005: "GPSAltitudeRef",
	0x0006: "GPSAltitude",
	0x001D: "GPSDateStamp",
}

// Name returns the canonical name of an IFD0 or EXIF tag ID.
func Name(id uint16) (string, bool) {
	name, ok := tagNames[id]
	return name, ok
}
