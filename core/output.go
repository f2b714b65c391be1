package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Printer handles all display output for the CLI.
type Printer struct {
	JSON    bool
	Verbose bool
	Writer  io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode, verbose bool) *Printer {
	return &Printer{JSON: jsonMode, Verbose: verbose, Writer: os.Stdout}
}

type printedField struct {
	Category string
	Key      string
	Value    string
}

// PrintRecord renders one Record to the configured output.
func (p *Printer) PrintRecord(path string, format FormatID, rec Record, issues []Issue) {
	if p.JSON {
		p.printJSON(path, format, rec, issues)
		return
	}
	p.printText(path, format, rec, issues)
}

func (p *Printer) printText(path string, format FormatID, rec Record, issues []Issue) {
	fmt.Fprintf(p.Writer, "File  : %s\n", path)
	fmt.Fprintf(p.Writer, "Format: %s\n", format)

	fields := recordFields(rec)
	if len(fields) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
	} else {
		fmt.Fprintln(p.Writer)
	}

	// Group by category
	groups := make(map[string][]printedField)
	order := []string{}
	for _, f := range fields {
		if _, seen := groups[f.Category]; !seen {
			order = append(order, f.Category)
		}
		groups[f.Category] = append(groups[f.Category], f)
	}

	for _, cat := range order {
		fmt.Fprintf(p.Writer, "── %s ──\n", cat)
		for _, f := range groups[cat] {
			fmt.Fprintf(p.Writer, "  %-24s %s\n", f.Key+":", f.Value)
		}
		fmt.Fprintln(p.Writer)
	}

	if p.Verbose && len(issues) > 0 {
		fmt.Fprintln(p.Writer, "── Issues ──")
		for _, is := range issues {
			fmt.Fprintf(p.Writer, "  %s\n", is.Error())
		}
		fmt.Fprintln(p.Writer)
	}
}

func (p *Printer) printJSON(path string, format FormatID, rec Record, issues []Issue) {
	type jsonOutput struct {
		FilePath string   `json:"file"`
		Format   FormatID `json:"format"`
		Record   Record   `json:"record"`
		Issues   []string `json:"issues,omitempty"`
	}

	out := jsonOutput{FilePath: path, Format: format, Record: rec}
	if p.Verbose {
		for _, is := range issues {
			out.Issues = append(out.Issues, is.Error())
		}
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

func recordFields(rec Record) []printedField {
	var out []printedField
	addStr := func(cat, key string, v *string) {
		if v != nil {
			out = append(out, printedField{cat, key, *v})
		}
	}
	addFloat := func(cat, key string, v *float64) {
		if v != nil {
			out = append(out, printedField{cat, key, strconv.FormatFloat(*v, 'f', -1, 64)})
		}
	}
	addInt := func(cat, key string, v *int) {
		if v != nil {
			out = append(out, printedField{cat, key, strconv.Itoa(*v)})
		}
	}

	addStr("Text", "Title", rec.Title)
	addStr("Text", "Description", rec.Description)
	if len(rec.Tags) > 0 {
		out = append(out, printedField{"Text", "Tags", strings.Join(rec.Tags, ", ")})
	}
	addStr("Text", "Creator", rec.Creator)
	addStr("Text", "Copyright", rec.Copyright)
	addStr("Text", "Notes", rec.Notes)

	addStr("Camera", "Camera Make", rec.CameraMake)
	addStr("Camera", "Camera Model", rec.CameraModel)
	addStr("Camera", "Lens Make", rec.LensMake)
	addStr("Camera", "Lens Model", rec.LensModel)
	if rec.DateTaken != nil {
		out = append(out, printedField{"Camera", "Date Taken", rec.DateTaken.String()})
	}

	addFloat("Exposure", "Focal Length", rec.FocalLength)
	addInt("Exposure", "Focal Length (35mm)", rec.FocalLength35mm)
	addStr("Exposure", "Focal Category", rec.FocalLengthCategory)
	addFloat("Exposure", "Crop Factor", rec.CropFactor)
	addFloat("Exposure", "Aperture", rec.Aperture)
	addInt("Exposure", "ISO", rec.ISO)
	addFloat("Exposure", "Exposure Time", rec.ExposureTime)
	if rec.Flash != nil {
		out = append(out, printedField{"Exposure", "Flash Fired", strconv.FormatBool(*rec.Flash)})
	}
	return out
}

// PrintRawTags lists the merged raw tags, one "name=value" per line. Only
// verbose text output shows them.
func (p *Printer) PrintRawTags(lines []string) {
	if p.JSON || !p.Verbose || len(lines) == 0 {
		return
	}
	fmt.Fprintln(p.Writer, "── Raw Tags ──")
	for _, l := range lines {
		fmt.Fprintf(p.Writer, "  %s\n", l)
	}
	fmt.Fprintln(p.Writer)
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Writer, "✓ "+msg)
}

// PrintInfo prints an info line (suppressed in JSON mode).
func (p *Printer) PrintInfo(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}
