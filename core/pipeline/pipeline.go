// Package pipeline runs the full extraction for one decoded image.
package pipeline

import (
	"github.com/hashicorp/go-multierror"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/resolve"
	"github.com/ankit-chaubey/photo-manifest/core/tags"
	"github.com/ankit-chaubey/photo-manifest/core/xmpnav"
)

// Result is the record of one image plus every field-level issue met while
// building it.
type Result struct {
	Record core.Record
	Raw    core.RawTagMap
	Issues []core.Issue
}

// Err folds the issues into one error for logging. It is nil when nothing
// degraded.
func (r Result) Err() error {
	var merr *multierror.Error
	for _, is := range r.Issues {
		merr = multierror.Append(merr, is)
	}
	return merr.ErrorOrNil()
}

// Degraded returns only the issues that cost a field a value, leaving out
// sources that were simply not present.
func (r Result) Degraded() []core.Issue {
	var out []core.Issue
	for _, is := range r.Issues {
		if is.Kind != core.SourceUnavailable {
			out = append(out, is)
		}
	}
	return out
}

// Extract turns a Source into a Record. It never fails: missing sources,
// odd XMP shapes and unconvertible values all degrade to absent fields.
func Extract(src *core.Source, cfg core.Config) Result {
	raw, issues := tags.Collect(src, cfg)

	var xmpTree any
	if src != nil {
		xmpTree = src.XMP
	}
	fields, xmpIssues := xmpnav.Navigate(xmpnav.Normalize(xmpTree))
	if xmpTree == nil {
		issues = append(issues, core.Issue{Field: "xmp", Kind: core.SourceUnavailable})
	}
	issues = append(issues, xmpIssues...)

	rec, resolveIssues := resolve.Resolve(raw, fields, cfg)
	issues = append(issues, resolveIssues...)

	return Result{Record: rec, Raw: raw, Issues: issues}
}
