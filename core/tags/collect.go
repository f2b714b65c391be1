package tags

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ankit-chaubey/photo-manifest/core"
)

var errEmptySource = errors.New("source yielded no tags")

// Collect runs the adapters in priority order and merges their output: a
// later adapter only fills names that are still absent. The raw-block
// re-parse only runs when the embedded EXIF directory contributed nothing.
// Every adapter that yields nothing is reported as SourceUnavailable.
func Collect(src *core.Source, cfg core.Config) (core.RawTagMap, []core.Issue) {
	merged := core.RawTagMap{}
	var issues []core.Issue

	apply := func(a Adapter) int {
		got := a.Probe(src, cfg)
		if len(got) == 0 {
			issues = append(issues, core.Issue{
				Field: a.Name(),
				Kind:  core.SourceUnavailable,
				Err:   errEmptySource,
			})
			return 0
		}
		filled := 0
		for name, v := range got {
			if merged.Fill(name, v) {
				filled++
			}
		}
		return filled
	}

	apply(Primary{})
	if apply(EmbeddedIFD{}) == 0 && src != nil && len(src.RawExif) > 0 {
		apply(RawBlock{})
	}
	apply(IPTC{})
	return merged, issues
}

// Describe renders m for debug output, sorted by name.
func Describe(m core.RawTagMap) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, fmt.Sprintf("%s=%v", name, m[name]))
	}
	return out
}
