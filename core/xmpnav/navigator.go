package xmpnav

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ankit-chaubey/photo-manifest/core"
)

// FieldSet holds the descriptive XMP fields, already unwrapped from their
// container shapes. Nil means absent.
type FieldSet struct {
	Title       *string
	Description *string
	Subject     []string
	Creator     *string
	Rights      *string
	Notes       *string
}

// Empty reports whether no field was found.
func (f FieldSet) Empty() bool {
	return f.Title == nil && f.Description == nil && len(f.Subject) == 0 &&
		f.Creator == nil && f.Rights == nil && f.Notes == nil
}

var errNoDescription = errors.New("no rdf:Description block")

// Navigate walks xmpmeta -> RDF -> Description and fills a FieldSet. Every
// Description block is scanned and the first block that yields a field wins
// it. Nodes that are present but match no expected shape are reported as
// ShapeMismatch issues when the field stays absent.
func Navigate(root Node) (FieldSet, []core.Issue) {
	var (
		fs         FieldSet
		mismatched = map[string]Node{}
	)
	if _, ok := root.(Absent); ok || root == nil {
		return fs, nil
	}

	descs := descriptions(root)
	if len(descs) == 0 {
		return fs, []core.Issue{{Field: "xmp", Kind: core.ShapeMismatch, Err: errNoDescription}}
	}

	text := func(dst **string, field string, fn func(Node) (string, bool)) {
		for _, d := range descs {
			if *dst != nil {
				return
			}
			n, ok := d.Fields[field]
			if !ok {
				continue
			}
			if v, ok := fn(n); ok {
				*dst = &v
				delete(mismatched, field)
				continue
			}
			if _, seen := mismatched[field]; !seen && misshapen(n) {
				mismatched[field] = n
			}
		}
	}

	text(&fs.Title, "title", langAlt)
	text(&fs.Description, "description", langAlt)
	text(&fs.Creator, "creator", simple)
	text(&fs.Rights, "rights", langAlt)
	text(&fs.Notes, "notes", langAlt)

	for _, d := range descs {
		n, ok := d.Fields["subject"]
		if !ok {
			continue
		}
		if list, ok := listField(n); ok {
			fs.Subject = list
			delete(mismatched, "subject")
			break
		}
		if _, seen := mismatched["subject"]; !seen && misshapen(n) {
			mismatched["subject"] = n
		}
	}

	var issues []core.Issue
	for _, field := range []string{"title", "description", "subject", "creator", "rights", "notes"} {
		if n, ok := mismatched[field]; ok {
			issues = append(issues, core.Issue{
				Field: "xmp:" + field,
				Kind:  core.ShapeMismatch,
				Err:   fmt.Errorf("unexpected %T node", n),
			})
		}
	}
	return fs, issues
}

// child follows one hop, descending into the first element of a container
// on the way.
func child(n Node, name string) (Node, bool) {
	if members, ok := items(n); ok {
		if len(members) == 0 {
			return nil, false
		}
		n = members[0]
	}
	s, ok := n.(Struct)
	if !ok {
		return nil, false
	}
	c, ok := s.Fields[name]
	return c, ok
}

// descriptions finds every rdf:Description block. The root may be the whole
// document, the RDF element, or a Description itself.
func descriptions(root Node) []Struct {
	n := root
	for _, hop := range []string{"xmpmeta", "RDF"} {
		if c, ok := child(n, hop); ok {
			n = c
		}
	}

	d, ok := child(n, "Description")
	if !ok {
		if s, ok := n.(Struct); ok && looksLikeDescription(s) {
			return []Struct{s}
		}
		return nil
	}

	if s, ok := d.(Struct); ok {
		return []Struct{s}
	}
	var out []Struct
	members, _ := items(d)
	for _, m := range members {
		if s, ok := m.(Struct); ok {
			out = append(out, s)
		}
	}
	return out
}

func looksLikeDescription(s Struct) bool {
	for _, f := range []string{"title", "description", "subject", "creator", "rights", "notes"} {
		if _, ok := s.Fields[f]; ok {
			return true
		}
	}
	return false
}

// misshapen reports whether n is a node no field reader understands, as
// opposed to a well-formed but empty value.
func misshapen(n Node) bool {
	switch n.(type) {
	case Scalar:
		return false
	case Struct, Absent:
		return true
	}
	members, ok := items(n)
	if !ok {
		return true
	}
	for _, m := range members {
		if _, ok := m.(Scalar); !ok {
			return true
		}
	}
	return false
}

// scalarText returns the cleaned text of a Scalar.
func scalarText(n Node) (string, bool) {
	s, ok := n.(Scalar)
	if !ok {
		return "", false
	}
	t := strings.TrimSpace(strings.ReplaceAll(s.Text, "\x00", ""))
	return t, t != ""
}

// langAlt resolves a language alternative: the x-default entry wins
// regardless of its position, then the first entry with text. A plain
// scalar is accepted as is.
func langAlt(n Node) (string, bool) {
	if t, ok := scalarText(n); ok {
		return t, true
	}
	members, ok := items(n)
	if !ok {
		return "", false
	}
	for _, m := range members {
		if s, ok := m.(Scalar); ok && s.Lang == "x-default" {
			if t, ok := scalarText(s); ok {
				return t, true
			}
		}
	}
	for _, m := range members {
		if t, ok := scalarText(m); ok {
			return t, true
		}
	}
	return "", false
}

// simple resolves a single-valued field: a scalar, or the first element of
// any container.
func simple(n Node) (string, bool) {
	if t, ok := scalarText(n); ok {
		return t, true
	}
	members, ok := items(n)
	if !ok || len(members) == 0 {
		return "", false
	}
	return scalarText(members[0])
}

// listField resolves a list field: a container or bare list of scalars, or a
// single scalar as a one-item list. Empty strings are dropped.
func listField(n Node) ([]string, bool) {
	if t, ok := scalarText(n); ok {
		return []string{t}, true
	}
	members, ok := items(n)
	if !ok {
		return nil, false
	}
	var out []string
	for _, m := range members {
		if t, ok := scalarText(m); ok {
			out = append(out, t)
		}
	}
	return out, len(out) > 0
}
