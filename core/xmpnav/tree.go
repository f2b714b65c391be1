// Package xmpnav reads the descriptive fields out of an XMP document.
//
// XMP arrives as a loosely shaped tree of maps, lists and strings. Normalize
// folds that tree into a closed set of node variants once, so the navigator
// only ever matches on Scalar, List, Bag, Seq, Alt and Struct.
package xmpnav

import (
	"fmt"
	"sort"
	"strings"
)

// Node is one value of a normalized XMP tree.
type Node interface {
	node()
}

// Absent marks a missing value.
type Absent struct{}

// Scalar is a text value with its optional xml:lang.
type Scalar struct {
	Text string
	Lang string
}

// List is an unqualified repetition, such as repeated elements or a bare
// rdf:li sequence.
type List struct{ Items []Node }

// Bag is an rdf:Bag container.
type Bag struct{ Items []Node }

// Seq is an rdf:Seq container.
type Seq struct{ Items []Node }

// Alt is an rdf:Alt container, normally a language alternative.
type Alt struct{ Items []Node }

// Struct is a set of named properties keyed by local name.
type Struct struct{ Fields map[string]Node }

func (Absent) node() {}
func (Scalar) node() {}
func (List) node()   {}
func (Bag) node()    {}
func (Seq) node()    {}
func (Alt) node()    {}
func (Struct) node() {}

// items returns the members of any container variant.
func items(n Node) ([]Node, bool) {
	switch x := n.(type) {
	case List:
		return x.Items, true
	case Bag:
		return x.Items, true
	case Seq:
		return x.Items, true
	case Alt:
		return x.Items, true
	}
	return nil, false
}

// localName drops a namespace prefix ("dc:title" -> "title") and the
// attribute and text markers some converters add ("@xml:lang", "#text").
func localName(key string) string {
	key = strings.TrimLeft(key, "@#")
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		key = key[i+1:]
	}
	return key
}

// Normalize converts a nested map[string]any / []any / scalar tree into a
// Node. It never fails; values of unknown type become Absent.
func Normalize(tree any) Node {
	switch x := tree.(type) {
	case nil:
		return Absent{}
	case Node:
		return x
	case string:
		return Scalar{Text: x}
	case []byte:
		return Scalar{Text: string(x)}
	case bool, int, int64, float64:
		return Scalar{Text: fmt.Sprint(x)}
	case []string:
		out := make([]Node, 0, len(x))
		for _, s := range x {
			out = append(out, Scalar{Text: s})
		}
		return List{Items: out}
	case []any:
		out := make([]Node, 0, len(x))
		for _, v := range x {
			out = append(out, Normalize(v))
		}
		return List{Items: out}
	case []map[string]any:
		out := make([]Node, 0, len(x))
		for _, v := range x {
			out = append(out, Normalize(v))
		}
		return List{Items: out}
	case map[string]any:
		return normalizeMap(x)
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = v
		}
		return normalizeMap(m)
	}
	return Absent{}
}

func normalizeMap(m map[string]any) Node {
	fields := localize(m)

	for _, kind := range []string{"Bag", "Seq", "Alt"} {
		inner, ok := fields[kind]
		if !ok {
			continue
		}
		members := containerItems(inner)
		switch kind {
		case "Bag":
			return Bag{Items: members}
		case "Seq":
			return Seq{Items: members}
		default:
			return Alt{Items: members}
		}
	}

	if text, ok := fields["text"]; ok {
		if s, ok := text.(string); ok {
			lang, _ := fields["lang"].(string)
			return Scalar{Text: s, Lang: lang}
		}
	}

	if def, ok := fields["x-default"].(string); ok {
		alt := Alt{Items: []Node{Scalar{Text: def, Lang: "x-default"}}}
		for _, k := range sortedKeys(fields) {
			if s, ok := fields[k].(string); ok && k != "x-default" {
				alt.Items = append(alt.Items, Scalar{Text: s, Lang: k})
			}
		}
		return alt
	}

	if li, ok := fields["li"]; ok && len(fields) == 1 {
		return List{Items: containerItems(map[string]any{"li": li})}
	}

	s := Struct{Fields: make(map[string]Node, len(fields))}
	for k, v := range fields {
		s.Fields[k] = Normalize(v)
	}
	return s
}

// localize rekeys m by local name. On collisions the lexically first
// original key wins.
func localize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for _, k := range sortedKeys(m) {
		name := localName(k)
		if _, dup := out[name]; !dup {
			out[name] = m[k]
		}
	}
	return out
}

// containerItems unwraps the rdf:li members of a Bag/Seq/Alt body.
func containerItems(inner any) []Node {
	if m, ok := inner.(map[string]any); ok {
		fields := localize(m)
		li, ok := fields["li"]
		if !ok {
			return []Node{normalizeMap(m)}
		}
		inner = li
	}
	switch n := Normalize(inner).(type) {
	case Absent:
		return nil
	case List:
		return n.Items
	default:
		return []Node{n}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
