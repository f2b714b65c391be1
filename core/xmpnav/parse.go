package xmpnav

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyPacket is returned by Parse for a packet without any element.
var ErrEmptyPacket = errors.New("xmp packet has no elements")

// element is the intermediate form of one XML element while parsing.
type element struct {
	name     string
	attrs    map[string]any
	children map[string]any
	text     strings.Builder
}

func (e *element) addChild(name string, v any) {
	if e.children == nil {
		e.children = make(map[string]any)
	}
	prev, ok := e.children[name]
	if !ok {
		e.children[name] = v
		return
	}
	if list, ok := prev.([]any); ok {
		e.children[name] = append(list, v)
		return
	}
	e.children[name] = []any{prev, v}
}

// value collapses the element: a leaf without attributes becomes its text,
// anything else becomes a map keyed by local name.
func (e *element) value() any {
	text := strings.TrimSpace(e.text.String())
	if len(e.attrs) == 0 && len(e.children) == 0 {
		return text
	}
	m := make(map[string]any, len(e.attrs)+len(e.children)+1)
	for k, v := range e.attrs {
		m[k] = v
	}
	for k, v := range e.children {
		m[k] = v
	}
	if text != "" {
		m["text"] = text
	}
	return m
}

// Parse decodes an XMP packet into the nested tree that Normalize consumes:
// {"xmpmeta": {"RDF": {"Description": ...}}}. Element and attribute names are
// reduced to their local part, xml:lang becomes "lang", repeated elements
// become []any, and mixed text lands under "text". Namespace declarations and
// the xpacket processing instructions are dropped.
func Parse(packet []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(packet))
	dec.Strict = false

	root := &element{}
	stack := []*element{root}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmp parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				if el.attrs == nil {
					el.attrs = make(map[string]any)
				}
				el.attrs[a.Name.Local] = a.Value
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) < 2 {
				return nil, fmt.Errorf("xmp parse: unbalanced </%s>", t.Name.Local)
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].addChild(el.name, el.value())
		case xml.CharData:
			stack[len(stack)-1].text.Write(t)
		}
	}
	if len(root.children) == 0 {
		return nil, ErrEmptyPacket
	}
	return root.children, nil
}
