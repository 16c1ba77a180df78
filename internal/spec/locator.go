package spec

import (
	"github.com/phillarmonic/mici/internal/errors"
	"gopkg.in/yaml.v3"
)

// Locator maps schema fields back to byte spans in the raw source. The
// typed model discards positions, so lookups walk the yaml node tree that
// was parsed alongside it.
type Locator struct {
	source string
	root   *yaml.Node
}

// NewLocator creates a locator over a parsed document node
func NewLocator(source string, doc *yaml.Node) *Locator {
	l := &Locator{source: source}
	if doc != nil && doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc != nil && doc.Kind == yaml.MappingNode {
		l.root = doc
	}
	return l
}

// Root returns a span at the start of the document
func (l *Locator) Root() errors.Span {
	return errors.Span{Offset: 0, Length: 1}
}

// Field returns the span of a top-level key
func (l *Locator) Field(name string) (errors.Span, bool) {
	return l.Nested(name)
}

// Nested returns the span of the key at the end of a dotted path such as
// inputs.<name>.type
func (l *Locator) Nested(path ...string) (errors.Span, bool) {
	node := l.root
	var key *yaml.Node
	for _, segment := range path {
		if node == nil {
			return errors.Span{}, false
		}
		key, node = lookup(node, segment)
		if key == nil {
			return errors.Span{}, false
		}
	}
	if key == nil {
		return errors.Span{}, false
	}
	return l.span(key), true
}

// Step returns the span of the Nth element under steps
func (l *Locator) Step(index int) (errors.Span, bool) {
	item := l.stepNode(index)
	if item == nil {
		return errors.Span{}, false
	}
	return l.span(item), true
}

// StepField returns the span of a key inside the Nth step, looking at the
// step itself first and then inside its run block
func (l *Locator) StepField(index int, name string) (errors.Span, bool) {
	key := l.stepKey(index, name)
	if key == nil {
		return errors.Span{}, false
	}
	return l.span(key), true
}

// HasRunField reports whether the run block of the Nth step declares the key
func (l *Locator) HasRunField(index int, name string) bool {
	item := l.stepNode(index)
	_, run := lookup(item, "run")
	key, _ := lookup(run, name)
	return key != nil
}

func (l *Locator) stepKey(index int, name string) *yaml.Node {
	item := l.stepNode(index)
	if item == nil || item.Kind != yaml.MappingNode {
		return nil
	}
	if key, _ := lookup(item, name); key != nil {
		return key
	}
	if _, run := lookup(item, "run"); run != nil && run.Kind == yaml.MappingNode {
		if key, _ := lookup(run, name); key != nil {
			return key
		}
	}
	return nil
}

func (l *Locator) stepNode(index int) *yaml.Node {
	if l.root == nil || index < 0 {
		return nil
	}
	_, steps := lookup(l.root, "steps")
	if steps == nil || steps.Kind != yaml.SequenceNode || index >= len(steps.Content) {
		return nil
	}
	return steps.Content[index]
}

func (l *Locator) span(node *yaml.Node) errors.Span {
	length := len(node.Value)
	if length == 0 {
		length = 1
	}
	return errors.Span{
		Offset: errors.OffsetOf(l.source, node.Line, node.Column),
		Length: length,
	}
}

// lookup returns the first key/value pair in a mapping node with the given key
func lookup(mapping *yaml.Node, name string) (*yaml.Node, *yaml.Node) {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == name {
			return mapping.Content[i], mapping.Content[i+1]
		}
	}
	return nil, nil
}
