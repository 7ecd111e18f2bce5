package record

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	keyDate    = "date"
	keyDesc    = "desc"
	keyDue     = "due"
	keyTags    = "tags"
	keyStamp   = "tstamp"
	keyFinish  = "tfinish"
	keyClock   = "tclock"
	keyNote    = "note"
	keyRepeat  = "repeat"
	stampWrite = "2006-01-02 15:04:05.999999999"
)

var reserved = map[string]bool{
	keyDate: true, keyDesc: true, keyDue: true, keyTags: true, keyStamp: true,
	keyFinish: true, keyClock: true, keyNote: true, keyRepeat: true,
}

var stampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02 15:04",
}

// IsReserved reports whether key is one of the field names the core interprets.
func IsReserved(key string) bool {
	return reserved[key]
}

// ParseStamp accepts the timestamp layouts found in hand-edited and older
// log files. Timestamps without a zone are local time.
func ParseStamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func FormatStamp(t time.Time) string {
	return t.In(time.Local).Format(stampWrite)
}

// UnmarshalYAML decodes a record mapping. Unknown scalar keys land in Fields;
// every node is remembered so it can be re-emitted verbatim.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: record must be a mapping", node.Line)
	}
	kind := r.Kind
	*r = Record{Kind: kind, raw: map[string]*yaml.Node{}}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		if err := r.decodeField(key, val); err != nil {
			return fmt.Errorf("line %d: %s: %w", val.Line, key, err)
		}
		r.raw[key] = val
	}
	return nil
}

func (r *Record) decodeField(key string, val *yaml.Node) error {
	if !reserved[key] {
		if val.Kind == yaml.ScalarNode {
			if r.Fields == nil {
				r.Fields = map[string]string{}
			}
			r.Fields[key] = val.Value
		}
		return nil
	}
	if isNull(val) {
		return nil
	}
	switch key {
	case keyTags:
		switch val.Kind {
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("tag must be a scalar")
				}
				r.Tags = append(r.Tags, item.Value)
			}
		case yaml.ScalarNode:
			r.Tags = []string{val.Value}
		default:
			return fmt.Errorf("tags must be a list")
		}
		return nil
	}
	if val.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected a scalar value")
	}
	switch key {
	case keyDate, keyDue:
		d, err := ParseDate(firstWord(val.Value))
		if err != nil {
			return err
		}
		if key == keyDate {
			r.Date = d
		} else {
			r.Due = &d
		}
	case keyDesc:
		r.Desc = val.Value
	case keyNote:
		r.Note = val.Value
	case keyStamp, keyFinish:
		t, err := ParseStamp(val.Value)
		if err != nil {
			return err
		}
		if key == keyStamp {
			r.LoggedAt = &t
		} else {
			r.FinishedAt = &t
		}
	case keyClock, keyRepeat:
		n, err := strconv.Atoi(strings.TrimSpace(val.Value))
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", val.Value)
		}
		if key == keyClock {
			r.ClockMinutes = &n
		} else {
			r.RepeatDays = &n
		}
	}
	return nil
}

// MarshalYAML emits the record as a mapping with keys in lexical order.
func (r Record) MarshalYAML() (interface{}, error) {
	fields := map[string]*yaml.Node{}
	for key := range reserved {
		if n := r.encodeField(key); n != nil {
			fields[key] = r.keep(key, n)
		}
	}
	for key, value := range r.Fields {
		if reserved[key] {
			continue
		}
		if old, ok := r.raw[key]; ok && old.Kind == yaml.ScalarNode && old.Value == value {
			fields[key] = old
			continue
		}
		fields[key] = strNode(value)
	}
	for key, old := range r.raw {
		if !reserved[key] && old.Kind != yaml.ScalarNode {
			fields[key] = old
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range keys {
		out.Content = append(out.Content, strNode(k), fields[k])
	}
	return out, nil
}

func (r Record) encodeField(key string) *yaml.Node {
	switch key {
	case keyDate:
		if r.Date.IsZero() {
			return nil
		}
		return plainNode(FormatDate(r.Date))
	case keyDue:
		if r.Due == nil {
			return nil
		}
		return plainNode(FormatDate(*r.Due))
	case keyDesc:
		if r.Desc == "" {
			return nil
		}
		return strNode(r.Desc)
	case keyNote:
		if r.Note == "" {
			return nil
		}
		return strNode(r.Note)
	case keyTags:
		if len(r.Tags) == 0 {
			return nil
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, t := range r.Tags {
			seq.Content = append(seq.Content, strNode(t))
		}
		return seq
	case keyStamp:
		if r.LoggedAt == nil {
			return nil
		}
		return plainNode(FormatStamp(*r.LoggedAt))
	case keyFinish:
		if r.FinishedAt == nil {
			return nil
		}
		return plainNode(FormatStamp(*r.FinishedAt))
	case keyClock:
		if r.ClockMinutes == nil {
			return nil
		}
		return intNode(*r.ClockMinutes)
	case keyRepeat:
		if r.RepeatDays == nil {
			return nil
		}
		return intNode(*r.RepeatDays)
	}
	return nil
}

// keep returns the node read from disk when it still decodes to the value
// about to be written.
func (r Record) keep(key string, fresh *yaml.Node) *yaml.Node {
	old, ok := r.raw[key]
	if !ok {
		return fresh
	}
	var prior Record
	if err := prior.decodeField(key, old); err != nil {
		return fresh
	}
	if prev := prior.encodeField(key); prev != nil && sameNode(prev, fresh) {
		return old
	}
	return fresh
}

func sameNode(a, b *yaml.Node) bool {
	if a.Kind != b.Kind || a.Value != b.Value || len(a.Content) != len(b.Content) {
		return false
	}
	for i := range a.Content {
		if !sameNode(a.Content[i], b.Content[i]) {
			return false
		}
	}
	return true
}

func strNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func plainNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

func intNode(n int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(n)}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && (n.Tag == "!!null" || (n.Tag == "" && n.Value == ""))
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		return s[:i]
	}
	return s
}
