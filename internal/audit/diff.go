// Package audit computes field-level diffs between two JSON images of
// a record.  The same function produces the payload recorded next to
// an AuditRecord's images at write time and reconstructs a
// human-readable change list from stored images at read time, so the
// two can never disagree.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Value is one side of a field change.  Present distinguishes a field
// that is missing from an image from a field whose value is JSON
// null: a missing field has Present=false and nil Raw, while an
// explicit null has Present=true and Raw equal to "null".
type Value struct {
	Present bool            `json:"present"`
	Raw     json.RawMessage `json:"value,omitempty"`
}

// FieldChange pairs the old and new values of a single field whose
// canonical serialization differs between the two images.
type FieldChange struct {
	Old Value `json:"old"`
	New Value `json:"new"`
}

// Changes maps field names to their before/after values.  An empty
// map means the two images are identical field by field.
type Changes map[string]FieldChange

// Fields returns the changed field names in sorted order for
// deterministic presentation.
func (c Changes) Fields() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Diff compares two record images and returns the fields whose values
// differ.  Either argument may be a struct, a map, or raw JSON bytes
// ([]byte / json.RawMessage); nil stands for an absent image, as in
// the pre-image of a create or the post-image of a delete.  Equality
// is structural: both sides are reduced to a canonical serialization
// (objects with sorted keys) before comparison, so images produced by
// different writers compare equal when they mean the same thing.
func Diff(pre, post any) (Changes, error) {
	oldFields, err := imageFields(pre)
	if err != nil {
		return nil, fmt.Errorf("audit: pre-image: %w", err)
	}
	newFields, err := imageFields(post)
	if err != nil {
		return nil, fmt.Errorf("audit: post-image: %w", err)
	}

	changes := make(Changes)
	for name, oldRaw := range oldFields {
		newRaw, ok := newFields[name]
		if !ok {
			changes[name] = FieldChange{
				Old: Value{Present: true, Raw: oldRaw},
				New: Value{},
			}
			continue
		}
		if !bytes.Equal(oldRaw, newRaw) {
			changes[name] = FieldChange{
				Old: Value{Present: true, Raw: oldRaw},
				New: Value{Present: true, Raw: newRaw},
			}
		}
	}
	for name, newRaw := range newFields {
		if _, ok := oldFields[name]; !ok {
			changes[name] = FieldChange{
				Old: Value{},
				New: Value{Present: true, Raw: newRaw},
			}
		}
	}
	return changes, nil
}

// imageFields reduces an image to its canonicalised top-level fields.
// A nil image yields an empty field set.
func imageFields(image any) (map[string]json.RawMessage, error) {
	if image == nil {
		return map[string]json.RawMessage{}, nil
	}
	var data []byte
	switch v := image.(type) {
	case json.RawMessage:
		if v == nil {
			return map[string]json.RawMessage{}, nil
		}
		data = v
	case []byte:
		if v == nil {
			return map[string]json.RawMessage{}, nil
		}
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("image is not a JSON object: %w", err)
	}
	out := make(map[string]json.RawMessage, len(fields))
	for name, raw := range fields {
		canon, err := canonicalize(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = canon
	}
	return out, nil
}

// canonicalize round-trips a JSON value through interface{} so that
// object keys come out sorted and insignificant whitespace is
// dropped.  encoding/json marshals map keys in sorted order, which is
// what makes the byte comparison in Diff structural rather than
// textual.
func canonicalize(raw json.RawMessage) (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
