package item

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ErrNotFound is returned when no item matches the requested id.
var ErrNotFound = errors.New("item not found")

// Item is a single stored resource. ID is assigned by the Store at creation
// and never changes.
type Item struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Patch carries the fields supplied by a create or update request.
// A nil field was not supplied and is left untouched.
type Patch struct {
	Name      *string `json:"name,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// UnmarshalJSON accepts any value type for the known keys. completed is
// coerced by truthiness (false, 0, "" and null are false); a non-string name
// keeps its JSON text and a null name counts as absent. A body that is valid
// JSON but not an object is an empty patch.
func (p *Patch) UnmarshalJSON(b []byte) error {
	*p = Patch{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil
		}
		return err
	}
	if raw, ok := fields["name"]; ok {
		p.Name = nameOf(raw)
	}
	if raw, ok := fields["completed"]; ok {
		v := truthy(raw)
		p.Completed = &v
	}
	return nil
}

func nameOf(raw json.RawMessage) *string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	s := string(bytes.TrimSpace(raw))
	return &s
}

func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// Empty reports whether no field was supplied.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Completed == nil
}

func (p Patch) applyTo(it *Item) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Completed != nil {
		it.Completed = *p.Completed
	}
}

// ParseID converts a path segment into an item id. Only plain decimal digits
// are accepted; anything else can never match a stored item, so it is
// reported as ErrNotFound rather than a separate validation error.
func ParseID(s string) (int, error) {
	if s == "" {
		return 0, ErrNotFound
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrNotFound
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrNotFound
	}
	return id, nil
}

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool { return &b }
