// Package filter holds the user's faceted selection.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/idset"
)

// Filter is an immutable snapshot of free text plus selected ids per facet type.
// Every facet type is always present, possibly with no ids.
type Filter struct {
	text       string
	selections map[facet.Type][]int64
}

// New validates and creates a Filter. selections must hold exactly the known facet types.
func New(text string, selections map[facet.Type][]int64) (Filter, error) {
	for t := range selections {
		if !t.IsValid() {
			return Filter{}, domain.NewUnexpectedKey(t.String())
		}
	}
	sel := make(map[facet.Type][]int64, len(selections))
	for _, t := range facet.All() {
		ids, ok := selections[t]
		if !ok {
			return Filter{}, domain.NewMissingKey(t.MachineName())
		}
		sel[t] = idset.Dedupe(ids)
	}
	return Filter{text: text, selections: sel}, nil
}

// Empty returns a filter with no text and no selections.
func Empty() Filter {
	sel := make(map[facet.Type][]int64, len(facet.All()))
	for _, t := range facet.All() {
		sel[t] = []int64{}
	}
	return Filter{selections: sel}
}

// Text returns the free-text term.
func (f Filter) Text() string { return f.text }

// IDs returns a copy of the ids selected for t.
func (f Filter) IDs(t facet.Type) []int64 {
	return slices.Clone(f.selections[t])
}

// WithIDs returns a copy of f whose selection for t is ids.
func (f Filter) WithIDs(t facet.Type, ids []int64) (Filter, error) {
	if !t.IsValid() {
		return Filter{}, fmt.Errorf("%w: %s", domain.ErrInvalidFacetType, t)
	}
	sel := f.copySelections()
	sel[t] = idset.Dedupe(ids)
	return Filter{text: f.text, selections: sel}, nil
}

// WithText returns a copy of f with a different text term.
func (f Filter) WithText(text string) Filter {
	return Filter{text: text, selections: f.copySelections()}
}

// IsEmpty reports whether the filter constrains nothing.
func (f Filter) IsEmpty() bool {
	if f.text != "" {
		return false
	}
	for _, ids := range f.selections {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// Constrained returns the facet types with a non-empty selection, in facet.All order.
func (f Filter) Constrained() []facet.Type {
	var out []facet.Type
	for _, t := range facet.All() {
		if len(f.selections[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Equal reports whether both filters hold the same text and the same id sets.
func (f Filter) Equal(g Filter) bool {
	if f.text != g.text {
		return false
	}
	for _, t := range facet.All() {
		if !slices.Equal(idset.Sorted(f.selections[t]), idset.Sorted(g.selections[t])) {
			return false
		}
	}
	return true
}

func (f Filter) copySelections() map[facet.Type][]int64 {
	sel := make(map[facet.Type][]int64, len(facet.All()))
	for _, t := range facet.All() {
		sel[t] = slices.Clone(f.selections[t])
		if sel[t] == nil {
			sel[t] = []int64{}
		}
	}
	return sel
}

// Parse decodes the wire form: one array of ids per facet machine name plus "text".
func Parse(data []byte) (Filter, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Filter{}, fmt.Errorf("%w: empty payload", domain.ErrMalformedFilter)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Filter{}, fmt.Errorf("%w: %w", domain.ErrMalformedFilter, err)
	}
	if raw == nil {
		return Filter{}, fmt.Errorf("%w: payload is not an object", domain.ErrMalformedFilter)
	}

	known := map[string]facet.Type{}
	for _, t := range facet.All() {
		known[t.MachineName()] = t
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := known[k]; !ok && k != facet.TextKey {
			return Filter{}, domain.NewUnexpectedKey(k)
		}
	}

	textRaw, ok := raw[facet.TextKey]
	if !ok {
		return Filter{}, domain.NewMissingKey(facet.TextKey)
	}
	var text string
	if err := json.Unmarshal(textRaw, &text); err != nil {
		return Filter{}, fmt.Errorf("%w: text must be a string", domain.ErrMalformedFilter)
	}

	sel := make(map[facet.Type][]int64, len(known))
	for _, t := range facet.All() {
		idsRaw, ok := raw[t.MachineName()]
		if !ok {
			return Filter{}, domain.NewMissingKey(t.MachineName())
		}
		var ids []wireID
		if err := json.Unmarshal(idsRaw, &ids); err != nil {
			return Filter{}, fmt.Errorf("%w: %s: %w", domain.ErrMalformedFilter, t.MachineName(), err)
		}
		out := make([]int64, len(ids))
		for i, id := range ids {
			out[i] = int64(id)
		}
		sel[t] = out
	}

	return New(text, sel)
}

// MarshalJSON encodes the wire form read by Parse.
func (f Filter) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(facet.All())+1)
	for _, t := range facet.All() {
		ids := f.selections[t]
		if ids == nil {
			ids = []int64{}
		}
		out[t.MachineName()] = ids
	}
	out[facet.TextKey] = f.text
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire form so a Filter can sit inside request bodies.
func (f *Filter) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// wireID accepts integer ids sent either as JSON numbers or numeric strings.
type wireID int64

func (w *wireID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*w = wireID(v)
	return nil
}
