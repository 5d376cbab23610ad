package filter

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
)

const emptyWire = `{"institution":[],"instrument":[],"instrument_type":[],"proposal":[],"user":[],"text":""}`

func mustFilter(t *testing.T, text string, sel map[facet.Type][]int64) Filter {
	t.Helper()
	full := map[facet.Type][]int64{}
	for _, ft := range facet.All() {
		full[ft] = nil
	}
	for k, v := range sel {
		full[k] = v
	}
	f, err := New(text, full)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse([]byte(emptyWire))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsEmpty() {
		t.Error("expected empty filter")
	}
}

func TestParse_WithSelections(t *testing.T) {
	payload := `{"institution":[],"instrument":[3,"4"],"instrument_type":[7],"proposal":[],"user":[1,2,1],"text":"alpha"}`
	f, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Text() != "alpha" {
		t.Errorf("text = %q, want alpha", f.Text())
	}
	if got := f.IDs(facet.Instrument); !slices.Equal(got, []int64{3, 4}) {
		t.Errorf("instrument ids = %v, want [3 4]", got)
	}
	if got := f.IDs(facet.User); !slices.Equal(got, []int64{1, 2}) {
		t.Errorf("user ids = %v, want deduped [1 2]", got)
	}
	if f.IsEmpty() {
		t.Error("filter should not be empty")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"empty payload", "", domain.ErrMalformedFilter},
		{"whitespace", "   ", domain.ErrMalformedFilter},
		{"not json", "{oops", domain.ErrMalformedFilter},
		{"null", "null", domain.ErrMalformedFilter},
		{"array", "[]", domain.ErrMalformedFilter},
		{"text not string", `{"institution":[],"instrument":[],"instrument_type":[],"proposal":[],"user":[],"text":5}`, domain.ErrMalformedFilter},
		{"ids not array", `{"institution":1,"instrument":[],"instrument_type":[],"proposal":[],"user":[],"text":""}`, domain.ErrMalformedFilter},
		{"id not integer", `{"institution":["x"],"instrument":[],"instrument_type":[],"proposal":[],"user":[],"text":""}`, domain.ErrMalformedFilter},
		{"unexpected key", `{"institution":[],"instrument":[],"instrument_type":[],"proposal":[],"user":[],"text":"","group":[]}`, domain.ErrUnexpectedKey},
		{"missing facet", `{"institution":[],"instrument":[],"instrument_type":[],"proposal":[],"text":""}`, domain.ErrMissingKey},
		{"missing text", `{"institution":[],"instrument":[],"instrument_type":[],"proposal":[],"user":[]}`, domain.ErrMissingKey},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.payload))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParse_KeyErrorCarriesKey(t *testing.T) {
	_, err := Parse([]byte(`{"institution":[],"instrument":[],"instrument_type":[],"proposal":[],"text":""}`))
	var ke *domain.KeyError
	if !errors.As(err, &ke) {
		t.Fatalf("expected KeyError, got %T", err)
	}
	if ke.Key != "user" {
		t.Errorf("key = %q, want user", ke.Key)
	}
}

func TestRoundTrip(t *testing.T) {
	filters := []Filter{
		Empty(),
		mustFilter(t, "alpha", nil),
		mustFilter(t, "", map[facet.Type][]int64{facet.User: {1, 2}, facet.InstrumentType: {7}}),
		mustFilter(t, "beta gamma", map[facet.Type][]int64{
			facet.Institution: {10}, facet.Instrument: {5, 6}, facet.Proposal: {1234},
		}),
	}
	for _, f := range filters {
		data, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		back, err := Parse(data)
		if err != nil {
			t.Fatalf("Parse(%s): %v", data, err)
		}
		if !back.Equal(f) {
			t.Errorf("round trip mismatch: %s", data)
		}
	}
}

func TestMarshal_EmptyFilterWireForm(t *testing.T) {
	data, err := json.Marshal(Empty())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got, want map[string]any
	_ = json.Unmarshal(data, &got)
	_ = json.Unmarshal([]byte(emptyWire), &want)
	if len(got) != len(want) {
		t.Fatalf("keys = %d, want %d (%s)", len(got), len(want), data)
	}
	for k := range want {
		if _, ok := got[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
}

func TestNew_KeySet(t *testing.T) {
	_, err := New("", map[facet.Type][]int64{facet.User: nil})
	if !errors.Is(err, domain.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}

	sel := map[facet.Type][]int64{facet.Type(99): nil}
	for _, ft := range facet.All() {
		sel[ft] = nil
	}
	_, err = New("", sel)
	if !errors.Is(err, domain.ErrUnexpectedKey) {
		t.Fatalf("expected ErrUnexpectedKey, got %v", err)
	}
}

func TestWithIDs_IsImmutable(t *testing.T) {
	f := Empty()
	g, err := f.WithIDs(facet.User, []int64{4})
	if err != nil {
		t.Fatalf("WithIDs: %v", err)
	}
	if len(f.IDs(facet.User)) != 0 {
		t.Error("original filter mutated")
	}
	if !slices.Equal(g.IDs(facet.User), []int64{4}) {
		t.Errorf("ids = %v, want [4]", g.IDs(facet.User))
	}

	ids := g.IDs(facet.User)
	ids[0] = 99
	if g.IDs(facet.User)[0] != 4 {
		t.Error("IDs must return a copy")
	}

	if _, err := f.WithIDs(facet.Type(0), nil); !errors.Is(err, domain.ErrInvalidFacetType) {
		t.Errorf("expected ErrInvalidFacetType, got %v", err)
	}
}

func TestConstrained(t *testing.T) {
	f := mustFilter(t, "x", map[facet.Type][]int64{facet.User: {1}, facet.Institution: {2}})
	got := f.Constrained()
	if !slices.Equal(got, []facet.Type{facet.Institution, facet.User}) {
		t.Errorf("Constrained = %v", got)
	}
	if f.WithText("").IsEmpty() {
		t.Error("selections remain after clearing text")
	}
}

func TestUnmarshalJSON_InsideStruct(t *testing.T) {
	var body struct {
		Filter Filter `json:"filter"`
	}
	payload := `{"filter":{"institution":[],"instrument":[],"instrument_type":[],"proposal":[9],"user":[],"text":""}}`
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !slices.Equal(body.Filter.IDs(facet.Proposal), []int64{9}) {
		t.Errorf("proposal ids = %v", body.Filter.IDs(facet.Proposal))
	}
}
