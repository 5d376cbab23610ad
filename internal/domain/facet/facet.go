// Package facet defines the filterable entity kinds of the catalog.
package facet

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/facetdex/internal/domain"
)

// Backing is the name of a search index type that physically stores entities.
type Backing string

// Backing index types known to the catalog.
const (
	BackingInstitutions Backing = "institutions"
	BackingInstruments  Backing = "instruments"
	BackingGroups       Backing = "groups"
	BackingProposals    Backing = "proposals"
	BackingUsers        Backing = "users"
	BackingTransactions Backing = "transactions"
	BackingFiles        Backing = "files"
)

var backings = map[Backing]struct{}{
	BackingInstitutions: {},
	BackingInstruments:  {},
	BackingGroups:       {},
	BackingProposals:    {},
	BackingUsers:        {},
	BackingTransactions: {},
	BackingFiles:        {},
}

// IsKnown reports whether b is one of the fixed backing types.
func (b Backing) IsKnown() bool {
	_, ok := backings[b]
	return ok
}

// Type is a facet dimension a filter can constrain.
type Type int

// Facet types. The zero value is deliberately invalid.
const (
	Institution Type = iota + 1
	Instrument
	InstrumentType
	Proposal
	User
)

// TextKey is the wire key of the free-text component of a filter.
const TextKey = "text"

// InstrumentTypeCategory is the group category that marks a group as an instrument type.
const InstrumentTypeCategory = "instrument_type"

type descriptor struct {
	machineName string
	displayName string
	backing     Backing
	// sortFields order catalog pages; keyword subfields of the display fields.
	sortFields []string
}

var descriptors = map[Type]descriptor{
	Institution: {
		machineName: "institution", displayName: "Institution", backing: BackingInstitutions,
		sortFields: []string{"name.keyword"},
	},
	Instrument: {
		machineName: "instrument", displayName: "Instrument", backing: BackingInstruments,
		sortFields: []string{"name_short.keyword", "name.keyword"},
	},
	InstrumentType: {
		machineName: "instrument_type", displayName: "Instrument Type", backing: BackingGroups,
		sortFields: []string{"name.keyword"},
	},
	Proposal: {
		machineName: "proposal", displayName: "Proposal", backing: BackingProposals,
		sortFields: []string{"title.keyword"},
	},
	User: {
		machineName: "user", displayName: "User", backing: BackingUsers,
		sortFields: []string{"first_name.keyword", "last_name.keyword"},
	},
}

// All returns every facet type in a stable order.
func All() []Type {
	return []Type{Institution, Instrument, InstrumentType, Proposal, User}
}

// Parse resolves a machine name to its facet type.
func Parse(machineName string) (Type, error) {
	for t, d := range descriptors {
		if d.machineName == machineName {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrInvalidFacetType, machineName)
}

// IsValid reports whether t is a known facet type.
func (t Type) IsValid() bool {
	_, ok := descriptors[t]
	return ok
}

// MachineName is the stable wire and map key of the facet type.
func (t Type) MachineName() string { return descriptors[t].machineName }

// DisplayName is the human readable facet name.
func (t Type) DisplayName() string { return descriptors[t].displayName }

// Backing is the index type holding the facet's entities.
func (t Type) Backing() Backing { return descriptors[t].backing }

// SortFields are the index fields catalog pages of the type are ordered by.
func (t Type) SortFields() []string { return slices.Clone(descriptors[t].sortFields) }

func (t Type) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("facet(%d)", int(t))
	}
	return t.MachineName()
}
