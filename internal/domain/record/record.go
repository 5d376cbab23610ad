// Package record holds the typed documents of each backing index type.
// Identifiers come from the hit `_id`, never from the source document.
package record

import (
	"fmt"
	"strings"
)

// Institution is a document of the institutions index.
type Institution struct {
	ID    int64   `json:"-"`
	Name  string  `json:"name"`
	Users []int64 `json:"users"`
}

// SetID assigns the hit identifier.
func (r *Institution) SetID(id int64) { r.ID = id }

// DisplayName returns the option label.
func (r Institution) DisplayName() string { return r.Name }

// Instrument is a document of the instruments index.
type Instrument struct {
	ID        int64  `json:"-"`
	Name      string `json:"name"`
	NameShort string `json:"name_short"`
}

// SetID assigns the hit identifier.
func (r *Instrument) SetID(id int64) { r.ID = id }

// DisplayName returns the option label.
func (r Instrument) DisplayName() string {
	switch {
	case r.NameShort != "" && r.Name != "":
		return r.NameShort + ": " + r.Name
	case r.Name != "":
		return r.Name
	default:
		return r.NameShort
	}
}

// Group is a document of the groups index. Groups whose category is
// facet.InstrumentTypeCategory are instrument types.
type Group struct {
	ID          int64   `json:"-"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Instruments []int64 `json:"instruments"`
}

// SetID assigns the hit identifier.
func (r *Group) SetID(id int64) { r.ID = id }

// DisplayName returns the option label.
func (r Group) DisplayName() string { return r.Name }

// Proposal is a document of the proposals index.
type Proposal struct {
	ID    int64  `json:"-"`
	Title string `json:"title"`
}

// SetID assigns the hit identifier.
func (r *Proposal) SetID(id int64) { r.ID = id }

// DisplayName returns the option label.
func (r Proposal) DisplayName() string {
	if r.Title == "" {
		return fmt.Sprintf("Proposal %d", r.ID)
	}
	return fmt.Sprintf("%d: %s", r.ID, r.Title)
}

// User is a document of the users index.
type User struct {
	ID        int64  `json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// SetID assigns the hit identifier.
func (r *User) SetID(id int64) { r.ID = id }

// DisplayName returns the option label.
func (r User) DisplayName() string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		return r.Email
	}
	return name
}

// Transaction is a document of the transactions index.
type Transaction struct {
	ID         int64  `json:"-"`
	Instrument int64  `json:"instrument"`
	Proposal   int64  `json:"proposal"`
	Submitter  int64  `json:"submitter"`
	Created    string `json:"created"`
	FileCount  int    `json:"file_count"`
}

// SetID assigns the hit identifier.
func (r *Transaction) SetID(id int64) { r.ID = id }

// File is a document of the files index.
type File struct {
	ID          int64  `json:"-"`
	Transaction int64  `json:"transaction"`
	Subdir      string `json:"subdir"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Mtime       string `json:"mtime"`
	Hashsum     string `json:"hashsum"`
}

// SetID assigns the hit identifier.
func (r *File) SetID(id int64) { r.ID = id }

// TransactionPage is one page of transactions, most recent first.
type TransactionPage struct {
	Transactions []Transaction
	PageNumber   int
	PageSize     int
	TotalCount   int
}
