package facetdex

// FacetType names a filter dimension by its machine name.
type FacetType string

// Facet types.
const (
	FacetInstitution    FacetType = "institution"
	FacetInstrument     FacetType = "instrument"
	FacetInstrumentType FacetType = "instrument_type"
	FacetProposal       FacetType = "proposal"
	FacetUser           FacetType = "user"
)

// Filter is a faceted search selection. Missing facet types select nothing.
type Filter struct {
	Text string
	IDs  map[FacetType][]int64
}

// Entry is one selectable option of a facet.
type Entry struct {
	ID               int64
	DisplayName      string
	TransactionCount int
}

// Page is one page of facet options.
type Page struct {
	Entries    []Entry
	PageNumber int
	PageSize   int
	TotalCount int
	HasMore    bool
}

// Result is a full filter resolution.
type Result struct {
	TransactionCount int
	Pages            map[FacetType]Page
	// TransactionIDs is empty when the filter selects nothing.
	TransactionIDs []int64
}

// Transaction is an upload with its related entity ids.
type Transaction struct {
	ID         int64
	Instrument int64
	Proposal   int64
	Submitter  int64
	Created    string
	FileCount  int
}

// TransactionPage is one page of matching transactions, most recent first.
type TransactionPage struct {
	Transactions []Transaction
	PageNumber   int
	PageSize     int
	TotalCount   int
	HasMore      bool
}

// File is one file of a transaction.
type File struct {
	ID      int64
	Subdir  string
	Name    string
	Size    int64
	Mtime   string
	Hashsum string
}
