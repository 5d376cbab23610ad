package indextest

import "github.com/kailas-cloud/facetdex/internal/domain/facet"

// Catalog returns a Memory seeded with a small, fully related catalog under
// indices named <prefix>_<backing>:
//
//	users         1 Alice Smith, 2 Bob Jones, 3 Carol White
//	institutions  10 PNNL [1 2], 11 UW [3], 12 Empty Institute []
//	instruments   20 MS, 21 NMR, 22 TEM
//	groups        7 Spectroscopy [20 21], 8 Imaging [22] (instrument types), 9 Tag [20] (other category)
//	proposals     30 alpha study, 31 beta study, 32 gamma survey
//	transactions  100 (20 30 1) 101 (21 30 2) 102 (22 31 3) 103 (20 31 3) 104 (21 32 1)
//	files         200 201 of 100, 202 of 102
//
// Transactions 100 and 101 mention "alpha" in their description.
func Catalog(prefix string) *Memory {
	name := func(b facet.Backing) string { return prefix + "_" + string(b) }
	m := NewMemory()

	users := name(facet.BackingUsers)
	m.Add(users, 1, map[string]any{"first_name": "Alice", "last_name": "Smith", "email": "alice@example.org"})
	m.Add(users, 2, map[string]any{"first_name": "Bob", "last_name": "Jones", "email": "bob@example.org"})
	m.Add(users, 3, map[string]any{"first_name": "Carol", "last_name": "White", "email": "carol@example.org"})

	inst := name(facet.BackingInstitutions)
	m.Add(inst, 10, map[string]any{"name": "PNNL", "users": []int64{1, 2}})
	m.Add(inst, 11, map[string]any{"name": "UW", "users": []int64{3}})
	m.Add(inst, 12, map[string]any{"name": "Empty Institute", "users": []int64{}})

	instr := name(facet.BackingInstruments)
	m.Add(instr, 20, map[string]any{"name": "Mass Spectrometer", "name_short": "MS"})
	m.Add(instr, 21, map[string]any{"name": "NMR 800", "name_short": "NMR"})
	m.Add(instr, 22, map[string]any{"name": "Electron Microscope", "name_short": "TEM"})

	groups := name(facet.BackingGroups)
	m.Add(groups, 7, map[string]any{"name": "Spectroscopy", "category": facet.InstrumentTypeCategory, "instruments": []int64{20, 21}})
	m.Add(groups, 8, map[string]any{"name": "Imaging", "category": facet.InstrumentTypeCategory, "instruments": []int64{22}})
	m.Add(groups, 9, map[string]any{"name": "Tag", "category": "tag", "instruments": []int64{20}})

	props := name(facet.BackingProposals)
	m.Add(props, 30, map[string]any{"title": "alpha study"})
	m.Add(props, 31, map[string]any{"title": "beta study"})
	m.Add(props, 32, map[string]any{"title": "gamma survey"})

	txs := name(facet.BackingTransactions)
	tx := func(id, instrument, proposal, submitter int64, created, description string, files int) {
		m.Add(txs, id, map[string]any{
			"instrument": instrument, "proposal": proposal, "submitter": submitter,
			"created": created, "description": description, "file_count": files,
		})
	}
	tx(100, 20, 30, 1, "2024-01-01T00:00:00Z", "alpha run one", 2)
	tx(101, 21, 30, 2, "2024-02-01T00:00:00Z", "alpha run two", 0)
	tx(102, 22, 31, 3, "2024-03-01T00:00:00Z", "beta imaging", 1)
	tx(103, 20, 31, 3, "2024-03-01T00:00:00Z", "beta spectra", 0)
	tx(104, 21, 32, 1, "2024-04-01T00:00:00Z", "gamma scan", 0)

	files := name(facet.BackingFiles)
	m.Add(files, 200, map[string]any{"transaction": 100, "subdir": "raw", "name": "b.dat", "size": 10, "hashsum": "aa"})
	m.Add(files, 201, map[string]any{"transaction": 100, "subdir": "", "name": "a.txt", "size": 3, "hashsum": "bb"})
	m.Add(files, 202, map[string]any{"transaction": 102, "subdir": "", "name": "img.tif", "size": 99, "hashsum": "cc"})

	return m
}
