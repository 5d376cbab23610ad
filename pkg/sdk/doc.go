// Package facetdex embeds the facetdex filter resolver in a Go program.
//
// The client talks to the Elasticsearch catalog directly, optionally through
// a Valkey or Redis query cache, and answers the same questions as the HTTP
// API: which transactions match a filter, and which options remain
// selectable under each facet.
//
//	client, _ := facetdex.New(ctx,
//	    facetdex.WithElasticsearch("http://localhost:9200"),
//	    facetdex.WithIndexPrefix("catalog"),
//	)
//	defer client.Close()
//
//	f := facetdex.Filter{Text: "spectra", IDs: map[facetdex.FacetType][]int64{
//	    facetdex.FacetInstrument: {20},
//	}}
//	res, _ := client.Filters().Pages(ctx, f)
//	for _, e := range res.Pages[facetdex.FacetUser].Entries {
//	    fmt.Println(e.DisplayName, e.TransactionCount)
//	}
//
//	page, _ := client.Transactions().Page(ctx, f, 1, 25)
package facetdex
