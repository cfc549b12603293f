// Package sdk provides a Go client for the grantmatch HTTP API.
//
// Semantic recommendations answer with structured-filter matches right away
// and deliver the slower semantic results through a search job:
//
//	client, _ := sdk.New("http://localhost:8080")
//	rec, _ := client.Recommend(ctx, "after-school programs for rural youth", nil)
//	set := sdk.NewResultSet(rec.Grants)
//	if rec.JobID != nil {
//	    _, _ = client.PollSearchJob(ctx, *rec.JobID, set)
//	}
//	for _, g := range set.Grants() {
//	    fmt.Println(g.Name, g.Score)
//	}
//
// PollSearchJob polls every two seconds and stops at a terminal rag status or
// after 30 attempts, whichever comes first.
package sdk
