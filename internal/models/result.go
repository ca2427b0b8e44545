package models

// SearchResult is a single similarity hit. Scores are backend-specific: the flat backend
// reports 1/(1+d) over squared L2 distance, the remote backend the service's native
// similarity. Do not compare or threshold scores across backend types.
type SearchResult struct {
	Record Record  `json:"record"`
	Score  float64 `json:"similarity_score"`
	Rank   int     `json:"rank"`
}

// SimilarExample is the caller-facing shape of a search hit.
type SimilarExample struct {
	Context         string  `json:"context"`
	Response        string  `json:"response"`
	SimilarityScore float64 `json:"similarity_score"`
}

// ToSimilarExamples flattens search results for API responses.
func ToSimilarExamples(results []*SearchResult) []SimilarExample {
	out := make([]SimilarExample, 0, len(results))
	for _, r := range results {
		out = append(out, SimilarExample{
			Context:         r.Record.Context,
			Response:        r.Record.Response,
			SimilarityScore: r.Score,
		})
	}
	return out
}
