package models

import "fmt"

// QueryRequest is a retrieval request with an optional result count.
type QueryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Validate rejects empty queries, applies defaultK when K is unset, and caps K at maxK.
func (q *QueryRequest) Validate(defaultK, maxK int) error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.K <= 0 {
		q.K = defaultK
	}
	if maxK > 0 && q.K > maxK {
		q.K = maxK
	}
	return nil
}

// QueryResponse is the generated reply plus the examples that conditioned it.
type QueryResponse struct {
	Response        string           `json:"response"`
	SimilarExamples []SimilarExample `json:"similar_examples"`
}

// SearchResponse carries retrieval results without generation.
type SearchResponse struct {
	Query           string           `json:"query"`
	SimilarExamples []SimilarExample `json:"similar_examples"`
	QueryTime       int64            `json:"query_time_ms"`
}

// LoadResponse reports a bulk load.
type LoadResponse struct {
	Loaded int `json:"loaded"`
}

// StatusResponse describes the retrieval backend.
type StatusResponse struct {
	Status     string `json:"status"`
	Backend    string `json:"backend"`
	Ready      bool   `json:"ready"`
	Size       int64  `json:"size"`
	Dimensions int    `json:"dimensions,omitempty"`
}
