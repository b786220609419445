package models

// SimilarityResult is the answer to a pairwise similarity query.
// Labels are display labels, e.g. "cell division [GO_0051301]".
type SimilarityResult struct {
	Label1     string  `json:"label1"`
	Label2     string  `json:"label2"`
	URL1       string  `json:"url1"`
	URL2       string  `json:"url2"`
	Similarity float64 `json:"similarity"`
}

// Neighbor is one entry of a nearest-neighbor answer.
type Neighbor struct {
	Key        string  `json:"key"`
	Link       string  `json:"link"`
	Similarity float64 `json:"similarity"`
}

// ModelInfo describes one registry entry.
type ModelInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Ontology string `json:"ontology"`
	Method   string `json:"method,omitempty"`
	Size     int    `json:"size"`
	Dim      int    `json:"dim,omitempty"`
	Format   string `json:"format,omitempty"`
}
