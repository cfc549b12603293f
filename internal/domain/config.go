package domain

// KeyPrefix namespaces every key grantmatch writes to the index store.
const KeyPrefix = "grantmatch:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Dimensions       int
	DistanceMetric   string
	QueryInstruction string
}

// DefaultVectorConfig returns the defaults used for the NOFO chunk index.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Dimensions:       1024,
		DistanceMetric:   "cosine",
		QueryInstruction: "Represent this query for retrieving relevant funding opportunities: ",
	}
}
