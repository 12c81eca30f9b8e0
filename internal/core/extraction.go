package core

// Observation is one extracted field candidate. Extractors emit zero or
// more observations per utterance; the record decides what sticks.
type Observation struct {
	Field      Field   `json:"field"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}
