package models

// Step is one recitation unit in a training run: a single chunk, or in pairs
// mode a combined pair of adjacent chunks. Steps are derived on session start
// and never persisted; their keys index check results.
type Step struct {
	Key          string
	ChunkIndices []int // length 1 or 2
	Label        string
}

// IsPair reports whether the step covers two adjacent chunks
func (s Step) IsPair() bool {
	return len(s.ChunkIndices) == 2
}
