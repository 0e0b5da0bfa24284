package service

import (
	"fmt"
	"strings"

	"memtrainer/internal/models"
)

// BuildSteps derives the ordered recitation steps for a chunk list.
//
// Normal mode yields one step per chunk. Pairs mode walks chunks two at a
// time: a step for the first of the pair, a step for the second, then a
// combined step for both; a trailing odd chunk gets only its single step.
// The exact ordering and key format matter: step keys index stored check
// results and mode lookups, so they must stay stable across runs.
func BuildSteps(chunks []string, mode models.RecallMode) []models.Step {
	steps := make([]models.Step, 0, len(chunks))

	if mode != models.RecallPairs {
		for i := range chunks {
			steps = append(steps, singleStep(i))
		}
		return steps
	}

	for a := 0; a < len(chunks); a += 2 {
		steps = append(steps, singleStep(a))
		if b := a + 1; b < len(chunks) {
			steps = append(steps, singleStep(b))
			steps = append(steps, models.Step{
				Key:          fmt.Sprintf("p:%d+%d", a, b),
				ChunkIndices: []int{a, b},
				Label:        fmt.Sprintf("Chunks %d + %d", a+1, b+1),
			})
		}
	}
	return steps
}

func singleStep(i int) models.Step {
	return models.Step{
		Key:          fmt.Sprintf("c:%d", i),
		ChunkIndices: []int{i},
		Label:        fmt.Sprintf("Chunk %d", i+1),
	}
}

// StepText assembles the recitable text for a step from the chunk list
func StepText(chunks []string, step models.Step) string {
	var parts []string
	for _, i := range step.ChunkIndices {
		if i >= 0 && i < len(chunks) && chunks[i] != "" {
			parts = append(parts, chunks[i])
		}
	}
	return strings.Join(parts, " ")
}
