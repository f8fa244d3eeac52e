package extract

import (
	"errors"
	"testing"

	"eva-finance/internal/models"

	"github.com/stretchr/testify/assert"
)

type stubExtractor struct {
	result Result
	err    error
}

func (s *stubExtractor) Extract(text string) (Result, error) { return s.result, s.err }

func TestPipeline_PrimaryResultWins(t *testing.T) {
	primary := &stubExtractor{result: Result{
		Brands:           models.StringSet{"Hoka"},
		ProcessorVersion: "llm-test-v1",
	}}
	p := NewPipeline(primary, NewHeuristic())

	result := p.Extract("Switched from Nike to Hoka")
	assert.Equal(t, models.ProcessorVersion("llm-test-v1"), result.ProcessorVersion)
	assert.True(t, result.Brands.Contains("Hoka"))
}

func TestPipeline_FallsBackOnPrimaryError(t *testing.T) {
	primary := &stubExtractor{err: errors.New("provider timeout")}
	p := NewPipeline(primary, NewHeuristic())

	result := p.Extract("Switched from Nike to Hoka for running")
	assert.Equal(t, models.ProcessorHeuristicV1, result.ProcessorVersion)
	assert.True(t, result.Brands.Contains("Nike"))
	assert.True(t, result.Brands.Contains("Hoka"))
}

func TestPipeline_NilPrimaryGoesStraightToHeuristic(t *testing.T) {
	p := NewPipeline(nil, NewHeuristic())
	result := p.Extract("anything at all")
	assert.Equal(t, models.ProcessorHeuristicV1, result.ProcessorVersion)
}
