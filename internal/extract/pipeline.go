package extract

// Pipeline tries the model-backed primary extractor and falls back to the
// deterministic heuristic on any failure. The heuristic is pure and total,
// so extraction as a whole never fails.
type Pipeline struct {
	primary  Extractor
	fallback *Heuristic
}

func NewPipeline(primary Extractor, fallback *Heuristic) *Pipeline {
	return &Pipeline{primary: primary, fallback: fallback}
}

// Extract never returns an error: the fallback always produces a result.
func (p *Pipeline) Extract(text string) Result {
	if p.primary != nil {
		if result, err := p.primary.Extract(text); err == nil {
			return result
		}
	}
	result, _ := p.fallback.Extract(text)
	return result
}
