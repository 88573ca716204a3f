package orchestrator

import "github.com/nguyentantai21042004/subflow/internal/processor"

// Summary counts a batch's Results.
type Summary struct {
	Total     int                       `json:"total"`
	OK        int                       `json:"ok"`
	Failed    int                       `json:"failed"`
	ByOutcome map[processor.Outcome]int `json:"by_outcome"`
}

// Summarize tallies results by outcome.
func Summarize(results []processor.Result) Summary {
	s := Summary{Total: len(results), ByOutcome: make(map[processor.Outcome]int)}
	for _, r := range results {
		if r.OK {
			s.OK++
		} else {
			s.Failed++
		}
		s.ByOutcome[r.Outcome]++
	}
	return s
}
