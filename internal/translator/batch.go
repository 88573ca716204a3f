package translator

// Batches groups texts into consecutive batches whose token counts stay
// within maxTokens. Each batch holds indexes into texts. A text larger than
// the budget gets a batch of its own.
func Batches(texts []string, counter TokenCounter, maxTokens int) [][]int {
	var batches [][]int
	var cur []int
	used := 0

	for i, t := range texts {
		n := counter.Count(t)
		if len(cur) > 0 && (maxTokens <= 0 || used+n > maxTokens) {
			batches = append(batches, cur)
			cur, used = nil, 0
		}
		cur = append(cur, i)
		used += n
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}
