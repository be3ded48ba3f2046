package ranking

// FilterCommon removes from each ranking the items the other one lacks and
// re-ranks a side whenever something was removed from it. It returns the size
// of the common item set. Filtering an already aligned pair changes nothing.
func FilterCommon(a, b *Ranking) int {
	var onlyA, onlyB []string
	for _, el := range a.elements {
		if !b.Contains(el.Content) {
			onlyA = append(onlyA, el.Content)
		}
	}
	for _, el := range b.elements {
		if !a.Contains(el.Content) {
			onlyB = append(onlyB, el.Content)
		}
	}

	for _, content := range onlyA {
		a.Remove(content)
	}
	for _, content := range onlyB {
		b.Remove(content)
	}

	if len(onlyA) != 0 {
		a.ReassignRanks()
	}
	if len(onlyB) != 0 {
		b.ReassignRanks()
	}

	return a.Size()
}
