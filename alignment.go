package kle

// Label slots are stored canonically in reading order, but the wire format
// packs them into an alignment-dependent compact ordering. labelMap gives,
// for each alignment code, the canonical slot that each compact position
// refers to; -1 marks a position the alignment cannot address.
var labelMap = [8][12]int{
	{0, 6, 2, 8, 9, 11, 3, 5, 1, 4, 7, 10},      // 0 = no centering
	{1, 7, -1, -1, 9, 11, 4, -1, -1, -1, -1, 10}, // 1 = center x
	{3, -1, 5, -1, 9, 11, -1, -1, 4, -1, -1, 10}, // 2 = center y
	{4, -1, -1, -1, 9, 11, -1, -1, -1, -1, -1, 10}, // 3 = center x & y
	{0, 6, 2, 8, 10, -1, 3, 5, 1, 4, 7, -1},      // 4 = center front (default)
	{1, 7, -1, -1, 10, -1, 4, -1, -1, -1, -1, -1}, // 5 = center front & x
	{3, -1, 5, -1, 10, -1, -1, -1, 4, -1, -1, -1}, // 6 = center front & y
	{4, -1, -1, -1, 10, -1, -1, -1, -1, -1, -1, -1}, // 7 = center front & x & y
}

// disallowedAlignments lists, per canonical slot, the alignment codes that
// cannot represent a non-empty label in that slot.
var disallowedAlignments = [12][]int{
	{1, 2, 3, 5, 6, 7}, // 0
	{2, 3, 6, 7},       // 1
	{1, 2, 3, 5, 6, 7}, // 2
	{1, 3, 5, 7},       // 3
	{},                 // 4
	{1, 3, 5, 7},       // 5
	{1, 2, 3, 5, 6, 7}, // 6
	{2, 3, 6, 7},       // 7
	{1, 2, 3, 5, 6, 7}, // 8
	{4, 5, 6, 7},       // 9
	{},                 // 10
	{4, 5, 6, 7},       // 11
}

// alignmentPriority is the fixed order in which candidate alignments are
// tried during encoding: densest packings first, code 0 as the fallback that
// can represent every slot.
var alignmentPriority = [8]int{7, 5, 6, 4, 3, 1, 2, 0}

// unalign scatters compact aligned items back into canonical slot order.
// Positions the alignment does not address receive def.
func unalign[T any](aligned []T, alignment int, def T) [12]T {
	var out [12]T
	for i := range out {
		out[i] = def
	}
	for i, item := range aligned {
		if i >= 12 {
			break
		}
		if slot := labelMap[alignment][i]; slot >= 0 {
			out[slot] = item
		}
	}
	return out
}

// alignedIndex returns the compact position of canonical slot under the
// given alignment, or -1 if the alignment cannot address it.
func alignedIndex(alignment, slot int) int {
	for i, s := range labelMap[alignment] {
		if s == slot {
			return i
		}
	}
	return -1
}

// alignedKeyProperties chooses the best alignment for a key's labels and
// returns the compact-ordered text/color/size arrays. Colors matching the
// key's default color and sizes matching its default size collapse to the
// unset sentinels first, so the densest alignment is judged on what actually
// needs to be written.
//
// For compact positions whose label is empty, the size is inherited from the
// running per-slot sizes rather than the key, so an unchanged size state
// produces no diff.
func alignedKeyProperties(key *Key, curSizes *[12]float64) (alignment int, texts [12]string, colors [12]string, sizes [12]float64) {
	var canonTexts, canonColors [12]string
	var canonSizes [12]float64
	for i, label := range key.Labels {
		canonTexts[i] = label.Text
		canonColors[i] = label.Color
		canonSizes[i] = label.Size
		if label.Text == "" {
			canonColors[i] = ""
			canonSizes[i] = 0
		}
		if label.Color == key.DefaultTextColor {
			canonColors[i] = ""
		}
		if label.Size == key.DefaultTextSize {
			canonSizes[i] = 0
		}
	}

	candidates := alignmentPriority[:]
	for slot := range canonTexts {
		if canonTexts[slot] == "" {
			continue
		}
		var kept []int
		for _, a := range candidates {
			disallowed := false
			for _, bad := range disallowedAlignments[slot] {
				if a == bad {
					disallowed = true
					break
				}
			}
			if !disallowed {
				kept = append(kept, a)
			}
		}
		candidates = kept
	}
	// Alignment 0 addresses every slot, so candidates is never empty.
	alignment = candidates[0]

	for slot := 0; slot < 12; slot++ {
		ndx := alignedIndex(alignment, slot)
		if ndx < 0 {
			continue
		}
		if canonTexts[slot] != "" {
			texts[ndx] = canonTexts[slot]
		}
		if canonColors[slot] != "" {
			colors[ndx] = canonColors[slot]
		}
		if canonSizes[slot] != 0 {
			sizes[ndx] = canonSizes[slot]
		}
	}

	for i := range reducedSizes(sizes[:]) {
		if texts[i] == "" {
			sizes[i] = curSizes[i]
		}
	}

	return alignment, texts, colors, sizes
}

// reducedSizes returns sizes with trailing zeros stripped.
func reducedSizes(sizes []float64) []float64 {
	end := len(sizes)
	for end > 0 && sizes[end-1] == 0 {
		end--
	}
	out := make([]float64, end)
	copy(out, sizes[:end])
	return out
}
