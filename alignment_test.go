package kle

import (
	"fmt"
	"testing"
)

func TestUnalign_Scatter(t *testing.T) {
	// Default alignment (4 = center front): compact position 0 is canonical
	// slot 0, position 1 is slot 6, position 4 is the front-center slot 10.
	got := unalign([]string{"A", "B", "C", "D", "E"}, 4, "")
	if got[0] != "A" || got[6] != "B" || got[2] != "C" || got[8] != "D" || got[10] != "E" {
		t.Errorf("unexpected scatter under alignment 4: %v", got)
	}
	for _, slot := range []int{1, 3, 4, 5, 7, 9, 11} {
		if got[slot] != "" {
			t.Errorf("slot %d should hold the default, got %q", slot, got[slot])
		}
	}
}

func TestUnalign_UnaddressedPositions(t *testing.T) {
	// Alignment 7 addresses only the center and front-center slots; items in
	// unaddressed compact positions are dropped.
	got := unalign([]string{"A", "B", "C"}, 7, "")
	if got[4] != "A" {
		t.Errorf("slot 4 should hold A, got %q", got[4])
	}
	for slot, text := range got {
		if slot != 4 && text != "" {
			t.Errorf("slot %d should be empty, got %q", slot, text)
		}
	}
}

func TestUnalign_Bijection(t *testing.T) {
	// For every alignment, aligning then unaligning restores the canonical
	// arrangement of any labels restricted to the slots it can address.
	for alignment := 0; alignment < 8; alignment++ {
		t.Run(fmt.Sprintf("alignment_%d", alignment), func(t *testing.T) {
			var canonical [12]string
			for slot := 0; slot < 12; slot++ {
				if alignedIndex(alignment, slot) >= 0 {
					canonical[slot] = fmt.Sprintf("s%d", slot)
				}
			}

			var compact [12]string
			for i, slot := range labelMap[alignment] {
				if slot >= 0 {
					compact[i] = canonical[slot]
				}
			}

			restored := unalign(compact[:], alignment, "")
			if restored != canonical {
				t.Errorf("round trip mismatch:\n  canonical: %v\n  restored:  %v", canonical, restored)
			}
		})
	}
}

func TestLabelMap_SentinelsMatchDisallowed(t *testing.T) {
	// A slot is unaddressable under an alignment exactly when that alignment
	// code appears in the slot's disallowed list.
	for alignment := 0; alignment < 8; alignment++ {
		for slot := 0; slot < 12; slot++ {
			disallowed := false
			for _, bad := range disallowedAlignments[slot] {
				if bad == alignment {
					disallowed = true
					break
				}
			}
			addressable := alignedIndex(alignment, slot) >= 0
			if addressable == disallowed {
				t.Errorf("alignment %d slot %d: addressable=%v but disallowed=%v",
					alignment, slot, addressable, disallowed)
			}
		}
	}
}

func TestAlignedKeyProperties_Priority(t *testing.T) {
	tests := []struct {
		name     string
		slots    []int
		expected int
	}{
		{"center only", []int{4}, 7},
		{"top left", []int{0}, 4},
		{"top left and right", []int{0, 2}, 4},
		{"front legend", []int{9}, 3},
		{"front and corner", []int{0, 9}, 0},
		{"center x", []int{1}, 5},
		{"full grid", []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, 4},
		{"everything", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewKey()
			for _, slot := range tt.slots {
				key.Labels[slot].Text = "x"
			}
			var curSizes [12]float64
			alignment, _, _, _ := alignedKeyProperties(key, &curSizes)
			if alignment != tt.expected {
				t.Errorf("expected alignment %d, got %d", tt.expected, alignment)
			}
		})
	}
}

func TestAlignedKeyProperties_DefaultsCollapse(t *testing.T) {
	key := NewKey()
	key.Labels[0].Text = "A"
	key.Labels[0].Color = key.DefaultTextColor // collapses to unset
	key.Labels[0].Size = key.DefaultTextSize   // collapses to unset
	key.Labels[6].Text = "B"
	key.Labels[6].Color = "#ff0000"
	key.Labels[6].Size = 5

	var curSizes [12]float64
	alignment, texts, colors, sizes := alignedKeyProperties(key, &curSizes)
	if alignment != 4 {
		t.Fatalf("expected alignment 4, got %d", alignment)
	}
	if texts[0] != "A" || texts[1] != "B" {
		t.Errorf("unexpected compact texts: %v", texts)
	}
	if colors[0] != "" || colors[1] != "#ff0000" {
		t.Errorf("unexpected compact colors: %v", colors)
	}
	if sizes[0] != 0 || sizes[1] != 5 {
		t.Errorf("unexpected compact sizes: %v", sizes)
	}
}

func TestAlignedKeyProperties_InheritsRunningSizes(t *testing.T) {
	// Unlabeled positions ahead of a sized label inherit the running size
	// state instead of diffing against zero.
	key := NewKey()
	key.Labels[6].Text = "B" // compact position 1 under alignment 4
	key.Labels[6].Size = 6

	curSizes := [12]float64{2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	_, _, _, sizes := alignedKeyProperties(key, &curSizes)
	if sizes[0] != 2 {
		t.Errorf("empty-label position should inherit running size 2, got %v", sizes[0])
	}
	if sizes[1] != 6 {
		t.Errorf("expected size 6 at position 1, got %v", sizes[1])
	}
}

func TestReducedSizes(t *testing.T) {
	tests := []struct {
		input    []float64
		expected int
	}{
		{[]float64{0, 0, 0}, 0},
		{[]float64{1, 0, 0}, 1},
		{[]float64{0, 2, 0}, 2},
		{[]float64{1, 2, 3}, 3},
	}

	for _, tt := range tests {
		if got := len(reducedSizes(tt.input)); got != tt.expected {
			t.Errorf("reducedSizes(%v): expected length %d, got %d", tt.input, tt.expected, got)
		}
	}
}
