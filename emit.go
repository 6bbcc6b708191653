package kle

import (
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// EmitOptions configures encoding.
type EmitOptions struct {
	// Precision caps the fractional digits of emitted position deltas.
	// Zero means DefaultPrecision. Scoped to the call, never global.
	Precision int
}

// ToJSON encodes a Keyboard into a minimal-diff KLE JSON document. The
// output is not guaranteed byte-identical to the document the keyboard was
// decoded from, but decoding it yields an equivalent Keyboard.
func ToJSON(kb *Keyboard) ([]byte, error) {
	return ToJSONWithOptions(kb, EmitOptions{})
}

// ToJSONWithOptions encodes with explicit options.
func ToJSONWithOptions(kb *Keyboard, opts EmitOptions) ([]byte, error) {
	return json.Marshal(ToJSONValueWithOptions(kb, opts))
}

// ToJSONValue encodes a Keyboard into a KLE document tree: an []any of the
// optional metadata *Changes followed by row []any slices of
// (*Changes | string), ready for json.Marshal.
func ToJSONValue(kb *Keyboard) []any {
	return ToJSONValueWithOptions(kb, EmitOptions{})
}

// ToJSONValueWithOptions encodes a document tree with explicit options.
func ToJSONValueWithOptions(kb *Keyboard, opts EmitOptions) []any {
	e := newEncoder(opts)
	doc := e.run(kb)
	Logger().Debug("encoded keyboard",
		zap.Int("keys", len(kb.Keys)),
		zap.Int("elements", len(doc)))
	return doc
}

// encoder mirrors the decoder's replay state: a running template that the
// sorted keys are diffed against, plus the running compact-order size state
// and the current rotation cluster.
type encoder struct {
	opts EmitOptions

	cur           *Key
	align         int
	runningT      string
	curLabelsSize [12]float64

	clusterAngle Decimal
	clusterX     Decimal
	clusterY     Decimal

	row []any
	out []any
}

func newEncoder(opts EmitOptions) *encoder {
	cur := NewKey()
	return &encoder{
		opts:     opts,
		cur:      cur,
		align:    4,
		runningT: cur.DefaultTextColor,
	}
}

func (e *encoder) round(v Decimal) Decimal {
	return v.Round(e.opts.Precision)
}

func (e *encoder) run(kb *Keyboard) []any {
	if mc := metadataChanges(&kb.Metadata); mc.Len() > 0 {
		e.out = append(e.out, mc)
	}

	// Incremented when the first row starts.
	e.cur.Y = e.cur.Y.Sub(DecimalFromInt(1))

	isNewRow := true
	for _, key := range sortedKeys(kb.Keys) {
		changes := &Changes{}
		alignment, texts, colors, sizes := alignedKeyProperties(key, &e.curLabelsSize)

		clusterChanged := !key.RotationAngle.Equal(e.clusterAngle) ||
			!key.RotationX.Equal(e.clusterX) ||
			!key.RotationY.Equal(e.clusterY)
		rowChanged := !key.Y.Equal(e.cur.Y)
		if len(e.row) > 0 && (rowChanged || clusterChanged) {
			e.out = append(e.out, e.row)
			e.row = nil
			isNewRow = true
		}

		if isNewRow {
			e.cur.Y = e.round(e.cur.Y.Add(DecimalFromInt(1)))
			// y resets to the new origin if either rx or ry changed;
			// x always resets to rx (which defaults to zero).
			if !key.RotationY.Equal(e.clusterY) || !key.RotationX.Equal(e.clusterX) {
				e.cur.Y = key.RotationY
			}
			e.cur.X = key.RotationX

			e.clusterAngle = key.RotationAngle
			e.clusterX = key.RotationX
			e.clusterY = key.RotationY
			isNewRow = false
		}

		e.cur.RotationAngle = changes.recordDecimal("r", key.RotationAngle, e.cur.RotationAngle)
		e.cur.RotationX = changes.recordDecimal("rx", key.RotationX, e.cur.RotationX)
		e.cur.RotationY = changes.recordDecimal("ry", key.RotationY, e.cur.RotationY)
		e.cur.Y = e.round(e.cur.Y.Add(
			changes.recordDecimal("y", e.round(key.Y.Sub(e.cur.Y)), Decimal{})))
		e.cur.X = e.round(e.cur.X.Add(
			changes.recordDecimal("x", e.round(key.X.Sub(e.cur.X)), Decimal{})).Add(key.Width))
		e.cur.Color = changes.recordString("c", key.Color, e.cur.Color)

		// Compact slot 0 carries the key's default color; a later slot that
		// conflicts with slot 0 falls back to the default instead.
		if colors[0] == "" {
			colors[0] = key.DefaultTextColor
		} else {
			for i := 2; i < 12; i++ {
				if colors[i] != "" && colors[i] != colors[0] {
					colors[i] = key.DefaultTextColor
				}
			}
		}
		e.runningT = changes.recordString("t", joinCompact(colors), e.runningT)

		e.cur.Ghosted = changes.recordBool("g", key.Ghosted, e.cur.Ghosted)
		e.cur.Profile = changes.recordString("p", key.Profile, e.cur.Profile)
		e.cur.Switch.Mount = changes.recordString("sm", key.Switch.Mount, e.cur.Switch.Mount)
		e.cur.Switch.Brand = changes.recordString("sb", key.Switch.Brand, e.cur.Switch.Brand)
		e.cur.Switch.Type = changes.recordString("st", key.Switch.Type, e.cur.Switch.Type)
		e.align = changes.recordInt("a", alignment, e.align)
		e.cur.DefaultTextSize = changes.recordFloat("f", key.DefaultTextSize, e.cur.DefaultTextSize)
		if _, ok := changes.Get("f"); ok {
			e.curLabelsSize = [12]float64{}
		}
		e.recordSizes(changes, key, sizes, texts)

		changes.recordDecimal("w", key.Width, DecimalFromInt(1))
		changes.recordDecimal("h", key.Height, DecimalFromInt(1))
		changes.recordDecimal("w2", key.Width2, key.Width)
		changes.recordDecimal("h2", key.Height2, key.Height)
		changes.recordDecimal("x2", key.X2, Decimal{})
		changes.recordDecimal("y2", key.Y2, Decimal{})
		changes.recordBool("n", key.Homing, false)
		changes.recordBool("l", key.Stepped, false)
		changes.recordBool("d", key.Decal, false)

		if changes.Len() > 0 {
			e.row = append(e.row, changes)
		}
		e.row = append(e.row, joinCompact(texts))
	}
	if len(e.row) > 0 {
		e.out = append(e.out, e.row)
	}
	if e.out == nil {
		return []any{}
	}
	return e.out
}

// recordSizes emits the most compact size representation that brings the
// running per-slot sizes in line with the key's aligned sizes: nothing when
// they already match, a forced f when every label-bearing slot inherits the
// default, f2 when slots 1..n share one value, fa otherwise.
func (e *encoder) recordSizes(changes *Changes, key *Key, sizes [12]float64, texts [12]string) {
	if textSizesMatch(e.curLabelsSize, sizes, texts) {
		return
	}
	reduced := reducedSizes(sizes[:])
	if len(reduced) == 0 {
		// Force f even when the default size itself is unchanged; a decoder
		// reading stale f2/fa state would otherwise misinterpret the sizes.
		changes.recordFloat("f", key.DefaultTextSize, -1)
		return
	}

	optimizeF2 := sizes[0] == 0
	for i := 2; i < len(reduced) && optimizeF2; i++ {
		optimizeF2 = sizes[i] == sizes[1]
	}
	if optimizeF2 {
		f2 := sizes[1]
		changes.recordFloat("f2", f2, -1)
		e.curLabelsSize = [12]float64{}
		for i := 1; i < 12; i++ {
			e.curLabelsSize[i] = f2
		}
		return
	}

	e.curLabelsSize = sizes
	fa := make([]any, len(reduced))
	for i, size := range reduced {
		fa[i] = normalizeNumber(size)
	}
	changes.set("fa", fa)
}

// textSizesMatch compares the running sizes to the aligned target sizes,
// ignoring slots whose label is empty.
func textSizesMatch(cur, aligned [12]float64, texts [12]string) bool {
	for i := 0; i < 12; i++ {
		if texts[i] == "" {
			continue
		}
		if (cur[i] != 0) != (aligned[i] != 0) {
			return false
		}
		if cur[i] != 0 && cur[i] != aligned[i] {
			return false
		}
	}
	return true
}

// metadataChanges diffs metadata against the defaults. plate/pcb are also
// written when they were explicitly present in the source document.
func metadataChanges(m *Metadata) *Changes {
	defaults := NewMetadata()
	changes := &Changes{}
	changes.recordString("backcolor", m.BackgroundColor, defaults.BackgroundColor)
	changes.recordString("name", m.Name, defaults.Name)
	changes.recordString("author", m.Author, defaults.Author)
	changes.recordString("notes", m.Notes, defaults.Notes)

	background := &Changes{}
	background.recordString("name", m.Background.Name, "")
	background.recordString("style", m.Background.Style, "")
	if background.Len() > 0 {
		changes.set("background", background)
	}

	changes.recordString("radii", m.Radii, defaults.Radii)
	changes.recordString("switchMount", m.Switch.Mount, defaults.Switch.Mount)
	changes.recordString("switchBrand", m.Switch.Brand, defaults.Switch.Brand)
	changes.recordString("switchType", m.Switch.Type, defaults.Switch.Type)
	changes.recordString("css", m.CSS, defaults.CSS)
	if m.IncludeSwitchesPlateMounted ||
		m.IsSwitchesPlateMounted != defaults.IsSwitchesPlateMounted {
		changes.set("plate", m.IsSwitchesPlateMounted)
	}
	if m.IncludeSwitchesPcbMounted ||
		m.IsSwitchesPcbMounted != defaults.IsSwitchesPcbMounted {
		changes.set("pcb", m.IsSwitchesPcbMounted)
	}
	return changes
}

// sortedKeys orders keys the way KLE documents are written: by normalized
// rotation angle, then rotation origin, then top-to-bottom, left-to-right.
// The sort is stable and does not disturb the caller's slice.
func sortedKeys(keys []*Key) []*Key {
	out := append([]*Key(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.RotationAngle.Mod360().Cmp(b.RotationAngle.Mod360()); c != 0 {
			return c < 0
		}
		if c := a.RotationX.Cmp(b.RotationX); c != 0 {
			return c < 0
		}
		if c := a.RotationY.Cmp(b.RotationY); c != 0 {
			return c < 0
		}
		if c := a.Y.Cmp(b.Y); c != 0 {
			return c < 0
		}
		return a.X.Cmp(b.X) < 0
	})
	return out
}

// joinCompact joins 12 compact-order values into the wire string, dropping
// the trailing newlines left by empty slots.
func joinCompact(items [12]string) string {
	return strings.TrimRight(strings.Join(items[:], "\n"), "\n")
}
