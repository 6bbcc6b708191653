package kle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DecodeError is a structural decoding failure. Payload carries the
// offending JSON fragment (number, string, object or array) for diagnostics.
type DecodeError struct {
	Message string
	Payload any
}

func (e *DecodeError) Error() string {
	frag, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Sprintf("kle: %s: %v", e.Message, e.Payload)
	}
	return fmt.Sprintf("kle: %s: %s", e.Message, frag)
}

func decodeErrorf(payload any, format string, args ...any) *DecodeError {
	return &DecodeError{Message: fmt.Sprintf(format, args...), Payload: payload}
}

// ParseOptions configures decoding.
type ParseOptions struct {
	// Precision caps the fractional digits of decoded coordinates.
	// Zero means DefaultPrecision. Scoped to the call, never global.
	Precision int
}

// FromJSON decodes a KLE JSON document into a Keyboard.
func FromJSON(data []byte) (*Keyboard, error) {
	return FromJSONWithOptions(data, ParseOptions{})
}

// FromJSONWithOptions decodes with explicit options.
func FromJSONWithOptions(data []byte, opts ParseOptions) (*Keyboard, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber() // keep exact decimal literals
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return FromJSONValueWithOptions(doc, opts)
}

// FromJSONValue decodes an already-unmarshaled KLE document tree
// (the result of json.Unmarshal into any).
func FromJSONValue(doc any) (*Keyboard, error) {
	return FromJSONValueWithOptions(doc, ParseOptions{})
}

// FromJSONValueWithOptions decodes a document tree with explicit options.
func FromJSONValueWithOptions(doc any, opts ParseOptions) (*Keyboard, error) {
	d := newDecoder(opts)
	if err := d.run(doc); err != nil {
		return nil, err
	}
	Logger().Debug("decoded keyboard",
		zap.Int("keys", len(d.kb.Keys)),
		zap.String("name", d.kb.Metadata.Name))
	return d.kb, nil
}

// decoder is the cumulative replay state for one decode call. The running
// template cur is mutated across the whole document and copied (never
// aliased) into the keyboard each time a label string materializes a key.
type decoder struct {
	opts ParseOptions
	kb   *Keyboard

	cur            *Key
	curLabelsSize  [12]float64
	curLabelsColor [12]string
	alignment      int

	// Rotation cluster origin; x/y positions reset here on origin changes
	// and at the start of each row.
	clusterX, clusterY Decimal
}

func newDecoder(opts ParseOptions) *decoder {
	return &decoder{
		opts:      opts,
		kb:        NewKeyboard(),
		cur:       NewKey(),
		alignment: 4,
	}
}

func (d *decoder) round(v Decimal) Decimal {
	return v.Round(d.opts.Precision)
}

func (d *decoder) run(doc any) error {
	arr, ok := doc.([]any)
	if !ok {
		return decodeErrorf(doc, "expected an array of metadata and row arrays")
	}

	for r, item := range arr {
		switch elem := item.(type) {
		case []any:
			for k, rowItem := range elem {
				switch it := rowItem.(type) {
				case string:
					d.materializeKey(it)
				case map[string]any:
					if k != 0 && hasRotationChange(it) {
						return decodeErrorf(elem,
							"rotation changes can only be made at the beginning of a row")
					}
					if err := d.applyKeyChanges(it); err != nil {
						return err
					}
				default:
					return decodeErrorf(rowItem,
						"expected key changes or label text in row, got %s", jsonTypeName(rowItem))
				}
			}
			d.cur.Y = d.round(d.cur.Y.Add(DecimalFromInt(1)))
		case map[string]any:
			if r != 0 {
				return decodeErrorf(item, "metadata can only be specified as the first element")
			}
			if err := d.applyMetadataChanges(elem); err != nil {
				return err
			}
		default:
			return decodeErrorf(item, "encountered unexpected %s element", jsonTypeName(item))
		}
		// New rows start at the cluster origin unless x is changed explicitly.
		d.cur.X = d.cur.RotationX
	}
	return nil
}

func hasRotationChange(changes map[string]any) bool {
	_, r := changes["r"]
	_, rx := changes["rx"]
	_, ry := changes["ry"]
	return r || rx || ry
}

// materializeKey freezes a copy of the running template into the keyboard,
// scattering the packed label text and the running per-slot colors/sizes
// into canonical slot order, then advances the template past the key.
func (d *decoder) materializeKey(labels string) {
	nk := *d.cur
	if nk.Width2.IsZero() {
		nk.Width2 = d.cur.Width
	}
	if nk.Height2.IsZero() {
		nk.Height2 = d.cur.Height
	}

	texts := unalign(strings.Split(labels, "\n"), d.alignment, "")
	for i, text := range texts {
		nk.Labels[i].Text = text
	}
	// Sizes are tracked in compact order and scattered per key; colors are
	// already canonical (the t tag scatters them when it is applied).
	sizes := unalign(d.curLabelsSize[:], d.alignment, 0)
	for i, size := range sizes {
		if size == 0 {
			nk.Labels[i].Size = nk.DefaultTextSize
		} else {
			nk.Labels[i].Size = size
		}
	}
	for i, color := range d.curLabelsColor {
		if color == "" {
			nk.Labels[i].Color = nk.DefaultTextColor
		} else {
			nk.Labels[i].Color = color
		}
	}

	d.kb.Keys = append(d.kb.Keys, &nk)

	d.cur.X = d.round(d.cur.X.Add(d.cur.Width))
	d.cur.Width = DecimalFromInt(1)
	d.cur.Height = DecimalFromInt(1)
	d.cur.X2 = Decimal{}
	d.cur.Y2 = Decimal{}
	d.cur.Width2 = Decimal{}
	d.cur.Height2 = Decimal{}
	d.cur.Homing = false
	d.cur.Stepped = false
	d.cur.Decal = false
}

// applyKeyChanges plays one changes-object into the running template. The
// tag set is closed; unrecognized tags are ignored. Tags are applied in the
// fixed KLE order, which matters for t (depends on the alignment set by a in
// the same object).
func (d *decoder) applyKeyChanges(changes map[string]any) error {
	if v, ok := changes["r"]; ok {
		dec, err := d.decimalField(changes, "r", v)
		if err != nil {
			return err
		}
		d.cur.RotationAngle = dec
	}
	if v, ok := changes["rx"]; ok {
		dec, err := d.decimalField(changes, "rx", v)
		if err != nil {
			return err
		}
		d.cur.RotationX = dec
		d.clusterX = dec
		d.cur.X = d.clusterX
		d.cur.Y = d.clusterY
	}
	if v, ok := changes["ry"]; ok {
		dec, err := d.decimalField(changes, "ry", v)
		if err != nil {
			return err
		}
		d.cur.RotationY = dec
		d.clusterY = dec
		d.cur.X = d.clusterX
		d.cur.Y = d.clusterY
	}
	if v, ok := changes["a"]; ok {
		f, err := floatField(changes, "a", v)
		if err != nil {
			return err
		}
		a := int(f)
		if a < 0 || a > 7 {
			return decodeErrorf(changes, "alignment code %d out of range [0,7]", a)
		}
		d.alignment = a
	}
	if v, ok := changes["f"]; ok {
		f, err := floatField(changes, "f", v)
		if err != nil {
			return err
		}
		d.cur.DefaultTextSize = f
		d.curLabelsSize = [12]float64{}
	}
	if v, ok := changes["f2"]; ok {
		f, err := floatField(changes, "f2", v)
		if err != nil {
			return err
		}
		for i := 1; i < 12; i++ {
			d.curLabelsSize[i] = f
		}
	}
	if v, ok := changes["fa"]; ok {
		list, ok := v.([]any)
		if !ok {
			return decodeErrorf(changes, "expected an array for %q", "fa")
		}
		for i := 0; i < 12; i++ {
			if i < len(list) {
				f, err := floatField(changes, "fa", list[i])
				if err != nil {
					return err
				}
				d.curLabelsSize[i] = f
			} else {
				d.curLabelsSize[i] = 0
			}
		}
	}
	if v, ok := changes["p"]; ok {
		s, err := stringField(changes, "p", v)
		if err != nil {
			return err
		}
		d.cur.Profile = s
	}
	if v, ok := changes["c"]; ok {
		s, err := stringField(changes, "c", v)
		if err != nil {
			return err
		}
		d.cur.Color = s
	}
	if v, ok := changes["t"]; ok {
		s, err := stringField(changes, "t", v)
		if err != nil {
			return err
		}
		segs := strings.Split(s, "\n")
		if segs[0] != "" {
			d.cur.DefaultTextColor = segs[0]
		}
		d.curLabelsColor = unalign(segs, d.alignment, "")
	}
	if v, ok := changes["x"]; ok {
		dec, err := d.decimalField(changes, "x", v)
		if err != nil {
			return err
		}
		d.cur.X = d.round(d.cur.X.Add(dec))
	}
	if v, ok := changes["y"]; ok {
		dec, err := d.decimalField(changes, "y", v)
		if err != nil {
			return err
		}
		d.cur.Y = d.round(d.cur.Y.Add(dec))
	}
	if v, ok := changes["w"]; ok {
		dec, err := d.decimalField(changes, "w", v)
		if err != nil {
			return err
		}
		d.cur.Width = dec
		d.cur.Width2 = dec
	}
	if v, ok := changes["h"]; ok {
		dec, err := d.decimalField(changes, "h", v)
		if err != nil {
			return err
		}
		d.cur.Height = dec
		d.cur.Height2 = dec
	}
	if v, ok := changes["x2"]; ok {
		dec, err := d.decimalField(changes, "x2", v)
		if err != nil {
			return err
		}
		d.cur.X2 = dec
	}
	if v, ok := changes["y2"]; ok {
		dec, err := d.decimalField(changes, "y2", v)
		if err != nil {
			return err
		}
		d.cur.Y2 = dec
	}
	if v, ok := changes["w2"]; ok {
		dec, err := d.decimalField(changes, "w2", v)
		if err != nil {
			return err
		}
		d.cur.Width2 = dec
	}
	if v, ok := changes["h2"]; ok {
		dec, err := d.decimalField(changes, "h2", v)
		if err != nil {
			return err
		}
		d.cur.Height2 = dec
	}
	if v, ok := changes["n"]; ok {
		b, err := boolField(changes, "n", v)
		if err != nil {
			return err
		}
		d.cur.Homing = b
	}
	if v, ok := changes["l"]; ok {
		b, err := boolField(changes, "l", v)
		if err != nil {
			return err
		}
		d.cur.Stepped = b
	}
	if v, ok := changes["d"]; ok {
		b, err := boolField(changes, "d", v)
		if err != nil {
			return err
		}
		d.cur.Decal = b
	}
	if v, ok := changes["g"]; ok {
		b, err := boolField(changes, "g", v)
		if err != nil {
			return err
		}
		d.cur.Ghosted = b
	}
	if v, ok := changes["sm"]; ok {
		s, err := stringField(changes, "sm", v)
		if err != nil {
			return err
		}
		d.cur.Switch.Mount = s
	}
	// sb and st also assign into the switch mount field. This mirrors the
	// upstream serializer exactly; see DESIGN.md.
	if v, ok := changes["sb"]; ok {
		s, err := stringField(changes, "sb", v)
		if err != nil {
			return err
		}
		d.cur.Switch.Mount = s
	}
	if v, ok := changes["st"]; ok {
		s, err := stringField(changes, "st", v)
		if err != nil {
			return err
		}
		d.cur.Switch.Mount = s
	}
	return nil
}

// applyMetadataChanges plays a metadata object onto the keyboard metadata.
// Unrecognized fields are ignored.
func (d *decoder) applyMetadataChanges(changes map[string]any) error {
	m := &d.kb.Metadata
	if v, ok := changes["author"]; ok {
		s, err := stringField(changes, "author", v)
		if err != nil {
			return err
		}
		m.Author = s
	}
	if v, ok := changes["backcolor"]; ok {
		s, err := stringField(changes, "backcolor", v)
		if err != nil {
			return err
		}
		m.BackgroundColor = s
	}
	if v, ok := changes["background"]; ok {
		bg, ok := v.(map[string]any)
		if !ok {
			return decodeErrorf(changes, "expected an object for %q", "background")
		}
		if v, ok := bg["name"]; ok {
			s, err := stringField(bg, "name", v)
			if err != nil {
				return err
			}
			m.Background.Name = s
		}
		if v, ok := bg["style"]; ok {
			s, err := stringField(bg, "style", v)
			if err != nil {
				return err
			}
			m.Background.Style = s
		}
	}
	if v, ok := changes["name"]; ok {
		s, err := stringField(changes, "name", v)
		if err != nil {
			return err
		}
		m.Name = s
	}
	if v, ok := changes["notes"]; ok {
		s, err := stringField(changes, "notes", v)
		if err != nil {
			return err
		}
		m.Notes = s
	}
	if v, ok := changes["radii"]; ok {
		s, err := stringField(changes, "radii", v)
		if err != nil {
			return err
		}
		m.Radii = s
	}
	if v, ok := changes["switchMount"]; ok {
		s, err := stringField(changes, "switchMount", v)
		if err != nil {
			return err
		}
		m.Switch.Mount = s
	}
	if v, ok := changes["switchBrand"]; ok {
		s, err := stringField(changes, "switchBrand", v)
		if err != nil {
			return err
		}
		m.Switch.Brand = s
	}
	if v, ok := changes["switchType"]; ok {
		s, err := stringField(changes, "switchType", v)
		if err != nil {
			return err
		}
		m.Switch.Type = s
	}
	if v, ok := changes["css"]; ok {
		s, err := stringField(changes, "css", v)
		if err != nil {
			return err
		}
		m.CSS = s
	}
	if v, ok := changes["pcb"]; ok {
		b, err := boolField(changes, "pcb", v)
		if err != nil {
			return err
		}
		m.IsSwitchesPcbMounted = b
		m.IncludeSwitchesPcbMounted = true
	}
	if v, ok := changes["plate"]; ok {
		b, err := boolField(changes, "plate", v)
		if err != nil {
			return err
		}
		m.IsSwitchesPlateMounted = b
		m.IncludeSwitchesPlateMounted = true
	}
	return nil
}

// Field accessors. JSON numbers arrive as json.Number from FromJSON, but
// callers handing in their own document trees may carry float64.

func (d *decoder) decimalField(payload map[string]any, tag string, v any) (Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		dec, err := ParseDecimal(n.String())
		if err != nil {
			return Decimal{}, decodeErrorf(payload, "invalid number for %q", tag)
		}
		return dec.Round(d.opts.Precision), nil
	case float64:
		dec, err := ParseDecimal(strconv.FormatFloat(n, 'f', -1, 64))
		if err != nil {
			return Decimal{}, decodeErrorf(payload, "invalid number for %q", tag)
		}
		return dec.Round(d.opts.Precision), nil
	case int:
		return DecimalFromInt(int64(n)), nil
	case int64:
		return DecimalFromInt(n), nil
	default:
		return Decimal{}, decodeErrorf(payload, "expected a number for %q, got %s", tag, jsonTypeName(v))
	}
}

func floatField(payload map[string]any, tag string, v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, decodeErrorf(payload, "invalid number for %q", tag)
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, decodeErrorf(payload, "expected a number for %q, got %s", tag, jsonTypeName(v))
	}
}

func stringField(payload map[string]any, tag string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", decodeErrorf(payload, "expected a string for %q, got %s", tag, jsonTypeName(v))
	}
	return s, nil
}

func boolField(payload map[string]any, tag string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, decodeErrorf(payload, "expected a boolean for %q, got %s", tag, jsonTypeName(v))
	}
	return b, nil
}

// jsonTypeName names a decoded JSON value in the format's own vocabulary.
func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
