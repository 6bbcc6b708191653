// Package kle implements a bidirectional codec for KLE JSON, the compact
// array format used by keyboard-layout-editor.com to describe keyboard
// layouts.
//
// KLE JSON is stateful: each key is encoded as a diff against a running
// "current" template carried across the whole document, and per-key label
// text, color and size are packed into an alignment-dependent compact
// ordering of 12 slots.
//
// # Format
//
// A document is an array whose optional first element is a metadata object,
// followed by row arrays of (string | changes-object):
//
//	[
//	  {"name": "Sixty"},
//	  [{"a": 7}, "Esc", "!\n1", {"w": 2}, "Backspace"],
//	  [{"r": 15, "rx": 4}, "Rotated"]
//	]
//
// A changes-object mutates the running template (position deltas, geometry,
// rotation, colors, text sizing); a string materializes a key from the
// template's current state.
//
// # Decoding
//
//	kb, err := kle.FromJSON(data)
//
// Decoding replays the document through the running template and returns a
// *Keyboard. Structural violations (wrong top-level type, misplaced
// metadata, rotation changes after the start of a row, a row element that is
// neither string nor object) fail the whole decode with a *DecodeError
// carrying the offending JSON fragment.
//
// # Encoding
//
//	data, err := kle.ToJSON(kb)
//
// Encoding sorts keys into the canonical KLE order (rotation cluster, then
// top-to-bottom, left-to-right), then re-derives a minimal-diff document:
// only fields that differ from the running template are written, label
// arrays are compacted under the densest legal alignment, and text sizes
// collapse to the f/f2/fa shorthand forms. The output is not byte-identical
// to the input, but decoding it yields an equivalent Keyboard.
//
// # Numbers
//
// Positions and geometry are exact decimals (see Decimal), so long runs of
// additive position updates do not drift. Precision is scoped per call
// through ParseOptions/EmitOptions, never global.
package kle
