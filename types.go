package kle

// Default appearance values applied by the constructors. These match the
// keyboard-layout-editor defaults, which is what makes the minimal-diff
// encoding minimal for typical layouts.
const (
	defaultKeyColor        = "#cccccc"
	defaultTextColor       = "#000000"
	defaultTextSize        = 3
	defaultBackgroundColor = "#eeeeee"
)

// Keyboard is an ordered collection of keys plus document metadata. It owns
// its Keys and Metadata exclusively; decoding never aliases the running
// template into the result.
type Keyboard struct {
	Metadata Metadata
	Keys     []*Key
}

// NewKeyboard returns an empty keyboard with default metadata.
func NewKeyboard() *Keyboard {
	return &Keyboard{Metadata: NewMetadata()}
}

// Key is a single keycap: placement, geometry, rotation, 12 label slots and
// appearance flags. Width2/Height2 of 0 mean "inherit Width/Height"; decoded
// keys always carry the resolved values.
type Key struct {
	Color  string
	Labels [12]Label

	DefaultTextColor string
	DefaultTextSize  float64

	X, Y          Decimal
	Width, Height Decimal

	// Secondary box for stepped / L-shaped keys (ISO Enter, big-ass Enter).
	X2, Y2          Decimal
	Width2, Height2 Decimal

	RotationX, RotationY Decimal
	RotationAngle        Decimal

	Profile string
	Switch  Switch

	Ghosted bool
	Stepped bool
	Homing  bool
	Decal   bool
}

// NewKey returns a key with KLE defaults: a 1x1 cap at the origin.
func NewKey() *Key {
	return &Key{
		Color:            defaultKeyColor,
		DefaultTextColor: defaultTextColor,
		DefaultTextSize:  defaultTextSize,
		Width:            DecimalFromInt(1),
		Height:           DecimalFromInt(1),
	}
}

// Label is one of the 12 fixed text positions on a key, in reading order:
// top row (left/center/right), center row, bottom row, then front-face row.
// Empty Text/Color and a Size of 0 mean "inherit the key default".
type Label struct {
	Text  string
	Color string
	Size  float64
}

// Switch describes the physical switch under a key.
type Switch struct {
	Mount string
	Brand string
	Type  string
}

// Background is the optional patterned document background.
type Background struct {
	Name  string
	Style string
}

// Metadata holds document-level properties. The Include* flags record that
// plate/pcb were explicitly present in the source document; a bare false is
// otherwise indistinguishable from "not specified".
type Metadata struct {
	Author          string
	BackgroundColor string
	Background      Background
	Name            string
	Notes           string
	Radii           string
	CSS             string
	Switch          Switch

	IsSwitchesPlateMounted      bool
	IncludeSwitchesPlateMounted bool
	IsSwitchesPcbMounted        bool
	IncludeSwitchesPcbMounted   bool
}

// NewMetadata returns metadata with KLE defaults.
func NewMetadata() Metadata {
	return Metadata{BackgroundColor: defaultBackgroundColor}
}
