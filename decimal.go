package kle

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// DefaultPrecision is the fractional-digit cap applied when options leave
// Precision at zero. KLE coordinates are quarter-unit steps in practice, so
// twelve digits leaves generous headroom without letting pathological inputs
// grow without bound.
const DefaultPrecision = 12

// Decimal is an immutable exact decimal number: coef * 10^(-scale).
//
// Key positions accumulate across a whole KLE document, so they are kept as
// exact decimals rather than binary floats; adding 0.25 five hundred times
// yields exactly 125. The zero value is 0.
type Decimal struct {
	coef  *big.Int // nil means zero
	scale int      // fractional digits, >= 0
}

var ten = big.NewInt(10)

// DecimalFromInt creates a Decimal from an int64.
func DecimalFromInt(v int64) Decimal {
	return Decimal{coef: big.NewInt(v)}.norm()
}

// ParseDecimal parses a decimal literal such as "-13.375" or "2e-3".
func ParseDecimal(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Decimal{}, fmt.Errorf("empty decimal literal")
	}

	mant := s
	exp := 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mant = s[:i]
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return Decimal{}, fmt.Errorf("invalid decimal literal: %s", s)
		}
		exp = e
	}

	intPart := mant
	fracPart := ""
	if i := strings.IndexByte(mant, '.'); i >= 0 {
		intPart = mant[:i]
		fracPart = mant[i+1:]
	}
	digits := intPart + fracPart
	if digits == "" || digits == "-" || digits == "+" {
		return Decimal{}, fmt.Errorf("invalid decimal literal: %s", s)
	}

	coef := new(big.Int)
	if _, ok := coef.SetString(digits, 10); !ok {
		return Decimal{}, fmt.Errorf("invalid decimal literal: %s", s)
	}

	scale := len(fracPart) - exp
	if scale < 0 {
		coef.Mul(coef, pow10(-scale))
		scale = 0
	}
	return Decimal{coef: coef, scale: scale}.norm(), nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}

func (d Decimal) big() *big.Int {
	if d.coef == nil {
		return new(big.Int)
	}
	return d.coef
}

// norm strips trailing fractional zeros so equal values share one
// representation. Never mutates the receiver's coefficient.
func (d Decimal) norm() Decimal {
	coef := d.big()
	scale := d.scale
	if coef.Sign() == 0 {
		return Decimal{coef: new(big.Int)}
	}
	for scale > 0 {
		q, r := new(big.Int).QuoRem(coef, ten, new(big.Int))
		if r.Sign() != 0 {
			break
		}
		coef = q
		scale--
	}
	return Decimal{coef: coef, scale: scale}
}

// align returns both coefficients brought to the larger scale.
func align(a, b Decimal) (ca, cb *big.Int, scale int) {
	ca, cb = a.big(), b.big()
	scale = a.scale
	switch {
	case a.scale < b.scale:
		ca = new(big.Int).Mul(ca, pow10(b.scale-a.scale))
		scale = b.scale
	case a.scale > b.scale:
		cb = new(big.Int).Mul(cb, pow10(a.scale-b.scale))
	}
	return ca, cb, scale
}

// Add returns d + o.
func (d Decimal) Add(o Decimal) Decimal {
	ca, cb, scale := align(d, o)
	return Decimal{coef: new(big.Int).Add(ca, cb), scale: scale}.norm()
}

// Sub returns d - o.
func (d Decimal) Sub(o Decimal) Decimal {
	ca, cb, scale := align(d, o)
	return Decimal{coef: new(big.Int).Sub(ca, cb), scale: scale}.norm()
}

// Neg returns -d.
func (d Decimal) Neg() Decimal {
	return Decimal{coef: new(big.Int).Neg(d.big()), scale: d.scale}
}

// Cmp compares d and o: -1 if d < o, 0 if equal, 1 if d > o.
func (d Decimal) Cmp(o Decimal) int {
	ca, cb, _ := align(d, o)
	return ca.Cmp(cb)
}

// Equal reports whether d == o.
func (d Decimal) Equal(o Decimal) bool {
	return d.Cmp(o) == 0
}

// IsZero reports whether d == 0.
func (d Decimal) IsZero() bool {
	return d.big().Sign() == 0
}

// IsInt reports whether d has no fractional part.
func (d Decimal) IsInt() bool {
	return d.norm().scale == 0
}

// Int64 returns the integer part of d, truncated toward zero.
func (d Decimal) Int64() int64 {
	q := new(big.Int).Quo(d.big(), pow10(d.scale))
	return q.Int64()
}

// Float64 returns the nearest float64.
func (d Decimal) Float64() float64 {
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}

// String returns the canonical decimal string, e.g. "-13.375".
func (d Decimal) String() string {
	n := d.norm()
	s := n.big().String()
	if n.scale == 0 {
		return s
	}

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < n.scale+1 {
		s = "0" + s
	}
	dot := len(s) - n.scale
	s = s[:dot] + "." + s[dot:]
	if neg {
		s = "-" + s
	}
	return s
}

// Round caps the fractional part at prec digits, rounding half away from
// zero. prec <= 0 means DefaultPrecision.
func (d Decimal) Round(prec int) Decimal {
	if prec <= 0 {
		prec = DefaultPrecision
	}
	n := d.norm()
	if n.scale <= prec {
		return n
	}
	drop := pow10(n.scale - prec)
	q, r := new(big.Int).QuoRem(n.big(), drop, new(big.Int))
	// half away from zero
	half := new(big.Int).Rsh(drop, 1)
	r.Abs(r)
	if r.Cmp(half) >= 0 {
		if n.big().Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	return Decimal{coef: q, scale: prec}.norm()
}

// Mod360 normalizes an angle into [0, 360).
func (d Decimal) Mod360() Decimal {
	full := Decimal{coef: new(big.Int).Mul(big.NewInt(360), pow10(d.scale)), scale: d.scale}
	m := new(big.Int).Mod(d.big(), full.big()) // Euclidean: result in [0, 360*10^scale)
	return Decimal{coef: m, scale: d.scale}.norm()
}

// jsonNumber returns d as a json.Number so integral values serialize as
// integer literals and fractional values keep their exact decimal form.
func (d Decimal) jsonNumber() json.Number {
	return json.Number(d.String())
}
