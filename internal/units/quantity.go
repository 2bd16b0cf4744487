package units

import (
	"fmt"
	"math"

	"github.com/roman-kulish/lcsim/internal/errdefs"
)

// Physical constants
var (
	H = Scalar(6.62607015e-34, Joule.Mul(Second)) // Planck constant
	C = Scalar(299792458, Meter.Div(Second))      // speed of light in vacuum
)

// Quantity is an immutable array of values tagged with a Unit. A quantity of
// length one broadcasts against any other length.
type Quantity struct {
	values []float64
	unit   Unit
}

// New creates a quantity from a copy of values
func New(values []float64, u Unit) Quantity {
	v := make([]float64, len(values))
	copy(v, values)
	return Quantity{values: v, unit: u}
}

// Wrap creates a quantity that takes ownership of values. The caller must not
// modify values afterward.
func Wrap(values []float64, u Unit) Quantity {
	return Quantity{values: values, unit: u}
}

func Scalar(v float64, u Unit) Quantity {
	return Quantity{values: []float64{v}, unit: u}
}

func (q Quantity) Unit() Unit {
	return q.unit
}

func (q Quantity) Len() int {
	return len(q.values)
}

// At returns the i-th value in the quantity's own unit
func (q Quantity) At(i int) float64 {
	if len(q.values) == 1 {
		return q.values[0]
	}
	return q.values[i]
}

// Values returns a copy of the values in the quantity's own unit
func (q Quantity) Values() []float64 {
	v := make([]float64, len(q.values))
	copy(v, q.values)
	return v
}

// In returns the values expressed in unit u
func (q Quantity) In(u Unit) ([]float64, error) {
	r, err := q.To(u)
	if err != nil {
		return nil, err
	}
	return r.values, nil
}

// To converts the quantity to another unit of the same dimension
func (q Quantity) To(u Unit) (Quantity, error) {
	f, err := q.unit.ConversionFactor(u)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{values: scaleValues(q.values, f), unit: u}, nil
}

// Dimensionless returns the plain values of a dimensionless quantity with all
// unit scales folded in
func (q Quantity) Dimensionless() ([]float64, error) {
	return q.In(Dimensionless)
}

func (q Quantity) Add(o Quantity) (Quantity, error) {
	return q.combine(o, "addition", func(a, b float64) float64 { return a + b })
}

func (q Quantity) Sub(o Quantity) (Quantity, error) {
	return q.combine(o, "subtraction", func(a, b float64) float64 { return a - b })
}

func (q Quantity) combine(o Quantity, op string, fn func(a, b float64) float64) (Quantity, error) {
	f, err := o.unit.ConversionFactor(q.unit)
	if err != nil {
		return Quantity{}, errdefs.NewUnitMismatchError(op, o.unit.String(), q.unit.String())
	}
	n, err := broadcastLen(q.Len(), o.Len())
	if err != nil {
		return Quantity{}, fmt.Errorf("%s: %w", op, err)
	}
	r := make([]float64, n)
	for i := range r {
		r[i] = fn(q.At(i), o.At(i)*f)
	}
	return Quantity{values: r, unit: q.unit}, nil
}

// Less compares element-wise. Both quantities must share a dimension.
func (q Quantity) Less(o Quantity) ([]bool, error) {
	f, err := o.unit.ConversionFactor(q.unit)
	if err != nil {
		return nil, errdefs.NewUnitMismatchError("comparison", o.unit.String(), q.unit.String())
	}
	n, err := broadcastLen(q.Len(), o.Len())
	if err != nil {
		return nil, fmt.Errorf("comparison: %w", err)
	}
	r := make([]bool, n)
	for i := range r {
		r[i] = q.At(i) < o.At(i)*f
	}
	return r, nil
}

// Mul multiplies element-wise. The lengths must be equal or one of them must
// be 1; Mul panics otherwise.
func (q Quantity) Mul(o Quantity) Quantity {
	n := mustBroadcastLen(q.Len(), o.Len())
	r := make([]float64, n)
	for i := range r {
		r[i] = q.At(i) * o.At(i)
	}
	return Quantity{values: r, unit: q.unit.Mul(o.unit)}
}

// Div divides element-wise with the same length rule as Mul
func (q Quantity) Div(o Quantity) Quantity {
	n := mustBroadcastLen(q.Len(), o.Len())
	r := make([]float64, n)
	for i := range r {
		r[i] = q.At(i) / o.At(i)
	}
	return Quantity{values: r, unit: q.unit.Div(o.unit)}
}

func (q Quantity) Pow(p float64) Quantity {
	r := make([]float64, len(q.values))
	for i, v := range q.values {
		r[i] = math.Pow(v, p)
	}
	return Quantity{values: r, unit: q.unit.Pow(p)}
}

// Scale multiplies all values by a dimensionless factor
func (q Quantity) Scale(f float64) Quantity {
	return Quantity{values: scaleValues(q.values, f), unit: q.unit}
}

// Sum reduces the quantity to a scalar
func (q Quantity) Sum() Quantity {
	var s float64
	for _, v := range q.values {
		s += v
	}
	return Scalar(s, q.unit)
}

func (q Quantity) String() string {
	if len(q.values) == 1 {
		return fmt.Sprintf("%g %s", q.values[0], q.unit)
	}
	return fmt.Sprintf("%v %s", q.values, q.unit)
}

func scaleValues(values []float64, f float64) []float64 {
	r := make([]float64, len(values))
	for i, v := range values {
		r[i] = v * f
	}
	return r
}

func broadcastLen(a, b int) (int, error) {
	switch {
	case a == b:
		return a, nil
	case a == 1:
		return b, nil
	case b == 1:
		return a, nil
	}
	return 0, errdefs.ConfigErrorf("cannot broadcast lengths %d and %d", a, b)
}

func mustBroadcastLen(a, b int) int {
	n, err := broadcastLen(a, b)
	if err != nil {
		panic("units: " + err.Error())
	}
	return n
}

// MagToLinear converts a magnitude to a linear flux ratio, 10^(-0.4 m)
func MagToLinear(m float64) float64 {
	return math.Pow(10, -0.4*m)
}

// LinearToMag converts a linear flux ratio to a magnitude, -2.5 log10(x)
func LinearToMag(x float64) float64 {
	return -2.5 * math.Log10(x)
}
