package foamfile

import (
	"bytes"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Kind identifies the tensor rank of a field value
type Kind uint8

const (
	Scalar     Kind = iota // 1 component
	Vector                 // 3 components
	SymmTensor             // 6 components, xx xy xz yy yz zz
	Tensor                 // 9 components, row major
)

// Width returns the number of components stored for the kind
func (k Kind) Width() int {
	switch k {
	case Vector:
		return 3
	case SymmTensor:
		return 6
	case Tensor:
		return 9
	}
	return 1
}

func (k Kind) String() string {
	switch k {
	case Vector:
		return "vector"
	case SymmTensor:
		return "symmTensor"
	case Tensor:
		return "tensor"
	}
	return "scalar"
}

// KindForWidth maps a component count back to its kind
func KindForWidth(width int) (Kind, error) {
	switch width {
	case 1:
		return Scalar, nil
	case 3:
		return Vector, nil
	case 6:
		return SymmTensor, nil
	case 9:
		return Tensor, nil
	}
	return Scalar, fmt.Errorf("no field kind has %d components", width)
}

// KindFromDeclaration picks the kind from the type token on a declaring
// line such as "internalField nonuniform List<vector>". symmTensor is
// tested before tensor since the latter is a substring of the former.
func KindFromDeclaration(line []byte) Kind {
	if i := bytes.Index(line, []byte("List<")); i >= 0 {
		if j := bytes.IndexByte(line[i:], '>'); j >= 0 {
			line = line[i+len("List<") : i+j]
		}
	}
	switch {
	case bytes.Contains(line, []byte("symmTensor")):
		return SymmTensor
	case bytes.Contains(line, []byte("sphericalTensor")):
		return Scalar
	case bytes.Contains(line, []byte("tensor")):
		return Tensor
	case bytes.Contains(line, []byte("vector")):
		return Vector
	}
	return Scalar
}

// Value is a single field value of fixed width
type Value struct {
	kind Kind
	c    [9]float64
}

// NewScalar returns a scalar Value
func NewScalar(v float64) Value {
	return Value{kind: Scalar, c: [9]float64{v}}
}

// NewVector returns a vector Value
func NewVector(x, y, z float64) Value {
	return Value{kind: Vector, c: [9]float64{x, y, z}}
}

// NewValue builds a Value from its components. The number of components
// must be a valid width.
func NewValue(comps []float64) (Value, error) {
	kind, err := KindForWidth(len(comps))
	if err != nil {
		return Value{}, err
	}
	v := Value{kind: kind}
	copy(v.c[:], comps)
	return v, nil
}

func (v Value) Kind() Kind { return v.kind }

// Components returns a copy of the stored components
func (v Value) Components() []float64 {
	out := make([]float64, v.kind.Width())
	copy(out, v.c[:])
	return out
}

// Scalar returns the first component, which is the value for a scalar
func (v Value) Scalar() float64 { return v.c[0] }

// Vector returns the first three components
func (v Value) Vector() [3]float64 { return [3]float64{v.c[0], v.c[1], v.c[2]} }

func (v Value) String() string {
	if v.kind == Scalar {
		return formatFloat(v.c[0])
	}
	return "(" + joinFloats(v.c[:v.kind.Width()]) + ")"
}

// Array is a dense, row major sequence of values of one kind
type Array struct {
	Kind Kind
	Data []float64 // Len()*Kind.Width() numbers
}

// Len returns the number of values in the array
func (a Array) Len() int {
	return len(a.Data) / a.Kind.Width()
}

// Row returns the components of value i, sharing storage with the array
func (a Array) Row(i int) []float64 {
	w := a.Kind.Width()
	return a.Data[i*w : (i+1)*w]
}

// At returns value i
func (a Array) At(i int) Value {
	v := Value{kind: a.Kind}
	copy(v.c[:], a.Row(i))
	return v
}

// Matrix exposes the array as a Len() x Width() matrix sharing its storage.
// An empty array has no matrix representation and returns nil.
func (a Array) Matrix() mat.Matrix {
	if a.Len() == 0 {
		return nil
	}
	return mat.NewDense(a.Len(), a.Kind.Width(), a.Data[:a.Len()*a.Kind.Width()])
}

// Form says how a field section stores its data
type Form uint8

const (
	Absent Form = iota
	Uniform
	Nonuniform
)

func (f Form) String() string {
	switch f {
	case Uniform:
		return "uniform"
	case Nonuniform:
		return "nonuniform"
	}
	return "absent"
}

// Data is one decoded field entry: nothing, a broadcast value, or one value
// per element
type Data struct {
	Form    Form
	Uniform Value
	Values  Array
}
