// Package affine holds the 4x4 model matrices that map pyramid pixel
// coordinates (at resolution 0) into the shared world space.
//
// Matrices are stored column-major, the layout used by the rendering side:
// translation lives at indices 12, 13 and 14 and axis scales on the diagonal
// at 0, 5 and 10. Values are never mutated in place; every operation returns
// a new Matrix4.
package affine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix4 is a column-major 4x4 affine transform
type Matrix4 [16]float64

// Matrix indices holding the x, y and z scale of a scale/translate matrix
const (
	ScaleX = 0
	ScaleY = 5
	ScaleZ = 10
)

// Identity returns the identity transform
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FromScaleTranslation builds translate(t) * scale(s), which maps a pixel
// coordinate p to s*p + t on each axis.
func FromScaleTranslation(scale, translation [3]float64) Matrix4 {
	m := Identity()
	m[ScaleX] = scale[0]
	m[ScaleY] = scale[1]
	m[ScaleZ] = scale[2]
	m[12] = translation[0]
	m[13] = translation[1]
	m[14] = translation[2]
	return m
}

// At returns the element at row r, column c
func (m Matrix4) At(r, c int) float64 {
	return m[c*4+r]
}

// IsIdentity reports whether m is exactly the identity transform
func (m Matrix4) IsIdentity() bool {
	return m == Identity()
}

// dense converts to a row-major gonum matrix
func (m Matrix4) dense() *mat.Dense {
	data := make([]float64, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			data[r*4+c] = m.At(r, c)
		}
	}
	return mat.NewDense(4, 4, data)
}

func fromDense(d mat.Matrix) Matrix4 {
	var m Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[c*4+r] = d.At(r, c)
		}
	}
	return m
}

// Multiply returns m * other, so other is applied to a point first
func (m Matrix4) Multiply(other Matrix4) Matrix4 {
	var out mat.Dense
	out.Mul(m.dense(), other.dense())
	return fromDense(&out)
}

// TransformPoint maps p through the matrix, dividing by w when it is not 1
func (m Matrix4) TransformPoint(p [3]float64) [3]float64 {
	var out mat.VecDense
	out.MulVec(m.dense(), mat.NewVecDense(4, []float64{p[0], p[1], p[2], 1}))

	w := out.AtVec(3)
	if w == 0 || w == 1 {
		return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
	}
	return [3]float64{out.AtVec(0) / w, out.AtVec(1) / w, out.AtVec(2) / w}
}

// Parse reads a matrix given either as a JSON array or as 16 comma separated
// numbers, in column-major order.
func Parse(s string) (Matrix4, error) {
	var m Matrix4
	s = strings.TrimSpace(s)
	if s == "" {
		return m, fmt.Errorf("empty model matrix")
	}

	var values []float64
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &values); err != nil {
			return m, fmt.Errorf("invalid model matrix %q: %w", s, err)
		}
	} else {
		for _, part := range strings.Split(s, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return m, fmt.Errorf("invalid model matrix value %q: %w", part, err)
			}
			values = append(values, v)
		}
	}

	if len(values) != 16 {
		return m, fmt.Errorf("model matrix must have 16 values, got %d", len(values))
	}
	copy(m[:], values)
	return m, nil
}

// String formats the matrix in the form accepted by Parse
func (m Matrix4) String() string {
	parts := make([]string, len(m))
	for i, v := range m {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
