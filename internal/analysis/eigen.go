package analysis

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cyberdyn/internal/dynamo"
)

// Tolerance is the threshold below which a real or imaginary part counts as
// zero.
const Tolerance = 1e-10

// Eigenvalue is one root of the characteristic polynomial.
type Eigenvalue struct {
	Real float64
	Imag float64
}

// IsReal reports whether the imaginary part is negligible.
func (e Eigenvalue) IsReal() bool { return math.Abs(e.Imag) < Tolerance }

func (e Eigenvalue) String() string {
	if e.IsReal() {
		return fmt.Sprintf("%.6g", e.Real)
	}
	if e.Imag < 0 {
		return fmt.Sprintf("%.6g-%.6gi", e.Real, -e.Imag)
	}
	return fmt.Sprintf("%.6g+%.6gi", e.Real, e.Imag)
}

// MarshalJSON writes a bare number for real eigenvalues and {real, imag}
// otherwise.
func (e Eigenvalue) MarshalJSON() ([]byte, error) {
	if e.IsReal() {
		return json.Marshal(e.Real)
	}
	return json.Marshal(struct {
		Real float64 `json:"real"`
		Imag float64 `json:"imag"`
	}{e.Real, e.Imag})
}

func (e *Eigenvalue) UnmarshalJSON(data []byte) error {
	var re float64
	if err := json.Unmarshal(data, &re); err == nil {
		*e = Eigenvalue{Real: re}
		return nil
	}
	var pair struct {
		Real float64 `json:"real"`
		Imag float64 `json:"imag"`
	}
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("eigenvalue: %w", err)
	}
	*e = Eigenvalue{Real: pair.Real, Imag: pair.Imag}
	return nil
}

// Eigenvalues decomposes a square matrix given as rows. The order is the one
// produced by the underlying Hessenberg QR iteration, which is deterministic
// for a given matrix; complex conjugates are adjacent.
func Eigenvalues(rows [][]float64) ([]Eigenvalue, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty matrix", dynamo.ErrEigenFailed)
	}
	a := mat.NewDense(n, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", dynamo.ErrDimensionMismatch, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite entry at (%d,%d)", dynamo.ErrEigenFailed, i, j)
			}
		}
		a.SetRow(i, row)
	}

	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return nil, fmt.Errorf("%w: QR iteration did not converge", dynamo.ErrEigenFailed)
	}
	vals := eig.Values(nil)
	out := make([]Eigenvalue, len(vals))
	for i, v := range vals {
		out[i] = Eigenvalue{Real: real(v), Imag: imag(v)}
	}
	return out, nil
}
