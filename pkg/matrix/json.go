package matrix

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"
)

// incidenceJSON is the serialized form of an Incidence. Cell data is stored
// row-major so the JSON is stable across runs.
type incidenceJSON struct {
	Rows []string  `json:"rows"`
	Cols []string  `json:"cols"`
	Fill float64   `json:"fill"`
	Data []float64 `json:"data"`
}

// MarshalJSON serializes the matrix with deterministic row and column
// order.
func (m *Incidence) MarshalJSON() ([]byte, error) {
	out := incidenceJSON{
		Rows: m.rows,
		Cols: m.cols,
		Fill: m.fill,
	}
	if m.data != nil {
		out.Data = make([]float64, 0, len(m.rows)*len(m.cols))
		for i := range m.rows {
			out.Data = append(out.Data, m.data.RawRowView(i)...)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a matrix serialized by MarshalJSON.
func (m *Incidence) UnmarshalJSON(data []byte) error {
	var in incidenceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Data) != len(in.Rows)*len(in.Cols) {
		return ErrShape
	}

	m.rows = in.Rows
	m.cols = in.Cols
	m.fill = in.Fill
	m.rowIdx = make(map[string]int, len(in.Rows))
	for i, r := range in.Rows {
		m.rowIdx[r] = i
	}
	m.colIdx = make(map[string]int, len(in.Cols))
	for j, c := range in.Cols {
		m.colIdx[c] = j
	}
	m.data = nil
	if len(in.Rows) > 0 && len(in.Cols) > 0 {
		m.data = mat.NewDense(len(in.Rows), len(in.Cols), in.Data)
	}
	return nil
}
