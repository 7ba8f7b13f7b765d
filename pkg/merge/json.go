package merge

import (
	"encoding/json"

	"github.com/matzehuels/enrichmap/pkg/matrix"
)

// unifiedJSON mirrors Unified for serialization. Rows are stored as an
// ordered list so category order survives the round trip.
type unifiedJSON struct {
	Sources   []string          `json:"sources"`
	AnnotCols []string          `json:"annot_cols,omitempty"`
	Rows      []*Row            `json:"rows"`
	PValues   *matrix.Incidence `json:"p_values,omitempty"`
	Counts    *matrix.Incidence `json:"counts,omitempty"`
}

// MarshalJSON serializes the unified table in category order.
func (u *Unified) MarshalJSON() ([]byte, error) {
	out := unifiedJSON{
		Sources:   u.Sources,
		AnnotCols: u.AnnotCols,
		Rows:      make([]*Row, len(u.Categories)),
		PValues:   u.PValues,
		Counts:    u.Counts,
	}
	for i, name := range u.Categories {
		out.Rows[i] = u.rows[name]
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a unified table serialized by MarshalJSON.
func (u *Unified) UnmarshalJSON(data []byte) error {
	var in unifiedJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	u.Sources = in.Sources
	u.AnnotCols = in.AnnotCols
	u.PValues = in.PValues
	u.Counts = in.Counts
	u.Categories = make([]string, len(in.Rows))
	u.rows = make(map[string]*Row, len(in.Rows))
	for i, r := range in.Rows {
		u.Categories[i] = r.Name
		u.rows[r.Name] = r
	}
	return nil
}
