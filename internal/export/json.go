// Package export writes simulation results as JSON, CSV and SVG.
package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/cyberdyn/internal/sim"
)

// WriteJSON writes the full result, as served by the HTTP API, indented.
func WriteJSON(w io.Writer, res *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(res)
}

func WriteJSONFile(path string, res *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(file, res); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadJSON loads a result previously written by WriteJSON. The returned
// result has no Trajectory; TimeSeries.Trajectory rebuilds one.
func ReadJSON(r io.Reader) (*sim.Result, error) {
	var res sim.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
