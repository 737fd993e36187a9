// Package dataset encodes and decodes the evaluation corpus: a JSON array
// of datapoints with explicitly tagged domain values so decoding
// reconstructs the exact values that were written.
package dataset

import (
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/vireo/internal/domain/model"
)

// taggedTime wraps a datetime with its type tag:
// {"__datetime__": true, "value": "<ISO-8601>"}.
type taggedTime struct {
	Tag   bool   `json:"__datetime__"`
	Value string `json:"value"`
}

func tagTime(t time.Time) taggedTime {
	return taggedTime{Tag: true, Value: t.Format(time.RFC3339Nano)}
}

func (t taggedTime) decode() (time.Time, error) {
	if !t.Tag {
		return time.Time{}, fmt.Errorf("%w: missing __datetime__ tag", ErrDecode)
	}
	parsed, err := time.Parse(time.RFC3339Nano, t.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad datetime %q: %v", ErrDecode, t.Value, err)
	}
	return parsed, nil
}

// speciesWire carries a tagged species value.
type speciesWire struct {
	Tag            bool   `json:"__species__"`
	CommonName     string `json:"common_name"`
	SpeciesCode    string `json:"species_code"`
	ScientificName string `json:"scientific_name"`
}

// recWire carries a tagged recommendation value.
type recWire struct {
	Tag      bool          `json:"__recommendation__"`
	Location string        `json:"location"`
	Score    float64       `json:"score"`
	Species  []speciesWire `json:"species"`
}

// datapointWire is the persisted shape of one evaluation datapoint.
type datapointWire struct {
	TargetLocation string                `json:"target_location"`
	TargetDate     taggedTime            `json:"target_date"`
	LifeList       map[string]taggedTime `json:"life_list"`
	GroundTruth    []recWire             `json:"ground_truth"`
	ObserverID     string                `json:"observer_id"`
}

// Encode writes the dataset as a JSON array of tagged datapoints.
func Encode(w io.Writer, dataset []model.EndToEndEvalDatapoint) error {
	wire := make([]datapointWire, 0, len(dataset))
	for _, dp := range dataset {
		lifeList := make(map[string]taggedTime, len(dp.LifeList))
		for code, first := range dp.LifeList {
			lifeList[code] = tagTime(first)
		}
		gt := make([]recWire, 0, len(dp.GroundTruth))
		for _, rec := range dp.GroundTruth {
			species := make([]speciesWire, 0, len(rec.Species))
			for _, sp := range rec.Species {
				species = append(species, speciesWire{
					Tag:            true,
					CommonName:     sp.CommonName,
					SpeciesCode:    sp.SpeciesCode,
					ScientificName: sp.ScientificName,
				})
			}
			gt = append(gt, recWire{Tag: true, Location: rec.LocationID, Score: rec.Score, Species: species})
		}
		wire = append(wire, datapointWire{
			TargetLocation: dp.TargetLocation,
			TargetDate:     tagTime(dp.TargetDate),
			LifeList:       lifeList,
			GroundTruth:    gt,
			ObserverID:     dp.ObserverID,
		})
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(wire); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// Decode reads a JSON array of tagged datapoints.
func Decode(r io.Reader) ([]model.EndToEndEvalDatapoint, error) {
	var wire []datapointWire
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	dataset := make([]model.EndToEndEvalDatapoint, 0, len(wire))
	for i, dp := range wire {
		target, err := dp.TargetDate.decode()
		if err != nil {
			return nil, fmt.Errorf("datapoint %d: %w", i, err)
		}
		lifeList := make(model.LifeList, len(dp.LifeList))
		for code, tagged := range dp.LifeList {
			first, err := tagged.decode()
			if err != nil {
				return nil, fmt.Errorf("datapoint %d life list %s: %w", i, code, err)
			}
			lifeList[code] = first
		}
		gt := make([]model.Recommendation, 0, len(dp.GroundTruth))
		for _, rec := range dp.GroundTruth {
			if !rec.Tag {
				return nil, fmt.Errorf("datapoint %d: %w: missing __recommendation__ tag", i, ErrDecode)
			}
			species := make([]model.Species, 0, len(rec.Species))
			for _, sp := range rec.Species {
				if !sp.Tag {
					return nil, fmt.Errorf("datapoint %d: %w: missing __species__ tag", i, ErrDecode)
				}
				species = append(species, model.Species{
					CommonName:     sp.CommonName,
					SpeciesCode:    sp.SpeciesCode,
					ScientificName: sp.ScientificName,
				})
			}
			gt = append(gt, model.Recommendation{LocationID: rec.Location, Score: rec.Score, Species: species})
		}
		dataset = append(dataset, model.EndToEndEvalDatapoint{
			TargetLocation: dp.TargetLocation,
			TargetDate:     target,
			LifeList:       lifeList,
			GroundTruth:    gt,
			ObserverID:     dp.ObserverID,
		})
	}
	return dataset, nil
}

// LoadFile decodes a dataset from a file path.
func LoadFile(path string) ([]model.EndToEndEvalDatapoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// SaveFile encodes a dataset to a file path.
func SaveFile(path string, dataset []model.EndToEndEvalDatapoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	defer f.Close()
	return Encode(f, dataset)
}
