// internal/markers/marker.go

// Package markers reshapes fetched records into map-marker descriptors
// for a map-rendering surface.
//
// Renderer note: the consuming map surface draws at most the first 10
// markers unless each marker also carries precise geocoordinates. That
// is a limit of the renderer, not of this package; the full marker
// list is always produced and never truncated here.
package markers

import (
	"bytes"
	"encoding/json"
)

// Address label set, in render order.
const (
	LabelStreet     = "Street"
	LabelCity       = "City"
	LabelState      = "State"
	LabelPostalCode = "PostalCode"
	LabelCountry    = "Country"
)

// Fixed circle overlay styling. Not caller-configurable.
const (
	circleStrokeColor   = "#FF4500"
	circleStrokeOpacity = 0.8
	circleStrokeWeight  = 2
	circleFillColor     = "#FF4500"
	circleFillOpacity   = 0.35
)

// MarkerDescriptor is the shaped output unit for one record.
type MarkerDescriptor struct {
	Title       interface{}       `json:"title"`
	Description interface{}       `json:"description,omitempty"`
	Value       interface{}       `json:"value"`
	Location    AddressComponents `json:"location"`
	Geometry    *CircleOverlay    `json:"geometry,omitempty"`
}

// AddressComponents holds address labels in insertion order. A label is
// present only when its source field was requested; a present label may
// still carry a null value when the record lacks the field.
type AddressComponents struct {
	pairs []addressPair
	index map[string]int
}

type addressPair struct {
	label string
	value interface{}
}

// Set adds the label, or replaces its value if already present. Order
// follows first insertion.
func (a *AddressComponents) Set(label string, value interface{}) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[label]; ok {
		a.pairs[i].value = value
		return
	}
	a.index[label] = len(a.pairs)
	a.pairs = append(a.pairs, addressPair{label: label, value: value})
}

func (a AddressComponents) Get(label string) (interface{}, bool) {
	i, ok := a.index[label]
	if !ok {
		return nil, false
	}
	return a.pairs[i].value, true
}

func (a AddressComponents) Len() int {
	return len(a.pairs)
}

// Labels returns the present labels in insertion order.
func (a AddressComponents) Labels() []string {
	out := make([]string, len(a.pairs))
	for i, p := range a.pairs {
		out[i] = p.label
	}
	return out
}

// MarshalJSON writes the labels as an object in insertion order.
func (a AddressComponents) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range a.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores label order from the document order.
func (a *AddressComponents) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label := tok.(string)
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return err
		}
		a.Set(label, value)
	}
	_, err := dec.Token() // closing brace
	return err
}

// CircleConfig requests a circle overlay around each marker.
type CircleConfig struct {
	RadiusMeters int
}

// CircleOverlay is the fixed-style circle annotation.
type CircleOverlay struct {
	Type          string  `json:"type"`
	RadiusMeters  int     `json:"radiusMeters"`
	StrokeColor   string  `json:"strokeColor"`
	StrokeOpacity float64 `json:"strokeOpacity"`
	StrokeWeight  int     `json:"strokeWeight"`
	FillColor     string  `json:"fillColor"`
	FillOpacity   float64 `json:"fillOpacity"`
}

func newCircleOverlay(radiusMeters int) *CircleOverlay {
	return &CircleOverlay{
		Type:          "Circle",
		RadiusMeters:  radiusMeters,
		StrokeColor:   circleStrokeColor,
		StrokeOpacity: circleStrokeOpacity,
		StrokeWeight:  circleStrokeWeight,
		FillColor:     circleFillColor,
		FillOpacity:   circleFillOpacity,
	}
}
