// Package models holds the persisted wire shapes of a layer list. Values here
// are plain JSON carriers; geometry code works on geo.Point and layer.Layer.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apps-seb/lotwarp/pkg/geo"
)

// Layer type tags as they appear in the blob.
const (
	TypeMaster = "master"
	TypeLot    = "lot"
)

// ErrMissingCoordinate is returned when a point object lacks x or y.
var ErrMissingCoordinate = errors.New("models: point missing coordinate")

// PointRecord is a bare {"x":..,"y":..} object.
type PointRecord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UnmarshalJSON requires both coordinates to be present.
func (p *PointRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.X == nil || raw.Y == nil {
		return ErrMissingCoordinate
	}
	p.X, p.Y = *raw.X, *raw.Y
	return nil
}

// Point converts the record into a geometry point.
func (p PointRecord) Point() geo.Point {
	return geo.Pt(p.X, p.Y)
}

// FromPoint converts a geometry point into its record.
func FromPoint(p geo.Point) PointRecord {
	return PointRecord{X: p.X, Y: p.Y}
}

// MediaID is the external asset identifier. Stores have written it both as a
// string and as a number, so both decode; it always encodes as a string.
type MediaID string

// UnmarshalJSON accepts a JSON string, number or null.
func (m *MediaID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*m = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MediaID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("media_id: %w", err)
		}
		*m = MediaID(n.String())
		return nil
	}
}

// LayerRecord is one entry of the persisted layer array.
type LayerRecord struct {
	Type    string        `json:"type"`
	URL     string        `json:"url"`
	MediaID MediaID       `json:"media_id"`
	SrcPts  []PointRecord `json:"srcPts,omitempty"`
	DstPts  []PointRecord `json:"dstPts"`
}
