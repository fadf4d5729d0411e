package layer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/models"
)

// ErrMalformed is returned when a blob is not a JSON array of layers.
var ErrMalformed = errors.New("layer: malformed layer list")

// Report describes what Decode had to repair.
type Report struct {
	// Dropped counts entries that were skipped for missing or invalid
	// required fields.
	Dropped int
	// Corrected counts lots whose bowtie destination was re-ordered.
	Corrected int
	// Masters counts master entries seen; all but the last are dropped.
	Masters int
}

// Marshal encodes the list in the persisted array format.
func Marshal(l *List) ([]byte, error) {
	recs := make([]models.LayerRecord, 0, l.Len())
	for _, ly := range l.layers {
		recs = append(recs, toRecord(ly))
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode layers: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a blob. It never fails hard: a blob that is not an array
// yields an empty list together with ErrMalformed, and invalid entries are
// skipped.
func Unmarshal(data []byte) (*List, error) {
	l, _, err := Decode(data)
	return l, err
}

// Decode is Unmarshal with a repair report.
func Decode(data []byte) (*List, Report, error) {
	var rep Report
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewList(), rep, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		// A JSON null decodes to no layers.
		return NewList(), rep, nil
	}

	var layers []*Layer
	for _, msg := range raw {
		var rec models.LayerRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			rep.Dropped++
			continue
		}
		ly, corrected, ok := fromRecord(rec)
		if !ok {
			rep.Dropped++
			continue
		}
		if corrected {
			rep.Corrected++
		}
		if ly.Kind == KindMaster {
			rep.Masters++
		}
		layers = append(layers, ly)
	}
	return NewList(layers...), rep, nil
}

func toRecord(ly *Layer) models.LayerRecord {
	rec := models.LayerRecord{
		Type:    ly.Kind.String(),
		URL:     ly.URL,
		MediaID: models.MediaID(ly.MediaID),
		DstPts:  pointRecords(ly.Dst),
	}
	if ly.Kind == KindLot && ly.Src != ([4]geo.Point{}) {
		rec.SrcPts = pointRecords(ly.Src)
	}
	return rec
}

func pointRecords(q [4]geo.Point) []models.PointRecord {
	out := make([]models.PointRecord, 4)
	for i, p := range q {
		out[i] = models.FromPoint(p)
	}
	return out
}

// quad converts exactly four finite records into points.
func quad(recs []models.PointRecord) ([4]geo.Point, bool) {
	var q [4]geo.Point
	if len(recs) != 4 {
		return q, false
	}
	for i, r := range recs {
		q[i] = r.Point()
	}
	return q, geo.AllFinite(q[:]...)
}

func fromRecord(rec models.LayerRecord) (ly *Layer, corrected, ok bool) {
	dst, ok := quad(rec.DstPts)
	if !ok {
		return nil, false, false
	}

	switch rec.Type {
	case models.TypeMaster:
		m := NewMaster(rec.URL, string(rec.MediaID), dst[2].X, dst[2].Y)
		m.Dst = dst
		return m, false, true

	case models.TypeLot:
		// srcPts is derived data; a missing or broken one is recomputed
		// once the image loads.
		src, ok := quad(rec.SrcPts)
		if !ok {
			src = [4]geo.Point{}
		}
		fixed, simple := FixWinding(dst)
		if !simple {
			return nil, false, false
		}
		corrected = fixed != dst
		lot, err := NewLot(rec.URL, string(rec.MediaID), src, fixed)
		if err != nil {
			return nil, false, false
		}
		return lot, corrected, true

	default:
		return nil, false, false
	}
}
