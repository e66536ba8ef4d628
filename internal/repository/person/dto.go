package person

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/reunite-labs/reunite/internal/domain"
	domperson "github.com/reunite-labs/reunite/internal/domain/person"
)

// Hash field names. The embedding uses a dunder prefix so it can never
// collide with a metadata field.
const (
	fieldVector     = "__vector"
	fieldName       = "name"
	fieldAge        = "age"
	fieldGender     = "gender"
	fieldAddress    = "address"
	fieldPlaceSeen  = "place_last_seen"
	fieldClothing   = "clothing"
	fieldFeatures   = "features"
	fieldImageURL   = "image_url"
	fieldStatus     = "status"
	fieldCreatedAt  = "created_at"
	fieldResolvedAt = "resolved_at"
	fieldResBy      = "resolved_by"
	fieldResWhere   = "resolved_location"
	fieldResContact = "resolved_contact"
)

func recordKey(kind domperson.Kind, id string) string {
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, kind, id)
}

func extractID(key string, kind domperson.Kind) string {
	return strings.TrimPrefix(key, fmt.Sprintf("%s%s:", domain.KeyPrefix, kind))
}

// buildHashFields converts a record into a flat map for HSET. Empty
// optional fields are stored as empty strings so overwrites clear them.
func buildHashFields(rec domperson.Record) map[string]string {
	res := rec.Resolution()
	m := map[string]string{
		fieldVector:     vectorToBytes(rec.Embedding()),
		fieldName:       rec.Name(),
		fieldAge:        strconv.Itoa(rec.Age()),
		fieldGender:     rec.Gender(),
		fieldAddress:    rec.Address(),
		fieldPlaceSeen:  rec.PlaceLastSeen(),
		fieldClothing:   rec.Clothing(),
		fieldFeatures:   rec.Features(),
		fieldImageURL:   rec.ImageURL(),
		fieldStatus:     string(rec.Status()),
		fieldCreatedAt:  strconv.FormatInt(rec.CreatedAt().UnixMilli(), 10),
		fieldResBy:      res.By,
		fieldResWhere:   res.Location,
		fieldResContact: res.Contact,
	}
	if !rec.ResolvedAt().IsZero() {
		m[fieldResolvedAt] = strconv.FormatInt(rec.ResolvedAt().UnixMilli(), 10)
	}
	return m
}

// parseHashFields converts a flat hash map back into a domain record.
func parseHashFields(id string, kind domperson.Kind, m map[string]string) domperson.Record {
	age, _ := strconv.Atoi(m[fieldAge])

	d := domperson.Details{
		Name:          m[fieldName],
		Age:           age,
		Gender:        m[fieldGender],
		Address:       m[fieldAddress],
		PlaceLastSeen: m[fieldPlaceSeen],
		Clothing:      m[fieldClothing],
		Features:      m[fieldFeatures],
		ImageURL:      m[fieldImageURL],
	}

	res := domperson.Resolution{
		By:       m[fieldResBy],
		Location: m[fieldResWhere],
		Contact:  m[fieldResContact],
	}

	return domperson.Reconstruct(
		id, kind, d,
		bytesToVector(m[fieldVector]),
		domperson.Status(m[fieldStatus]),
		parseMillis(m[fieldCreatedAt]),
		parseMillis(m[fieldResolvedAt]),
		res,
	)
}

func parseMillis(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per
// float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
