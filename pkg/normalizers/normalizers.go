// Package normalizers converts loosely-typed upstream payload fields into the
// shapes the relational store expects.
package normalizers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// maxPlausibleYear bounds what a bare number is read as; anything larger is
// treated as a unix timestamp in milliseconds.
const maxPlausibleYear = 3000

// ExtractYear pulls a release year out of the upstream "year" field. The
// artist source serializes it inconsistently: a bare number, a "YYYY" or
// "YYYY-MM-DD..." string, or a BSON extended-JSON date object
// ({"$date": "..."} / {"$date": millis}). Returns nil when no year can be
// recovered.
func ExtractYear(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return yearFromNumber(asNumber)
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return yearFromString(asString)
	}

	var asDate struct {
		Date json.RawMessage `json:"$date"`
	}
	if err := json.Unmarshal(raw, &asDate); err == nil && len(asDate.Date) > 0 {
		return ExtractYear(asDate.Date)
	}

	return nil
}

func yearFromNumber(n float64) *int {
	if n <= 0 {
		return nil
	}
	if n < maxPlausibleYear {
		year := int(n)
		return &year
	}
	// unix millis
	year := time.UnixMilli(int64(n)).UTC().Year()
	return &year
}

func yearFromString(s string) *int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return nil
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}

// DistinctStrings removes duplicates preserving first-seen order. Matching is
// case-sensitive: "dream pop" and "Dream Pop" are distinct tags.
func DistinctStrings(values []string) []string {
	existing := make(map[string]bool, len(values))
	distinct := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := existing[v]; !ok {
			existing[v] = true
			distinct = append(distinct, v)
		}
	}
	return distinct
}
