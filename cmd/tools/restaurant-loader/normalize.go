// cmd/tools/restaurant-loader/normalize.go
package main

import (
	"bufio"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"zomato-recommender/internal/models"
)

var errMissingName = stderrors.New("restaurant row is missing a name")

// rawRow is one dataset record. Numbers are kept as json.Number.
type rawRow map[string]interface{}

// readRows accepts either a JSON array of objects or one object per line.
func readRows(r io.Reader) ([]rawRow, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	if first == '[' {
		var rows []rawRow
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode json array: %w", err)
		}
		return rows, nil
	}

	var rows []rawRow
	for line := 1; ; line++ {
		var row rawRow
		if err := dec.Decode(&row); err != nil {
			if stderrors.Is(err, io.EOF) {
				return rows, nil
			}
			return nil, fmt.Errorf("decode record %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) {
			return b, br.UnreadByte()
		}
	}
}

// firstPresent returns the first value under keys that is not empty, zero
// or null.
func firstPresent(row rawRow, keys ...string) interface{} {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || isBlank(v) {
			continue
		}
		return v
	}
	return nil
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

func stringOf(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}

// normalizeRow maps a raw record onto the stored restaurant shape.
func normalizeRow(row rawRow) (models.Restaurant, error) {
	name := strings.TrimSpace(stringOf(firstPresent(row, "name", "restaurant_name")))
	if name == "" {
		return models.Restaurant{}, errMissingName
	}

	r := models.Restaurant{Name: name}

	if loc := strings.TrimSpace(stringOf(firstPresent(row, "location", "city", "address"))); loc != "" {
		r.Location = models.StringPtr(loc)
	}
	r.Cuisines = normalizeCuisines(firstPresent(row, "cuisines", "cuisine"))
	r.PriceRange = parsePrice(firstPresent(row, "price_range", "price", "approx_cost", "approx_cost(for two people)"))
	r.Rating = parseRating(firstPresent(row, "rating", "aggregate_rating", "rate"))

	return r, nil
}

// normalizeCuisines joins the comma separated tags with ", ". Lists are
// flattened and repeated tags dropped in order.
func normalizeCuisines(v interface{}) *string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = splitTags(t)
	case []interface{}:
		seen := make(map[string]struct{})
		for _, item := range t {
			if item == nil {
				continue
			}
			for _, tag := range splitTags(stringOf(item)) {
				if _, dup := seen[tag]; dup {
					continue
				}
				seen[tag] = struct{}{}
				parts = append(parts, tag)
			}
		}
	default:
		return nil
	}
	if len(parts) == 0 {
		return nil
	}
	return models.StringPtr(strings.Join(parts, ", "))
}

func splitTags(s string) []string {
	var out []string
	for _, piece := range strings.Split(s, ",") {
		if piece = strings.TrimSpace(piece); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// parsePrice keeps only the digits of text values such as "₹1,500 for two".
func parsePrice(v interface{}) *int {
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return models.IntPtr(int(f))
		}
		return nil
	case float64:
		return models.IntPtr(int(t))
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, stringOf(v))
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return models.IntPtr(n)
}

var ratingMarkers = map[string]struct{}{
	"NEW": {}, "N/A": {}, "-": {}, "NULL": {},
}

// parseRating understands "4.1", "4.1/5" and the NEW/N/A/-/NULL markers.
func parseRating(v interface{}) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return models.Float64Ptr(f)
		}
		return nil
	case float64:
		return models.Float64Ptr(t)
	}

	s := strings.TrimSpace(stringOf(v))
	if s == "" {
		return nil
	}
	if _, marker := ratingMarkers[strings.ToUpper(s)]; marker {
		return nil
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return models.Float64Ptr(f)
}

// normalizeAll drops rows without a name and returns how many were skipped.
func normalizeAll(rows []rawRow) ([]models.Restaurant, int) {
	out := make([]models.Restaurant, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		r, err := normalizeRow(row)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, r)
	}
	return out, skipped
}
