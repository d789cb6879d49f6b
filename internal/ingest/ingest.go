// Package ingest normalizes loosely shaped results feeds into store rows.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/gradepoint/internal/grading"
	"github.com/verte-zerg/gradepoint/internal/model"
)

// ErrMissingField is returned when a row lacks a student or course code.
var ErrMissingField = errors.New("missing required field")

// ErrUnsupportedFormat is returned for feed files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported feed format")

// RawResult is a decoded feed row before normalization.
type RawResult map[string]any

var (
	studentKeys = []string{"student", "studentId", "student_id", "matric", "reg_no", "id"}
	courseKeys  = []string{"courseCode", "course_code", "code", "course"}
	gradeKeys   = []string{"grade", "result"}
	unitKeys    = []string{"unit", "units", "credit", "credits"}
)

// Rejection records a feed row that could not be normalized.
type Rejection struct {
	Index int
	Err   error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("row %d: %v", r.Index+1, r.Err)
}

// Normalize maps a raw row onto a StudentResult. Unknown grades and
// non-positive units are kept; the grading engine excludes them later.
func Normalize(raw RawResult) (model.StudentResult, error) {
	student := firstString(raw, studentKeys)
	if student == "" {
		return model.StudentResult{}, fmt.Errorf("%w: student", ErrMissingField)
	}
	course := strings.ToUpper(firstString(raw, courseKeys))
	if course == "" {
		return model.StudentResult{}, fmt.Errorf("%w: course code", ErrMissingField)
	}
	return model.StudentResult{
		Student:    student,
		CourseCode: course,
		Grade:      strings.ToUpper(firstString(raw, gradeKeys)),
		Unit:       firstUnit(raw, unitKeys),
	}, nil
}

// NormalizeAll normalizes every row, collecting rejections instead of failing.
func NormalizeAll(raws []RawResult) ([]model.StudentResult, []Rejection) {
	out := make([]model.StudentResult, 0, len(raws))
	var rejected []Rejection
	for i, raw := range raws {
		r, err := Normalize(raw)
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Err: err})
			continue
		}
		out = append(out, r)
	}
	return out, rejected
}

// DecodeJSON reads either a bare array or an object with a "results" array.
func DecodeJSON(r io.Reader) ([]RawResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	dec := func(v any) error {
		d := json.NewDecoder(bytes.NewReader(data))
		d.UseNumber()
		return d.Decode(v)
	}
	if data[0] == '[' {
		var rows []RawResult
		if err := dec(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode results array: %w", err)
		}
		return rows, nil
	}
	var wrapped struct {
		Results []RawResult `json:"results"`
	}
	if err := dec(&wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode results object: %w", err)
	}
	return wrapped.Results, nil
}

// DecodeTOML reads [[results]] tables.
func DecodeTOML(r io.Reader) ([]RawResult, error) {
	var doc struct {
		Results []map[string]any `toml:"results"`
	}
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode results toml: %w", err)
	}
	rows := make([]RawResult, len(doc.Results))
	for i, m := range doc.Results {
		rows[i] = RawResult(m)
	}
	return rows, nil
}

// LoadFile decodes and normalizes a .json or .toml feed.
func LoadFile(path string) ([]model.StudentResult, []Rejection, error) {
	var decode func(io.Reader) ([]RawResult, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		decode = DecodeJSON
	case ".toml":
		decode = DecodeTOML
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only feed.
			_ = cerr
		}
	}()

	raws, err := decode(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	rows, rejected := NormalizeAll(raws)
	return rows, rejected, nil
}

func firstString(raw RawResult, keys []string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case int64:
			s = strconv.FormatInt(t, 10)
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// firstUnit returns the first usable unit value; fractional, unparsable or
// out-of-range values count as missing.
func firstUnit(raw RawResult, keys []string) int {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		var f float64
		switch t := v.(type) {
		case json.Number:
			parsed, err := t.Float64()
			if err != nil {
				continue
			}
			f = parsed
		case int64:
			f = float64(t)
		case float64:
			f = t
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}
		if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > grading.MaxUnit {
			return 0
		}
		return int(f)
	}
	return 0
}
