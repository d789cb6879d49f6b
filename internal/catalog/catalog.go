// Package catalog loads course catalogues from text files.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/gradepoint/internal/model"
)

// Load reads a catalogue file of "CODE Title" lines.
func Load(path string) ([]model.Course, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only catalogue.
			_ = cerr
		}
	}()
	return Parse(file)
}

// Parse reads catalogue lines. Blank lines and lines starting with # are
// skipped; later duplicates of a code replace earlier ones.
func Parse(r io.Reader) ([]model.Course, error) {
	var courses []model.Course
	index := map[string]int{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		code, title, ok := strings.Cut(line, " ")
		title = strings.TrimSpace(title)
		if !ok || title == "" {
			return nil, fmt.Errorf("line %d: expected \"CODE Title\", got %q", lineNo, line)
		}
		code = strings.ToUpper(code)
		if !validCode(code) {
			return nil, fmt.Errorf("line %d: invalid course code %q", lineNo, code)
		}
		c := model.Course{Code: code, Title: title}
		if i, seen := index[code]; seen {
			courses[i] = c
			continue
		}
		index[code] = len(courses)
		courses = append(courses, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, fmt.Errorf("course catalogue is empty")
	}
	return courses, nil
}

func validCode(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		ch := code[i]
		if (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') && ch != '-' && ch != '/' {
			return false
		}
	}
	return true
}
