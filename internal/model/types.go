// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/gradepoint/internal/grading"
)

// StudentResult is one stored result row for a student.
type StudentResult struct {
	ID         int64
	Student    string
	CourseCode string
	Grade      string
	Unit       int
	BatchID    string
	RecordedAt time.Time
}

// Record converts the row into the engine's normalized record.
func (r StudentResult) Record() grading.ResultRecord {
	return grading.ResultRecord{
		CourseCode: r.CourseCode,
		Grade:      r.Grade,
		Unit:       r.Unit,
	}
}

// Records converts rows into engine records, preserving order.
func Records(rows []StudentResult) []grading.ResultRecord {
	out := make([]grading.ResultRecord, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}

// ResultQuery defines filters for loading a student's results.
type ResultQuery struct {
	Student string
	Since   *time.Time
	Last    int
}

// StudentAggregate summarizes how many results a student has on record.
type StudentAggregate struct {
	Student string
	Results int
	LastAt  time.Time
}

// Course maps a course code to its title.
type Course struct {
	Code  string
	Title string
}
