package grading

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradePoint_NormalizesAndDistinguishesUngraded(t *testing.T) {
	eng := Default()

	point, ok := eng.GradePoint("  a ")
	require.True(t, ok)
	assert.Equal(t, 5.0, point)

	point, ok = eng.GradePoint("f")
	require.True(t, ok, "F is a real zero-point grade")
	assert.Equal(t, 0.0, point)

	_, ok = eng.GradePoint("Z")
	assert.False(t, ok)
	_, ok = eng.GradePoint("")
	assert.False(t, ok)
	_, ok = eng.GradePoint("A-")
	assert.False(t, ok, "A- is only in the extended scale")
}

func TestComputeTranscript_Scenarios(t *testing.T) {
	eng := Default()

	tests := []struct {
		name      string
		records   []ResultRecord
		qp        float64
		units     int
		cgpa      float64
		class     Classification
		excluded  int
		firstNote string
	}{
		{
			name: "two courses",
			records: []ResultRecord{
				{CourseCode: "CSC101", Grade: "A", Unit: 3},
				{CourseCode: "MTH101", Grade: "B", Unit: 2},
			},
			qp: 23, units: 5, cgpa: 4.6, class: FirstClass, firstNote: "Excellent",
		},
		{
			name:    "single fail",
			records: []ResultRecord{{CourseCode: "CSC101", Grade: "F", Unit: 3}},
			units:   3, class: PassClass, firstNote: "Fail",
		},
		{
			name:  "empty",
			class: PassClass,
		},
		{
			name:      "unrecognized grade",
			records:   []ResultRecord{{CourseCode: "X", Grade: "Z", Unit: 3}},
			class:     PassClass,
			excluded:  1,
			firstNote: "Pending",
		},
		{
			name: "retake counts both attempts",
			records: []ResultRecord{
				{CourseCode: "CSC101", Grade: "F", Unit: 3},
				{CourseCode: "CSC101", Grade: "A", Unit: 3},
			},
			qp: 15, units: 6, cgpa: 2.5, class: SecondClassLower, firstNote: "Fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := eng.ComputeTranscript(tt.records)
			assert.InDelta(t, tt.qp, s.TotalQualityPoints, 1e-9)
			assert.Equal(t, tt.units, s.TotalUnits)
			assert.InDelta(t, tt.cgpa, s.CGPA, 1e-9)
			assert.InDelta(t, tt.cgpa, s.Rounded(), 1e-9)
			assert.Equal(t, tt.class, s.Classification)
			assert.Equal(t, tt.excluded, s.Excluded)
			if tt.firstNote != "" {
				assert.Equal(t, tt.firstNote, eng.RemarkFor(tt.records[0].Grade).Label)
			}
		})
	}
}

func TestComputeTranscript_ExcludesNonPositiveUnits(t *testing.T) {
	eng := Default()
	s := eng.ComputeTranscript([]ResultRecord{
		{CourseCode: "CSC101", Grade: "A", Unit: 0},
		{CourseCode: "CSC102", Grade: "B", Unit: -2},
		{CourseCode: "CSC103", Grade: "C", Unit: 2},
	})
	assert.Equal(t, 2, s.TotalUnits)
	assert.Equal(t, 1, s.Counted)
	assert.Equal(t, 2, s.Excluded)
	assert.InDelta(t, 3.0, s.CGPA, 1e-9)
}

func TestComputeTranscript_ExcludesOversizedUnits(t *testing.T) {
	eng := Default()
	s := eng.ComputeTranscript([]ResultRecord{
		{CourseCode: "A1", Grade: "A", Unit: math.MaxInt},
		{CourseCode: "B1", Grade: "A", Unit: math.MaxInt},
		{CourseCode: "C1", Grade: "B", Unit: 3},
		{CourseCode: "D1", Grade: "C", Unit: MaxUnit},
	})
	assert.Equal(t, 3+MaxUnit, s.TotalUnits)
	assert.Equal(t, 2, s.Counted)
	assert.Equal(t, 2, s.Excluded)
	assert.GreaterOrEqual(t, s.CGPA, 3.0)
	assert.LessOrEqual(t, s.CGPA, 4.0)

	_, counted := eng.QualityPoints(ResultRecord{CourseCode: "A1", Grade: "A", Unit: MaxUnit + 1})
	assert.False(t, counted)
}

func TestComputeTranscript_OrderIndependent(t *testing.T) {
	eng, err := NewEngine(ExtendedScale())
	require.NoError(t, err)

	records := []ResultRecord{
		{CourseCode: "CSC101", Grade: "A", Unit: 3},
		{CourseCode: "CSC102", Grade: "B+", Unit: 2},
		{CourseCode: "MTH101", Grade: "A-", Unit: 4},
		{CourseCode: "PHY101", Grade: "D", Unit: 1},
		{CourseCode: "GST101", Grade: "E", Unit: 2},
		{CourseCode: "BIO101", Grade: "??", Unit: 3},
		{CourseCode: "CHM101", Grade: "c", Unit: 3},
	}
	want := eng.ComputeTranscript(records)

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]ResultRecord(nil), records...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, eng.ComputeTranscript(shuffled))
	}
}

func TestComputeTranscript_DuplicatesCountTwice(t *testing.T) {
	eng := Default()
	one := ResultRecord{CourseCode: "CSC101", Grade: "B", Unit: 3}

	single := eng.ComputeTranscript([]ResultRecord{one})
	double := eng.ComputeTranscript([]ResultRecord{one, one})

	assert.InDelta(t, 2*single.TotalQualityPoints, double.TotalQualityPoints, 1e-9)
	assert.Equal(t, 2*single.TotalUnits, double.TotalUnits)
	assert.InDelta(t, single.CGPA, double.CGPA, 1e-9)
	assert.Equal(t, 2, double.Counted)
}

func TestComputeTranscript_CGPAWithinRange(t *testing.T) {
	eng := Default()
	grades := eng.Scale().Grades()
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := 1 + rnd.Intn(12)
		records := make([]ResultRecord, n)
		for j := range records {
			records[j] = ResultRecord{
				CourseCode: "C",
				Grade:      grades[rnd.Intn(len(grades))],
				Unit:       1 + rnd.Intn(6),
			}
		}
		s := eng.ComputeTranscript(records)
		require.Greater(t, s.TotalUnits, 0)
		assert.GreaterOrEqual(t, s.CGPA, 0.0)
		assert.LessOrEqual(t, s.CGPA, 5.0)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	eng := Default()
	tests := []struct {
		cgpa float64
		want Classification
	}{
		{5, FirstClass},
		{4.5, FirstClass},
		{4.4999999, SecondClassUpper},
		{4.495, SecondClassUpper},
		{3.5, SecondClassUpper},
		{3.4999, SecondClassLower},
		{2.5, SecondClassLower},
		{2.49, ThirdClass},
		{1.5, ThirdClass},
		{1.49, PassClass},
		{0, PassClass},
		{-1, PassClass},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eng.Classify(tt.cgpa), "cgpa %v", tt.cgpa)
	}
	assert.Equal(t, PassClass, eng.LowestBand())
}

func TestClassify_UsesUnroundedValue(t *testing.T) {
	eng := Default()
	// 4.495 displays as 4.50 but must stay in the lower band.
	s := Summary{CGPA: 4.495}
	assert.InDelta(t, 4.5, s.Rounded(), 1e-9)
	assert.Equal(t, SecondClassUpper, eng.Classify(s.CGPA))
}

func TestRemarkFor(t *testing.T) {
	eng := Default()
	tests := map[string]Remark{
		"A":  {Label: "Excellent", Severity: SeverityPass},
		"b":  {Label: "Very Good", Severity: SeverityPass},
		"C":  {Label: "Good", Severity: SeverityPass},
		"D":  {Label: "Fair", Severity: SeverityWarn},
		"E":  {Label: "Pass", Severity: SeverityWarn},
		"F":  {Label: "Fail", Severity: SeverityFail},
		"Z":  PendingRemark,
		"":   PendingRemark,
		"A+": PendingRemark,
	}
	for grade, want := range tests {
		assert.Equal(t, want, eng.RemarkFor(grade), "grade %q", grade)
	}
}

func TestRemarkFor_UnlabelledGradeSeverityFollowsPoint(t *testing.T) {
	s := DefaultScale()
	s.Points["X"] = 0
	s.Points["P"] = 2.5
	eng, err := NewEngine(s)
	require.NoError(t, err)

	assert.Equal(t, Remark{Label: "X", Severity: SeverityFail}, eng.RemarkFor("x"))
	assert.Equal(t, Remark{Label: "P", Severity: SeverityPass}, eng.RemarkFor("P"))
}

func TestRemarks_KeepsExcludedRows(t *testing.T) {
	eng := Default()
	records := []ResultRecord{
		{CourseCode: "CSC101", Grade: "A", Unit: 3},
		{CourseCode: "CSC102", Grade: "Z", Unit: 3},
		{CourseCode: "CSC103", Grade: "B", Unit: 0},
	}
	rows := eng.Remarks(records)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].Counted)
	assert.InDelta(t, 15.0, rows[0].QualityPoints, 1e-9)

	assert.False(t, rows[1].Graded)
	assert.False(t, rows[1].Counted)
	assert.Equal(t, "Pending", rows[1].Remark.Label)

	assert.True(t, rows[2].Graded)
	assert.False(t, rows[2].Counted)
	assert.Equal(t, "Very Good", rows[2].Remark.Label)
}

func TestEngine_ConcurrentUse(t *testing.T) {
	eng := Default()
	records := []ResultRecord{
		{CourseCode: "CSC101", Grade: "A", Unit: 3},
		{CourseCode: "MTH101", Grade: "B", Unit: 2},
	}
	want := eng.ComputeTranscript(records)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, eng.ComputeTranscript(records))
		}()
	}
	wg.Wait()
}
