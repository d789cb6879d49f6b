package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/gradepoint/internal/config"
)

type testEnv struct {
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	t.Setenv(config.EnvDB, "")
	t.Setenv(config.EnvPGURL, "")
	dir := t.TempDir()
	return testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.toml"),
		db:     filepath.Join(dir, "gradepoint.db"),
	}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestImportAndTranscript(t *testing.T) {
	env := newTestEnv(t)
	feed := env.write(t, "feed.json", `{"results": [
		{"student": "U1", "courseCode": "CSC101", "grade": "A", "unit": 3},
		{"student_id": "U1", "course_code": "MTH101", "grade": "C", "unit": "3"},
		{"matric": "U2", "code": "CSC101", "result": "B", "units": 3},
		{"grade": "A"}
	]}`)

	out, err := env.run(t, "import", feed)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported 3 results") || !strings.Contains(out, "(1 rejected)") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out, err = env.run(t, "transcript", "--student", "U1", "--json")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	var decoded struct {
		CGPA           float64 `json:"cgpa"`
		Classification string  `json:"classification"`
		Results        []any   `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode transcript json: %v\n%s", err, out)
	}
	if decoded.CGPA != 4 || decoded.Classification != "Second Class Upper" || len(decoded.Results) != 2 {
		t.Fatalf("unexpected transcript: %+v", decoded)
	}

	out, err = env.run(t, "transcript", "--student", "U1")
	if err != nil {
		t.Fatalf("transcript text: %v", err)
	}
	for _, want := range []string{"CGPA: 4.00", "MTH101", "Progression:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = env.run(t, "standings")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "U1") {
		t.Fatalf("unexpected standings:\n%s", out)
	}
}

func TestTranscriptRequiresStudent(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "transcript"); err == nil {
		t.Fatalf("expected error without --student")
	}
}

func TestTranscriptStudentFromConfig(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "config.toml", "[report]\nstudent = \"U7\"\n")
	out, err := env.run(t, "transcript")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if !strings.Contains(out, "Transcript: U7") {
		t.Fatalf("expected configured student, got:\n%s", out)
	}
}

func TestProject(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "project", "--cgpa", "4", "--done", "6", "--expected", "5", "--next", "6")
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !strings.Contains(out, "Projected CGPA: 4.50 (First Class)") {
		t.Fatalf("unexpected projection: %q", out)
	}

	if _, err := env.run(t, "project", "--cgpa", "4", "--done", "6", "--expected", "7", "--next", "6"); err == nil {
		t.Fatalf("expected error for expected GPA above scale")
	}
	if _, err := env.run(t, "project", "--cgpa", "4", "--done", "6", "--expected", "4"); err == nil {
		t.Fatalf("expected error without --next")
	}
}

func TestCoursesSeedAndRemove(t *testing.T) {
	env := newTestEnv(t)
	catalogue := env.write(t, "courses.txt", "# catalogue\nCSC101 Intro to Computing\nMTH101 Calculus I\n")
	out, err := env.run(t, "courses", catalogue)
	if err != nil {
		t.Fatalf("courses: %v", err)
	}
	if !strings.Contains(out, "Loaded 2 courses") {
		t.Fatalf("unexpected courses output: %q", out)
	}

	out, err = env.run(t, "seed", "--student", "DEMO", "--count", "5", "--seed", "7")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	fields := strings.Fields(out)
	if len(fields) == 0 || !strings.HasPrefix(out, "Seeded 5 results for DEMO") {
		t.Fatalf("unexpected seed output: %q", out)
	}
	batchID := fields[len(fields)-1]

	out, err = env.run(t, "remove", "--batch", batchID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(out, "Removed 5 results") {
		t.Fatalf("unexpected remove output: %q", out)
	}
	if _, err := env.run(t, "remove", "--batch", batchID); err == nil {
		t.Fatalf("expected error removing the same batch twice")
	}
}

func TestInvalidScale(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "--scale", "ects", "standings"); err == nil {
		t.Fatalf("expected error for unknown scale")
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "template.toml", defaultConfigTemplate())
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if cfg.Store.DB != nil || cfg.Grading.Scale != nil {
		t.Fatalf("expected template values to be commented out: %+v", cfg)
	}
}
