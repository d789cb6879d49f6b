package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/gradepoint/internal/catalog"
	"github.com/verte-zerg/gradepoint/internal/grading"
	"github.com/verte-zerg/gradepoint/internal/ingest"
	"github.com/verte-zerg/gradepoint/internal/logging"
	"github.com/verte-zerg/gradepoint/internal/model"
	"github.com/verte-zerg/gradepoint/internal/report"
	"github.com/verte-zerg/gradepoint/internal/seed"
	"github.com/verte-zerg/gradepoint/internal/transcriptui"
)

var (
	transcriptStudent string
	transcriptSince   string
	transcriptLast    int
	transcriptJSON    bool

	viewStudent string
	viewSince   string
	viewLast    int

	standingsLimit int

	projectStudent  string
	projectCGPA     float64
	projectDone     int
	projectExpected float64
	projectNext     int

	removeBatch string

	seedStudent string
	seedCount   int
	seedValue   int64
)

var defaultSeedCourses = []string{
	"CSC101", "CSC102", "CSC201", "CSC202", "MTH101", "MTH102",
	"PHY101", "PHY102", "GST101", "GST102", "STA201", "ENG101",
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import JSON or TOML results feeds",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()
	for _, path := range args {
		err := logging.Timed(logger, "import "+path, func() error {
			rows, rejected, err := ingest.LoadFile(path)
			if err != nil {
				return err
			}
			for _, r := range rejected {
				_ = level.Warn(logger).Log("msg", "rejected row", "file", path, "err", r)
			}
			if len(rows) == 0 {
				_, err := fmt.Fprintf(out, "%s: no importable results (%d rejected)\n", path, len(rejected))
				return err
			}
			batchID, err := st.InsertResults(cmd.Context(), rows)
			if err != nil {
				return fmt.Errorf("failed to store %s: %w", path, err)
			}
			_, err = fmt.Fprintf(out, "%s: imported %d results as batch %s (%d rejected)\n", path, len(rows), batchID, len(rejected))
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func newTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Print a student's transcript",
		Args:  cobra.NoArgs,
		RunE:  runTranscriptCmd,
	}
	cmd.Flags().StringVar(&transcriptStudent, "student", "", "student id")
	cmd.Flags().StringVar(&transcriptSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&transcriptLast, "last", 0, "limit to last N results")
	cmd.Flags().BoolVar(&transcriptJSON, "json", false, "print JSON")
	return cmd
}

func runTranscriptCmd(cmd *cobra.Command, _ []string) error {
	q, err := resultQuery(cmd, transcriptStudent, transcriptSince, transcriptLast)
	if err != nil {
		return err
	}
	src, closeSource, err := openSource(cmd)
	if err != nil {
		return err
	}
	defer closeSource()

	r, err := report.BuildReport(cmd.Context(), src, engine, q)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if transcriptJSON {
		return report.WriteJSON(out, r)
	}
	if err := report.RenderSummary(out, r); err != nil {
		return err
	}
	if err := report.RenderResults(out, r.Rows); err != nil {
		return err
	}
	return report.RenderProgression(out, r.Progression, r.MaxPoint, outputWidth(out), 0, report.UseColor(out))
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse a transcript in the terminal UI",
		Args:  cobra.NoArgs,
		RunE:  runViewCmd,
	}
	cmd.Flags().StringVar(&viewStudent, "student", "", "student id")
	cmd.Flags().StringVar(&viewSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&viewLast, "last", 0, "limit to last N results")
	return cmd
}

func runViewCmd(cmd *cobra.Command, _ []string) error {
	q, err := resultQuery(cmd, viewStudent, viewSince, viewLast)
	if err != nil {
		return err
	}
	src, closeSource, err := openSource(cmd)
	if err != nil {
		return err
	}
	defer closeSource()

	ui := transcriptui.NewModel(src, engine, q)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run transcript TUI: %w", err)
	}
	return nil
}

func newStandingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Rank all students by CGPA",
		Args:  cobra.NoArgs,
		RunE:  runStandingsCmd,
	}
	cmd.Flags().IntVar(&standingsLimit, "limit", 0, "show only the top N students")
	return cmd
}

func runStandingsCmd(cmd *cobra.Command, _ []string) error {
	if standingsLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	src, closeSource, err := openSource(cmd)
	if err != nil {
		return err
	}
	defer closeSource()

	standings, err := report.BuildStandings(cmd.Context(), src, engine, standingsLimit)
	if err != nil {
		return err
	}
	return report.RenderStandings(cmd.OutOrStdout(), standings)
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project CGPA after another semester",
		Args:  cobra.NoArgs,
		RunE:  runProjectCmd,
	}
	cmd.Flags().StringVar(&projectStudent, "student", "", "take current CGPA and units from this student's record")
	cmd.Flags().Float64Var(&projectCGPA, "cgpa", 0, "current CGPA")
	cmd.Flags().IntVar(&projectDone, "done", 0, "units completed so far")
	cmd.Flags().Float64Var(&projectExpected, "expected", 0, "expected GPA for the next semester")
	cmd.Flags().IntVar(&projectNext, "next", 0, "units in the next semester")
	return cmd
}

func runProjectCmd(cmd *cobra.Command, _ []string) error {
	maxPoint := engine.Scale().MaxPoint
	if projectNext <= 0 {
		return fmt.Errorf("--next must be > 0")
	}
	if projectExpected < 0 || projectExpected > maxPoint {
		return fmt.Errorf("--expected must be between 0 and %.1f", maxPoint)
	}

	current := grading.Summary{CGPA: projectCGPA, TotalUnits: projectDone}
	if projectStudent != "" {
		src, closeSource, err := openSource(cmd)
		if err != nil {
			return err
		}
		defer closeSource()
		r, err := report.BuildReport(cmd.Context(), src, engine, model.ResultQuery{Student: projectStudent})
		if err != nil {
			return err
		}
		current = r.Summary
	} else if projectCGPA < 0 || projectCGPA > maxPoint || projectDone < 0 {
		return fmt.Errorf("--cgpa must be between 0 and %.1f and --done >= 0", maxPoint)
	}

	projected := engine.ProjectFrom(current, projectExpected, projectNext)
	standing := engine.Standing(projected)
	_, err := fmt.Fprintf(cmd.OutOrStdout(),
		"Current: %.2f over %d units\nProjected CGPA: %.2f (%s)\nStanding: %s\n",
		current.Rounded(), current.TotalUnits,
		grading.RoundCGPA(projected), engine.Classify(projected),
		standing,
	)
	return err
}

func newCoursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "courses FILE",
		Short: "Load a course catalogue (CODE Title per line)",
		Args:  cobra.ExactArgs(1),
		RunE:  runCoursesCmd,
	}
}

func runCoursesCmd(cmd *cobra.Command, args []string) error {
	courses, err := catalog.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := st.UpsertCourses(cmd.Context(), courses); err != nil {
		return fmt.Errorf("failed to store courses: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d courses\n", len(courses))
	return err
}

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete an imported batch",
		Args:  cobra.NoArgs,
		RunE:  runRemoveCmd,
	}
	cmd.Flags().StringVar(&removeBatch, "batch", "", "batch id printed by import")
	return cmd
}

func runRemoveCmd(cmd *cobra.Command, _ []string) error {
	if removeBatch == "" {
		return fmt.Errorf("--batch is required")
	}
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()
	n, err := st.DeleteBatch(cmd.Context(), removeBatch)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d results from batch %s\n", n, removeBatch)
	return err
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo results for a student",
		Args:  cobra.NoArgs,
		RunE:  runSeedCmd,
	}
	cmd.Flags().StringVar(&seedStudent, "student", "", "student id")
	cmd.Flags().IntVar(&seedCount, "count", defaultSeedCount, "number of results")
	cmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed (default: time based)")
	return cmd
}

func runSeedCmd(cmd *cobra.Command, _ []string) error {
	if seedStudent == "" {
		return fmt.Errorf("--student is required")
	}
	if seedCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	titles, err := st.CourseTitles(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load courses: %w", err)
	}
	codes := make([]string, 0, len(titles))
	for code := range titles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	if len(codes) == 0 {
		codes = defaultSeedCourses
	}

	gen := seed.New()
	if cmd.Flags().Changed("seed") {
		gen = seed.NewSeeded(seedValue)
	}
	start := time.Now().Add(-time.Duration(seedCount) * time.Hour)
	rows := gen.Generate(seedStudent, codes, seedCount, start)
	batchID, err := st.InsertResults(cmd.Context(), rows)
	if err != nil {
		return fmt.Errorf("failed to store demo results: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d results for %s as batch %s\n", len(rows), seedStudent, batchID)
	return err
}

func outputWidth(w any) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultPlotWidth
}
