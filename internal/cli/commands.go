package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/domain"
	"tutorial-tracker/internal/report"
)

// withDeps opens the configured stores around fn.
func withDeps(fn func(cmd *cobra.Command, args []string, d *deps) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer d.Close()
		return fn(cmd, args, d)
	}
}

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List every lesson and quiz in navigation order",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			state := d.service.State()
			completed := domain.NewCompletionSet(state.Completed...)
			out := cmd.OutOrStdout()
			for i, step := range d.service.Steps() {
				if step.IsQuiz() {
					fmt.Fprintf(out, "%3d     %s/quiz  %s\n", i, step.SectionID, quizStatus(state.QuizProgress, step.SectionID))
					continue
				}
				mark := " "
				if completed.Has(step.LessonKey()) {
					mark = "x"
				}
				fmt.Fprintf(out, "%3d [%s] %s/%s\n", i, mark, step.SectionID, step.StepID)
			}
			return nil
		}),
	}
}

func newVisitCmd() *cobra.Command {
	var next, previous bool
	cmd := &cobra.Command{
		Use:   "visit <section> <step>",
		Short: "Visit a lesson (marking it complete) or a section quiz",
		Args:  cobra.ExactArgs(2),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			steps := d.service.Steps()
			step := domain.Step{SectionID: args[0], StepID: args[1]}
			if step.StepID == "quiz" {
				step.StepID = domain.QuizStepID
			}
			idx := app.IndexOf(steps, step)
			if idx == app.NotFound {
				return fmt.Errorf("%s/%s: %w", args[0], args[1], domain.ErrStepNotFound)
			}

			var ok bool
			switch {
			case next:
				if step, ok = app.Next(steps, idx); !ok {
					return errors.New("already at the last step")
				}
			case previous:
				if step, ok = app.Previous(steps, idx); !ok {
					return errors.New("already at the first step")
				}
			}

			state, err := d.service.Select(cmd.Context(), step.SectionID, step.StepID)
			if err != nil {
				return err
			}
			printPosition(cmd.OutOrStdout(), d, state)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&next, "next", false, "visit the step after the given one")
	cmd.Flags().BoolVar(&previous, "previous", false, "visit the step before the given one")
	cmd.MarkFlagsMutuallyExclusive("next", "previous")
	return cmd
}

func printPosition(out io.Writer, d *deps, state app.State) {
	step := state.Current
	if step.IsQuiz() {
		fmt.Fprintf(out, "%s quiz (step %d of %d)\n", step.SectionID, state.Index+1, state.StepCount)
	} else if _, lesson, err := d.service.Lesson(step.SectionID, step.StepID); err == nil {
		fmt.Fprintf(out, "%s (step %d of %d)\n", lesson.Title, state.Index+1, state.StepCount)
	}
	fmt.Fprintf(out, "completed lessons: %d/%d\n", len(state.Completed), d.catalog.LessonCount())
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search lesson titles and explanations",
		Args:  cobra.MinimumNArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			out := cmd.OutOrStdout()
			results, active := d.service.Search(strings.Join(args, " "))
			if !active {
				return errors.New("search query is blank")
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "no matching lessons")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s/%s  %s › %s\n    %s\n", r.SectionID, r.LessonID, r.SectionTitle, r.LessonTitle, r.Preview)
			}
			return nil
		}),
	}
}

func newQuizCmd() *cobra.Command {
	var answers []string
	cmd := &cobra.Command{
		Use:   "quiz <section>",
		Short: "Show a section quiz, or submit answers with --answer q1=a,b",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			out := cmd.OutOrStdout()
			sectionID := args[0]
			quiz, err := d.service.Quiz(cmd.Context(), sectionID)
			if errors.Is(err, domain.ErrQuizUnavailable) {
				fmt.Fprintf(out, "%s: quiz not yet available\n", sectionID)
				return nil
			}
			if err != nil {
				return err
			}

			if len(answers) == 0 {
				printQuiz(out, quiz)
				return nil
			}
			parsed, err := parseAnswers(answers)
			if err != nil {
				return err
			}
			result, err := d.service.SubmitAnswers(cmd.Context(), sectionID, parsed)
			if err != nil {
				return err
			}
			printResult(out, quiz, result)
			return nil
		}),
	}
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "answer as question=option[,option] (repeatable)")
	return cmd
}

func parseAnswers(raw []string) (app.Answers, error) {
	answers := app.Answers{}
	for _, item := range raw {
		question, options, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(question) == "" {
			return nil, fmt.Errorf("invalid answer %q, want question=option[,option]", item)
		}
		var selected []string
		for _, o := range strings.Split(options, ",") {
			if o = strings.TrimSpace(o); o != "" {
				selected = append(selected, o)
			}
		}
		answers[strings.TrimSpace(question)] = selected
	}
	return answers, nil
}

func printQuiz(out io.Writer, quiz domain.SectionQuiz) {
	fmt.Fprintf(out, "%s (%d questions, pass %d%%)\n", quiz.Title, len(quiz.Questions), quiz.Threshold())
	for _, q := range quiz.Questions {
		fmt.Fprintf(out, "\n[%s] %s (%s)\n", q.ID, q.Prompt, q.Kind)
		for _, o := range q.Options {
			fmt.Fprintf(out, "   %s) %s\n", o.ID, o.Text)
		}
	}
}

func printResult(out io.Writer, quiz domain.SectionQuiz, result app.QuizResult) {
	verdict := "not passed"
	if result.Passed {
		verdict = "passed"
	}
	fmt.Fprintf(out, "%s: %d/%d correct (%d%%), %s\n", quiz.Title, result.Score.Correct, result.Score.Total, result.Score.Percent, verdict)
	fmt.Fprintf(out, "best %d%% over %d attempts\n", result.Record.BestPercent, result.Record.Attempts)
	for _, r := range result.Review {
		mark := "✗"
		if r.Correct {
			mark = "✓"
		}
		fmt.Fprintf(out, "  %s %s: chose %s, expected %s\n", mark, r.QuestionID, strings.Join(r.Selected, ","), strings.Join(r.Expected, ","))
		if !r.Correct && r.Explanation != "" {
			fmt.Fprintf(out, "      %s\n", r.Explanation)
		}
	}
}

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "toggle"},
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			state := d.service.State()
			var err error
			switch {
			case len(args) == 0:
			case args[0] == "toggle":
				state, err = d.service.ToggleTheme(cmd.Context())
			default:
				var theme domain.Theme
				if theme, err = domain.ParseTheme(args[0]); err == nil {
					state, err = d.service.SetTheme(cmd.Context(), theme)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.Theme)
			return nil
		}),
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarise progress per section",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			out := cmd.OutOrStdout()
			doc := d.service.Report()
			fmt.Fprintf(out, "%s\n", doc.Title)
			fmt.Fprintf(out, "lessons %d/%d (%d%%), quizzes passed %d, sections complete %d/%d, theme %s\n\n",
				doc.Summary.Lessons.Completed, doc.Summary.Lessons.Total, doc.Summary.Lessons.Percent,
				doc.Summary.QuizzesPassed, doc.Summary.CompletedSections, doc.Summary.TotalSections,
				d.service.State().Theme)
			for _, s := range doc.Sections {
				fmt.Fprintf(out, "%-24s %d/%d lessons  %s\n", s.Title, s.Lessons.Completed, s.Lessons.Total, quizStatus(d.service.State().QuizProgress, s.ID))
			}
			return nil
		}),
	}
}

func quizStatus(progress domain.QuizProgress, sectionID string) string {
	rec, ok := progress[sectionID]
	if !ok {
		return "quiz not attempted"
	}
	if rec.Passed {
		return fmt.Sprintf("quiz passed (best %d%%)", rec.BestPercent)
	}
	return fmt.Sprintf("quiz best %d%%", rec.BestPercent)
}

func newReportCmd() *cobra.Command {
	var (
		dir      string
		xlsx     bool
		html     bool
		printOut bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export a progress report (JSON and Markdown, optionally XLSX and HTML)",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			doc := d.service.Report()
			if printOut {
				fmt.Fprint(cmd.OutOrStdout(), report.Markdown(doc))
				return nil
			}

			formats := []report.Format{report.FormatJSON, report.FormatMarkdown}
			if xlsx {
				formats = append(formats, report.FormatXLSX)
			}
			if html {
				formats = append(formats, report.FormatHTML)
			}
			if dir == "" {
				dir = cfg.Report.Dir
			}
			paths, err := report.NewExporter(dir, cfg.Storage.KeyPrefix).Export(doc, formats...)
			if err != nil {
				return err
			}
			sort.Strings(paths)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&dir, "out", "", "output directory (defaults to report.dir)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also write an Excel workbook")
	cmd.Flags().BoolVar(&html, "html", false, "also write an HTML page")
	cmd.Flags().BoolVar(&printOut, "print", false, "print Markdown to stdout instead of writing files")
	return cmd
}

func newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase completion, quiz progress and theme",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			if !yes {
				return errors.New("refusing to erase progress without --yes")
			}
			if err := d.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "progress erased")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing all progress")
	return cmd
}
