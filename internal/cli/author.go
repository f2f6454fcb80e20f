package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"quiz-client/internal/app"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewAuthorCmd groups the quiz authoring commands.
func NewAuthorCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "author",
		Short: "Author quizzes from YAML drafts",
	}
	cmd.AddCommand(newAuthorInitCmd())
	cmd.AddCommand(newAuthorValidateCmd())
	cmd.AddCommand(newAuthorSubmitCmd(flags))
	cmd.AddCommand(newAuthorHistoryCmd(flags))
	return cmd
}

func newAuthorInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init FILE",
		Short: "Write a draft with one blank question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err == nil {
				return fmt.Errorf("%s already exists", args[0])
			}
			data, err := yaml.Marshal(app.NewDraft())
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], data, 0o644)
		},
	}
}

func newAuthorValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a draft without submitting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := readDraft(args[0])
			if err != nil {
				return err
			}
			violations := draft.Validate()
			if len(violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "draft is valid")
				return nil
			}
			printViolations(cmd.OutOrStdout(), violations)
			return &app.DraftError{Violations: violations}
		},
	}
}

func newAuthorSubmitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "submit FILE",
		Short: "Create the quiz, its questions and options on the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := readDraft(args[0])
			if err != nil {
				return err
			}
			rt, err := newRuntime(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			client, err := rt.client(rt.cookies)
			if err != nil {
				return err
			}
			records, err := rt.submissionLog(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			submitter := app.NewDraftSubmitter(client, records, rt.log.WithField("component", "wizard"))
			report, err := submitter.Submit(ctx, draft)
			var draftErr *app.DraftError
			if errors.As(err, &draftErr) {
				printViolations(out, draftErr.Violations)
				return err
			}
			printReport(out, report)
			return err
		},
	}
}

func newAuthorHistoryCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent draft submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			// the in-process log would always be empty here
			if rt.cfg.Postgres.URL == "" {
				return errNoSubmissionStore
			}

			ctx := cmd.Context()
			records, err := rt.submissionLog(ctx)
			if err != nil {
				return err
			}
			recent, err := records.Recent(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recent) == 0 {
				fmt.Fprintln(out, "no submissions recorded")
				return nil
			}
			for _, r := range recent {
				status := "complete"
				if !r.Report.Complete {
					status = "partial: " + r.Report.Failure
				}
				fmt.Fprintf(out, "%s  quiz %d  %q  %d questions, %d options  %s\n",
					r.SubmittedAt.Format("2006-01-02 15:04:05"), r.Report.QuizID, r.Title,
					len(r.Report.Questions), len(r.Report.Options), status)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of submissions to show")
	return cmd
}

func readDraft(path string) (*app.Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeDraft(f)
}

func decodeDraft(r io.Reader) (*app.Draft, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var draft app.Draft
	if err := dec.Decode(&draft); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	return &draft, nil
}

func printViolations(out io.Writer, violations []string) {
	fmt.Fprintln(out, "Please fix the following:")
	for _, v := range violations {
		fmt.Fprintf(out, "- %s\n", v)
	}
}

func printReport(out io.Writer, report app.SubmitReport) {
	if report.QuizID != 0 {
		fmt.Fprintf(out, "quiz: %d\n", report.QuizID)
	}
	for _, q := range report.Questions {
		fmt.Fprintf(out, "question %s -> %d\n", q.ClientID, q.ServerID)
	}
	for _, o := range report.Options {
		fmt.Fprintf(out, "option %s -> %d\n", o.ClientID, o.ServerID)
	}
	if !report.Complete {
		fmt.Fprintln(out, "submission stopped; the entities above were created and not rolled back")
	}
}
