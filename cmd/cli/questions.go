package main

import (
	"fmt"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/fanout"
	"github.com/myrjola/faqforge/internal/prompts"
	"github.com/spf13/cobra"
	"io"
	"strings"
)

func questionsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "questions",
		GroupID: pipelineGroup.ID,
		Short:   "Generate and curate questions",
	}
	cmd.AddCommand(
		generateQuestionsCmd(c),
		&cobra.Command{
			Use:   "sort",
			Short: "Group near-duplicate questions",
			Long:  "Replaces the questions with the analysis provider's grouping. Nothing changes when it fails.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				before := len(s.store.Questions())
				sorted, err := s.bench.SmartSort(cmd.Context())
				if err != nil {
					return errors.Wrap(err, "smart sort")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d questions sorted into %d.\n", before, len(sorted))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List questions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				table := newTable(cmd)
				_, _ = fmt.Fprintln(table, "ID\tTOPIC\tCATEGORY\tSOURCE\tQUESTION\tSIMILAR")
				for _, q := range s.store.Questions() {
					similar := 0
					if q.GroupInfo != nil {
						similar = len(q.GroupInfo.SimilarQuestions)
					}
					_, _ = fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%s\t%d\n", q.ID, q.Topic, q.Category, q.Source,
						q.Question, similar)
				}
				return table.Flush() //nolint:wrapcheck // output errors are reported as is
			},
		},
		addQuestionCmd(c),
		&cobra.Command{
			Use:   "delete [id]...",
			Short: "Delete questions",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				ids, err := parseIDs(args)
				if err != nil {
					return err
				}
				removed, err := s.store.DeleteQuestions(cmd.Context(), ids)
				if err != nil {
					return errors.Wrap(err, "delete questions")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d questions deleted.\n", removed)
				return nil
			},
		},
		&cobra.Command{
			Use:   "import [file]",
			Short: "Import questions from a JSON export",
			Long:  `Adds the questions of a file written by "questions export" with fresh ids. Use "-" for standard input.`,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				return readInput(cmd, args[0], func(r io.Reader) error {
					added, importErr := s.store.ImportQuestions(cmd.Context(), r)
					if importErr != nil {
						return errors.Wrap(importErr, "import questions")
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d questions imported.\n", added)
					return nil
				})
			},
		},
		exportCmd(c, "Export questions as JSON", func(s *session, w io.Writer) error {
			return s.store.ExportQuestions(w)
		}),
	)
	return cmd
}

func generateQuestionsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate questions for every eligible topic",
		Long:  generateQuestionsHelp(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			providerNames, err := cmd.Flags().GetStringSlice("provider")
			if err != nil {
				return errors.Wrap(err, "invalid provider flag")
			}
			categoryNames, err := cmd.Flags().GetStringSlice("category")
			if err != nil {
				return errors.Wrap(err, "invalid category flag")
			}
			providers := make([]ai.ProviderID, 0, len(providerNames))
			for _, name := range providerNames {
				p, parseErr := ai.ParseProvider(name)
				if parseErr != nil {
					return errors.Wrap(parseErr, "parse provider")
				}
				providers = append(providers, p)
			}
			categories := make([]prompts.Category, 0, len(categoryNames))
			for _, name := range categoryNames {
				categories = append(categories, prompts.Category(name))
			}

			report, err := s.bench.GenerateQuestions(cmd.Context(), providers, categories)
			if err != nil {
				return errors.Wrap(err, "generate questions")
			}
			printReport(cmd.OutOrStdout(), report, s.diagnostics)
			return nil
		},
	}
	cmd.Flags().StringSlice("provider", nil, "providers to use, e.g. GPT-4,Claude")
	cmd.Flags().StringSlice("category", nil, `categories to request, e.g. "Technical Questions"`)
	return cmd
}

func generateQuestionsHelp() string {
	var b strings.Builder
	b.WriteString(`Requests questions for every topic not used yet or marked active, from every provider and category at once
per topic. Without --provider every provider the server has configured is used.

Base categories, used without --category:
`)
	for _, c := range prompts.DefaultCategories() {
		_, _ = fmt.Fprintf(&b, "  %s\n", c)
	}
	b.WriteString("Extended categories:\n")
	for _, c := range prompts.ExtendedCategories() {
		_, _ = fmt.Fprintf(&b, "  %s\n", c)
	}
	return b.String()
}

func printReport(w io.Writer, report fanout.Report, diagnostics bool) {
	_, _ = fmt.Fprintf(w, "%d questions generated for %d topics.\n", report.Added, report.Topics)
	if report.Errors == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "%d requests failed.\n", report.Errors)
	if !diagnostics {
		return
	}
	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(w, "  %s / %s / %s: %v\n", f.Topic, f.Provider, f.Category, f.Err)
	}
}

func addQuestionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [question]",
		Short: "Add a question by hand",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			topic, err := cmd.Flags().GetString("topic")
			if err != nil {
				return errors.Wrap(err, "invalid topic flag")
			}
			category, err := cmd.Flags().GetString("category")
			if err != nil {
				return errors.Wrap(err, "invalid category flag")
			}
			q, err := s.store.AddManualQuestion(cmd.Context(), topic, category, strings.Join(args, " "))
			if err != nil {
				return errors.Wrap(err, "add question")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added question %d.\n", q.ID)
			return nil
		},
	}
	cmd.Flags().String("topic", "", "topic of the question")
	cmd.Flags().String("category", string(prompts.Common), "category of the question")
	return cmd
}
