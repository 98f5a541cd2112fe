package main

import (
	"fmt"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/spf13/cobra"
	"io"
)

func faqCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "faq",
		GroupID: pipelineGroup.ID,
		Short:   "Combine questions into a FAQ",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "generate",
			Short: "Combine the questions into FAQs",
			Long:  "Replaces the FAQs with one entry per question. The server keeps them for export.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				faqs, err := s.bench.GenerateFAQ(cmd.Context())
				if err != nil {
					return errors.Wrap(err, "generate faq")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d FAQs generated.\n", len(faqs))
				return nil
			},
		},
		addFAQCmd(c),
		&cobra.Command{
			Use:   "delete [id]...",
			Short: "Delete FAQs",
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
				removed, err := s.store.DeleteFAQs(cmd.Context(), ids)
				if err != nil {
					return errors.Wrap(err, "delete faqs")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d FAQs deleted.\n", removed)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List FAQs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, f := range s.store.FAQs() {
					_, _ = fmt.Fprintf(out, "%d. [%s] %s\n   %s\n", f.ID, f.Topic, f.Question, f.Answer)
				}
				return nil
			},
		},
		exportFAQCmd(c),
	)
	return cmd
}

func addFAQCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [question] [answer]",
		Short: "Add a FAQ by hand",
		Args:  cobra.ExactArgs(2), //nolint:mnd // question and answer
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			topic, err := cmd.Flags().GetString("topic")
			if err != nil {
				return errors.Wrap(err, "invalid topic flag")
			}
			f, err := s.store.AddManualFAQ(cmd.Context(), topic, args[0], args[1])
			if err != nil {
				return errors.Wrap(err, "add faq")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added FAQ %d.\n", f.ID)
			return nil
		},
	}
	cmd.Flags().String("topic", "", "topic of the FAQ")
	return cmd
}

func exportFAQCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the generated FAQs as JSONL",
		Long: `Downloads the JSONL export of the FAQs generated in the current server session, one
{"prompt","completion"} object per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return errors.Wrap(err, "invalid out flag")
			}
			return writeOutput(cmd, out, func(w io.Writer) error {
				return s.bench.ExportFAQ(cmd.Context(), w)
			})
		},
	}
	cmd.Flags().String("out", "faq.jsonl", `path to the export file, "-" for standard output`)
	return cmd
}
