package main

import (
	"fmt"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"strings"
)

func topicsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topics",
		GroupID: pipelineGroup.ID,
		Short:   "Manage topics",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add [topic]...",
			Short: "Add topics",
			Long:  "Adds each argument as a manual topic. Tags are generated with the analysis provider when enabled.",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				for _, arg := range args {
					topic, addErr := s.bench.AddTopic(cmd.Context(), arg)
					if addErr != nil {
						return errors.Wrap(addErr, "add topic", slog.String("topic", arg))
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %q %s\n", topic.Value, formatTags(topic.SmartTags))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List topics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				table := newTable(cmd)
				_, _ = fmt.Fprintln(table, "TOPIC\tORIGIN\tACTIVE\tUSED\tTAGS")
				for _, t := range s.store.Topics() {
					origin := string(t.Origin)
					if t.ParentTopic != nil {
						origin += " of " + *t.ParentTopic
					}
					_, _ = fmt.Fprintf(table, "%s\t%s\t%t\t%t\t%s\n", t.Value, origin,
						s.store.IsActive(t.Value), s.store.IsUsed(t.Value), strings.Join(t.SmartTags, ", "))
				}
				return table.Flush() //nolint:wrapcheck // output errors are reported as is
			},
		},
		&cobra.Command{
			Use:   "delete [topic]",
			Short: "Delete a topic",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				if err = s.store.DeleteTopic(cmd.Context(), args[0]); err != nil {
					return errors.Wrap(err, "delete topic")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
				return nil
			},
		},
		activationCmd(c, "activate", true),
		activationCmd(c, "deactivate", false),
		&cobra.Command{
			Use:   "vary [topic]",
			Short: "Add variations of a topic",
			Long:  "Asks the analysis provider for related topics and adds the new ones as variations of the topic.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				added, err := s.bench.SpawnVariations(cmd.Context(), args[0])
				if err != nil {
					return errors.Wrap(err, "spawn variations")
				}
				for _, topic := range added {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %q %s\n", topic.Value, formatTags(topic.SmartTags))
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d variations added.\n", len(added))
				return nil
			},
		},
		&cobra.Command{
			Use:   "tag-missing",
			Short: "Generate tags for untagged topics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				report, err := s.bench.GenerateMissingTags(cmd.Context())
				if err != nil {
					return errors.Wrap(err, "generate missing tags")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d topics tagged, %d failed.\n", report.Tagged, report.Failed)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove-tag [tag]",
			Short: "Remove a tag from every topic",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				changed, err := s.store.RemoveTagFromAllTopics(cmd.Context(), args[0])
				if err != nil {
					return errors.Wrap(err, "remove tag")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed from %d topics.\n", changed)
				return nil
			},
		},
		&cobra.Command{
			Use:   "import [file]",
			Short: "Import topics from a JSON export",
			Long:  `Adds the topics of a file written by "topics export". Use "-" to read standard input.`,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				return readInput(cmd, args[0], func(r io.Reader) error {
					added, importErr := s.store.ImportTopics(cmd.Context(), r)
					if importErr != nil {
						return errors.Wrap(importErr, "import topics")
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d topics imported.\n", added)
					return nil
				})
			},
		},
		exportCmd(c, "Export topics as JSON", func(s *session, w io.Writer) error {
			return s.store.ExportTopics(w)
		}),
	)
	return cmd
}

func activationCmd(c *cli, use string, active bool) *cobra.Command {
	short := "Include topics in question generation"
	if !active {
		short = "Exclude topics from question generation"
	}
	return &cobra.Command{
		Use:   use + " [topic]...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			for _, arg := range args {
				if err = s.store.SetActive(cmd.Context(), arg, active); err != nil {
					return errors.Wrap(err, use, slog.String("topic", arg))
				}
			}
			return nil
		},
	}
}

// exportCmd writes a JSON export to --out, or to standard output.
func exportCmd(c *cli, short string, export func(s *session, w io.Writer) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: short,
		Args:  cobra.NoArgs,
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
				return export(s, w)
			})
		},
	}
	cmd.Flags().String("out", "", "path to the export file, standard output when empty")
	return cmd
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "(no tags)"
	}
	return "[" + strings.Join(tags, ", ") + "]"
}
