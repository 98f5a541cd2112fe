package main

import (
	"fmt"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/state"
	"github.com/spf13/cobra"
	"slices"
	"strings"
)

func settingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		GroupID: configGroup.ID,
		Short:   "Select the model of each provider per pipeline step",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the model selection",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				settings := s.store.Settings()
				table := newTable(cmd)
				_, _ = fmt.Fprintln(table, "STEP\tPROVIDER\tMODEL")
				for _, step := range state.Steps() {
					for _, p := range ai.Catalog() {
						_, _ = fmt.Fprintf(table, "%s\t%s\t%s\n", step, p, settings.Model(step, p))
					}
				}
				return table.Flush() //nolint:wrapcheck // output errors are reported as is
			},
		},
		&cobra.Command{
			Use:   "set [step] [provider] [model]",
			Short: "Select a model",
			Long:  modelsHelp(),
			Args:  cobra.ExactArgs(3), //nolint:mnd // step, provider and model
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := c.get(cmd.Context())
				if err != nil {
					return err
				}
				if err = s.store.SetModel(cmd.Context(), args[0], args[1], args[2]); err != nil {
					return errors.Wrap(err, "set model")
				}
				return nil
			},
		},
	)
	return cmd
}

func modelsHelp() string {
	var b strings.Builder
	b.WriteString("Selects the model a provider uses at a step, or disables the provider for the step.\n\nSteps: ")
	steps := make([]string, 0, len(state.Steps()))
	for _, step := range state.Steps() {
		steps = append(steps, string(step))
	}
	b.WriteString(strings.Join(steps, ", "))
	b.WriteString("\n")
	for _, p := range ai.Catalog() {
		_, _ = fmt.Fprintf(&b, "%s models: %s\n", p, strings.Join(state.AllowedModels(p), ", "))
	}
	return b.String()
}

func providersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "providers",
		GroupID: configGroup.ID,
		Short:   "List the providers configured on the server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			providers, analysis, err := s.api.Providers(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "get providers")
			}
			out := cmd.OutOrStdout()
			for _, p := range providers {
				suffix := ""
				if p == analysis {
					suffix = " (analysis)"
				}
				_, _ = fmt.Fprintf(out, "%s%s\n", p, suffix)
			}
			if !slices.Contains(providers, analysis) {
				_, _ = fmt.Fprintf(out, "Analysis provider %s is not configured.\n", analysis)
			}
			return nil
		},
	}
}
