package main

import (
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
)

// writeOutput writes to the file at path, or to the command's output when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, write func(w io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output file", slog.String("path", path))
	}
	if err = write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err = file.Close(); err != nil {
		return errors.Wrap(err, "close output file", slog.String("path", path))
	}
	return nil
}

// readInput reads the file at path, or the command's input when path is "-".
func readInput(cmd *cobra.Command, path string, read func(r io.Reader) error) error {
	if path == "-" {
		return read(cmd.InOrStdin())
	}
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open input file", slog.String("path", path))
	}
	defer func() {
		_ = file.Close()
	}()
	return read(file)
}

func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // two spaces between columns
}

var ErrInvalidID = errors.NewSentinel("invalid id")

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidID, "parse id", slog.String("id", arg))
		}
		ids = append(ids, id)
	}
	return ids, nil
}
