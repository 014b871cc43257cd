// Package similarity implements the offline photo similarity command.
package similarity

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/similarity"
)

// Command creates the similarity command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "similarity [image a] [image b]",
		Short: "Estimate whether two photos show the same vehicle",
		Long:  "Compare grayscale histograms of two photos. No detection service is needed.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

// Run scores the two image files and writes the result to w. Unlike the
// inspection flow an undecodable image is reported as an error here.
func Run(w io.Writer, pathA, pathB string) error {
	a, err := readFile(pathA)
	if err != nil {
		return err
	}
	b, err := readFile(pathB)
	if err != nil {
		return err
	}

	score, err := similarity.CompareStrict(a, b)
	if err != nil {
		return err
	}

	level := score.Level()
	fmt.Fprintf(w, "Similarity: %.0f%% (%s)\n", float64(score)*100, level)
	if msg := level.Message(); msg != "" {
		fmt.Fprintln(w, msg)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a user-supplied CLI argument
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to read image: %w", err)).
			Component("cli").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return data, nil
}
