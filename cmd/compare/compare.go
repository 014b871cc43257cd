// Package compare implements the one-shot pickup/return comparison command.
package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/conf"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/damage"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/imageutil"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/overlay"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// NoNewDamageMessage is printed when the return photo shows no new damage.
const NoNewDamageMessage = "No new damage detected"

// Options holds the flags of the compare command.
type Options struct {
	Output     string
	OverlayDir string
}

// Command creates the compare command.
func Command(v *viper.Viper, settings *conf.Settings) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "compare [pickup image] [return image]",
		Short: "Report damage that is new in the return photo",
		Long:  "Run damage detection on both photos, report regions present only at return and check that both photos show the same vehicle.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := detection.NewClient(settings.DetectionConfig())
			defer client.Close()

			service := inspection.NewService(client,
				inspection.WithMatcher(damage.NewMatcher(settings.Diff.Threshold)))

			return Run(cmd.Context(), cmd.OutOrStdout(), service, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", FormatTable, "Output format: table, json")
	cmd.Flags().StringVar(&opts.OverlayDir, "overlay-dir", "", "Write annotated PNGs of both photos to this directory")
	cmd.Flags().Float64("threshold", damage.DefaultThreshold, "Max per-axis center distance in pixels for the same damage")
	_ = v.BindPFlag("diff.threshold", cmd.Flags().Lookup("threshold"))

	return cmd
}

// Run compares the two image files with service and writes the report to w.
func Run(ctx context.Context, w io.Writer, service *inspection.Service, pickupPath, returnPath string, opts *Options) error {
	if opts.Output != FormatTable && opts.Output != FormatJSON {
		return errors.Newf("unknown output format %q, expected table or json", opts.Output).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}

	pickup, err := readImage(pickupPath)
	if err != nil {
		return err
	}
	ret, err := readImage(returnPath)
	if err != nil {
		return err
	}

	assessment, err := service.Assess(ctx, pickup, ret)
	if err != nil {
		return err
	}

	if opts.OverlayDir != "" {
		if err := writeOverlays(opts.OverlayDir, pickup, ret, &assessment.Comparison); err != nil {
			return err
		}
	}

	if opts.Output == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	}
	return printTable(w, assessment)
}

func readImage(path string) (inspection.Image, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a user-supplied CLI argument
	if err != nil {
		return inspection.Image{}, errors.New(fmt.Errorf("failed to read image: %w", err)).
			Component("cli").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return inspection.NewImage(data, imageutil.ContentType("", data), filepath.Base(path)), nil
}

func printTable(w io.Writer, a *inspection.Assessment) error {
	c := &a.Comparison

	fmt.Fprintf(w, "Pickup: %d damage region(s)\n", len(c.Pickup.Regions))
	fmt.Fprintf(w, "Return: %d damage region(s)\n", len(c.Return.Regions))
	if a.SimilarityAvailable {
		fmt.Fprintf(w, "Similarity: %.0f%% (%s)\n", float64(a.Similarity)*100, a.Level)
	} else {
		fmt.Fprintln(w, "Similarity: unavailable")
	}
	if a.Message != "" {
		fmt.Fprintln(w, a.Message)
	}
	fmt.Fprintln(w)

	if !c.HasNewDamage() {
		fmt.Fprintln(w, NoNewDamageMessage)
		return nil
	}

	fmt.Fprintf(w, "New damage (%d):\n", len(c.NewRegions))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tCONFIDENCE\tCENTER\tSIZE")
	for _, r := range c.NewRegions {
		fmt.Fprintf(tw, "%s\t%d%%\t%.0f,%.0f\t%.0fx%.0f\n",
			r.Label, r.ConfidencePercent(), r.CenterX, r.CenterY, r.Width, r.Height)
	}
	return tw.Flush()
}

// writeOverlays renders both photos with their regions. Return regions that
// are new are drawn in the new-damage color.
func writeOverlays(dir string, pickup, ret inspection.Image, c *inspection.Comparison) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(fmt.Errorf("failed to create overlay directory: %w", err)).
			Component("cli").
			Category(errors.CategoryFileIO).
			Build()
	}

	outputs := []struct {
		name    string
		data    []byte
		regions []detection.Region
		isNew   []bool
	}{
		{"pickup-overlay.png", pickup.Data, c.Pickup.Regions, nil},
		{"return-overlay.png", ret.Data, c.Return.Regions, overlay.MarkNew(c.Return.Regions, c.NewRegions)},
	}

	for _, out := range outputs {
		if err := writeOverlay(filepath.Join(dir, out.name), out.data, out.regions, out.isNew); err != nil {
			return err
		}
	}
	return nil
}

func writeOverlay(path string, data []byte, regions []detection.Region, isNew []bool) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is built from a user-supplied directory
	if err != nil {
		return errors.New(fmt.Errorf("failed to create overlay file: %w", err)).
			Component("cli").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	renderErr := overlay.RenderPNG(f, data, regions, isNew)
	closeErr := f.Close()
	if renderErr != nil {
		return renderErr
	}
	return closeErr
}
