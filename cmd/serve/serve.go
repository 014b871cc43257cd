// Package serve runs the inspection HTTP API.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/api"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/conf"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/damage"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability"
)

// Command creates the serve command.
func Command(v *viper.Viper, settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inspection API server",
		Long:  "Serve the detection, comparison and inspection session endpoints over HTTP until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings)
		},
	}

	cmd.Flags().String("listen", "", "Listen address, e.g. :8080")
	cmd.Flags().Float64("ratelimit", 0, "Requests per second per client, 0 disables")
	_ = v.BindPFlag("webserver.listen", cmd.Flags().Lookup("listen"))
	_ = v.BindPFlag("webserver.ratelimit", cmd.Flags().Lookup("ratelimit"))

	return cmd
}

// Run wires the detection client, inspection service and API server and
// blocks until ctx is cancelled.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("serve")

	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	client := detection.NewClient(settings.DetectionConfig(), detection.WithMetrics(m.Detection))
	defer client.Close()

	if !client.Configured() {
		log.Warn("Roboflow is not configured, detection requests will be rejected",
			logger.String("hint", "set ROBOFLOW_API_KEY, ROBOFLOW_MODEL and ROBOFLOW_VERSION"))
	}

	service := inspection.NewService(client,
		inspection.WithMatcher(damage.NewMatcher(settings.Diff.Threshold)),
		inspection.WithMetrics(m.Inspection))

	server, err := api.New(api.ConfigFromSettings(settings), client, service, api.WithMetrics(m))
	if err != nil {
		return err
	}

	return server.Run(ctx)
}
