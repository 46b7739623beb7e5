package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LucienMarcon/APP-BP/internal/config"
	"github.com/LucienMarcon/APP-BP/internal/logger"
	"github.com/LucienMarcon/APP-BP/internal/services"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PROFORMA")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "proforma",
		Short: "Real-estate development pro forma engine",
		Long: `proforma evaluates a development scenario: site envelope, construction
budget, senior debt, yearly cash flows and investment returns.

Scenarios are YAML or JSON files holding "parameters" and "units".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Int("max-units", config.DefaultMaxUnits, "largest unit table accepted")
	flags.Int("max-holding-period", config.DefaultMaxHoldingPeriod, "longest holding period accepted, in years")
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("max_units", flags.Lookup("max-units"))
	_ = v.BindPFlag("max_holding_period", flags.Lookup("max-holding-period"))

	a := &app{v: v}
	root.AddCommand(runCmd(a))
	root.AddCommand(validateCmd(a))
	root.AddCommand(versionCmd())
	return root
}

// app builds the per-invocation logger and service from flags and
// PROFORMA_* environment variables.
type app struct {
	v *viper.Viper
}

func (a *app) logger(cmd *cobra.Command) *logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Env:    "cli",
		Level:  a.v.GetString("log_level"),
		Output: cmd.ErrOrStderr(),
	})
}

// service evaluates without a parcel store, under the same request limits
// as the API.
func (a *app) service(cmd *cobra.Command) services.ProformaService {
	limits := config.DefaultLimits()
	limits.MaxUnits = a.v.GetInt("max_units")
	limits.MaxHoldingPeriod = a.v.GetInt("max_holding_period")
	return services.NewProformaService(nil, limits, a.logger(cmd))
}
