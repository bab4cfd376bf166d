package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"ecohub/internal/eco"
	"ecohub/internal/logging"
	"ecohub/internal/scheduler"
)

var rootCmd = &cobra.Command{
	Use:   "ecohub",
	Short: "Carbon footprint, solar and eco challenge hub",
	Long: `ecohub serves the eco-lifestyle API: footprint and solar estimates,
recipe and event search, 30-day challenges with a community leaderboard,
rotating tips and live climate data.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ecohub.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("loglevel"))

	serveCmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	serveCmd.Flags().String("db", "./ecohub.db", "SQLite database file")
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("db", serveCmd.Flags().Lookup("db"))

	footprintCmd.Flags().Float64("transport", 0, "Kilometres travelled per month")
	footprintCmd.Flags().String("transport-type", "car", "Transport type (car, electric)")
	footprintCmd.Flags().Float64("electricity", 0, "Electricity used per month in kWh")
	footprintCmd.Flags().String("energy-source", "grid", "Energy source (grid, renewable)")
	footprintCmd.Flags().String("diet", "meatDaily", "Diet (meatDaily, meatWeekly, vegetarian, vegan)")
	footprintCmd.Flags().Float64("shopping", 0, "Monthly shopping spend in USD")

	solarCmd.Flags().Float64("size", eco.DefaultHomeSizeM2, "Home size in square metres")
	solarCmd.Flags().String("roof", "flat", "Roof type (flat, pitched, large)")
	solarCmd.Flags().String("panel", "mono", "Panel type (mono, poly, thin)")
	solarCmd.Flags().String("location", "moderate", "Sunshine (sunny, moderate, cloudy)")

	rootCmd.AddCommand(serveCmd, footprintCmd, solarCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ecohub web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, loadConfig(viper.GetViper()))
	},
}

func serve(ctx context.Context, cfg Config) error {
	s, err := NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Log.WithField("port", cfg.Port).Info("Server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Log.Info("Server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		s.refreshClimate(ctx)
		return scheduler.Run(ctx, logging.Log, s.jobs()...)
	})

	return g.Wait()
}

var footprintCmd = &cobra.Command{
	Use:   "footprint",
	Short: "Estimate a monthly carbon footprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		transport, _ := f.GetFloat64("transport")
		transportType, _ := f.GetString("transport-type")
		electricity, _ := f.GetFloat64("electricity")
		source, _ := f.GetString("energy-source")
		diet, _ := f.GetString("diet")
		shopping, _ := f.GetFloat64("shopping")

		form := eco.FootprintForm{
			Transport:     eco.Amount(transport),
			TransportType: transportType,
			Electricity:   eco.Amount(electricity),
			EnergySource:  source,
			Diet:          diet,
			Shopping:      eco.Amount(shopping),
		}
		printFootprint(cmd.OutOrStdout(), eco.ComputeFootprint(form.Sanitize()))
		return nil
	},
}

var solarCmd = &cobra.Command{
	Use:   "solar",
	Short: "Estimate rooftop solar production and savings",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		size, _ := f.GetFloat64("size")
		roof, _ := f.GetString("roof")
		panel, _ := f.GetString("panel")
		location, _ := f.GetString("location")

		form := eco.SolarForm{
			HomeSize:  eco.Amount(size),
			RoofType:  roof,
			PanelType: panel,
			Location:  location,
		}
		printSolar(cmd.OutOrStdout(), eco.ComputeEnergyProduction(form.Sanitize()))
		return nil
	},
}

func tierColor(t eco.Tier) *color.Color {
	switch t.Color {
	case "success":
		return color.New(color.FgGreen, color.Bold)
	case "primary":
		return color.New(color.FgCyan, color.Bold)
	case "warning":
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func printFootprint(w io.Writer, fp eco.Footprint) {
	tierColor(fp.Tier).Fprintf(w, "%.0f kg CO2 per month: %s\n", fp.Total, fp.Tier.Message)
	for _, seg := range fp.Segments {
		fmt.Fprintf(w, "  %-9s %8.0f kg\n", seg.Category, seg.Value)
	}
	color.New(color.FgHiBlack).Fprintf(w, "Highest impact: %s\n", fp.HighestImpact)
	for _, tip := range fp.Tips {
		fmt.Fprintf(w, "  - %s\n", tip)
	}
}

func printSolar(w io.Writer, est eco.EnergyEstimate) {
	tierColor(est.Tier).Fprintf(w, "%.0f kWh per month: %s\n", est.EnergyProducedKwhPerMonth, est.Tier.Message)
	fmt.Fprintf(w, "  Panel area  %8.1f m2\n", est.PanelAreaM2)
	fmt.Fprintf(w, "  Savings     %8.2f USD per year\n", est.YearlySavingsUSD)
	for i, total := range est.Projection {
		fmt.Fprintf(w, "  Year %-2d     %8.2f USD\n", i+1, total)
	}
}
