// Package cmd contains the command line interface of nbrx.
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ftl/nbrx/core"
	"github.com/ftl/nbrx/core/app"
	"github.com/ftl/nbrx/core/cfg"
	"github.com/ftl/nbrx/core/log"
)

type flags struct {
	configFile        string
	logLevel          string
	testmode          bool
	testSource        string
	noAudio           bool
	recordFile        string
	listenAddress     string
	vfoHost           string
	rfCenter          float64
	selectedFrequency float64
	sampleRate        int
	decimation        int
	correction        int
}

// Execute the root command.
func Execute() {
	err := newRootCommand(run).Execute()
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func newRootCommand(runner func(core.Configuration) error) *cobra.Command {
	f := new(flags)
	rootCmd := &cobra.Command{
		Use:           "nbrx",
		Short:         "Narrow-band receiver for the QO-100 transponder",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfiguration(cmd, f)
			if err != nil {
				return err
			}
			return runner(config)
		},
	}

	rootCmd.Flags().StringVarP(&f.configFile, "config", "c", "", "YAML configuration file")
	rootCmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().BoolVarP(&f.testmode, "testmode", "t", false, "use a synthetic test tone instead of the RTL-SDR dongle")
	rootCmd.Flags().StringVar(&f.testSource, "test-source", "", "synthetic source of the test mode: tone, noise, sweep")
	rootCmd.Flags().BoolVar(&f.noAudio, "no-audio", false, "do not play the audio")
	rootCmd.Flags().StringVarP(&f.recordFile, "record", "r", "", "record the audio into the given WAV file")
	rootCmd.Flags().StringVarP(&f.listenAddress, "listen", "l", "", "listen address of the display and metrics server")
	rootCmd.Flags().StringVar(&f.vfoHost, "vfo", "", "address of the rigctld that controls the VFO")
	rootCmd.Flags().Float64Var(&f.rfCenter, "rf-center", 0, "RF center frequency in Hz")
	rootCmd.Flags().Float64Var(&f.selectedFrequency, "frequency", 0, "selected frequency in Hz")
	rootCmd.Flags().IntVar(&f.sampleRate, "sample-rate", 0, "sample rate of the dongle in Hz")
	rootCmd.Flags().IntVar(&f.decimation, "decimation", 0, "decimation factor of the narrow-band chain")
	rootCmd.Flags().IntVar(&f.correction, "ppm", 0, "frequency correction of the dongle in ppm")

	return rootCmd
}

func loadConfiguration(cmd *cobra.Command, f *flags) (core.Configuration, error) {
	config, err := cfg.Load()
	if err != nil {
		log.Warnf("Cannot load the shared configuration, using defaults: %v", err)
		config = cfg.Static()
	}

	if f.configFile != "" {
		config, err = cfg.LoadFile(f.configFile, config)
		if err != nil {
			return core.Configuration{}, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		config.LogLevel = f.logLevel
	}
	if changed("testmode") {
		config.Testmode = f.testmode
	}
	if changed("test-source") {
		config.TestSource = f.testSource
	}
	if changed("no-audio") {
		config.AudioEnabled = !f.noAudio
	}
	if changed("record") {
		config.RecordFile = f.recordFile
	}
	if changed("listen") {
		config.ListenAddress = f.listenAddress
	}
	if changed("vfo") {
		config.VFOHost = f.vfoHost
	}
	if changed("rf-center") {
		config.RFCenter = core.Frequency(f.rfCenter)
	}
	if changed("frequency") {
		config.SelectedFrequency = core.Frequency(f.selectedFrequency)
	}
	if changed("sample-rate") {
		config.SampleRate = f.sampleRate
	}
	if changed("decimation") {
		config.Decimation = f.decimation
	}
	if changed("ppm") {
		config.FrequencyCorrection = f.correction
	}

	err = cfg.Validate(config)
	if err != nil {
		return core.Configuration{}, errors.Wrap(err, "invalid configuration")
	}
	return config, nil
}

func run(config core.Configuration) error {
	level, ok := log.ParseLevel(config.LogLevel)
	if ok {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q", config.LogLevel)
	}

	controller, err := app.New(config)
	if err != nil {
		return err
	}
	err = controller.Startup()
	if err != nil {
		controller.Shutdown()
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	sig := <-signals
	log.Infof("Received %v, shutting down", sig)

	controller.Shutdown()
	return nil
}
