package main

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/traffic-light/internal/config"
	"github.com/sweeney/traffic-light/internal/gpio"
	"github.com/sweeney/traffic-light/internal/logic"
)

func buildPrintStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Print the button levels and brightness reading, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}

			buttons, err := gpio.NewButtonReader(cfg.GPIO.Chip, config.Pins(cfg.GPIO.ButtonPins))
			if err != nil {
				return fmt.Errorf("init buttons: %w", err)
			}
			defer buttons.Close()

			var analog gpio.Analog
			if a, err := gpio.NewIIOAnalog(cfg.GPIO.AnalogPath); err != nil {
				log.Warn("No brightness sensor", "path", cfg.GPIO.AnalogPath, "error", err)
			} else {
				analog = a
			}
			return printState(cmd.OutOrStdout(), buttons, analog, cfg.Control.AnalogMax)
		},
	}
}

// printState writes one line per button and, when analog is non-nil, the
// raw reading with the brightness it scales to.
func printState(w io.Writer, buttons gpio.LevelReader, analog gpio.Analog, analogMax int) error {
	levels, err := buttons.Read()
	if err != nil {
		return fmt.Errorf("read buttons: %w", err)
	}
	for i, pressed := range levels {
		level := logic.LevelReleased
		if pressed {
			level = logic.LevelPressed
		}
		fmt.Fprintf(w, "%s: %s\n", logic.Button(i+1), level)
	}

	if analog == nil {
		return nil
	}
	raw, err := analog.Read()
	if err != nil {
		return fmt.Errorf("read analog: %w", err)
	}
	fmt.Fprintf(w, "Analog: %d (brightness %d)\n", raw, logic.Scale(raw, analogMax))
	return nil
}

func buildPrintConfigCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "print-config",
		Short: "Print the effective configuration (defaults, file and environment)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := printConfig(cmd.OutOrStdout(), cfg, format); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				log.Warn("Configuration is not valid", "error", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "toml", "Output format: toml or yaml")
	return cmd
}

func printConfig(w io.Writer, cfg config.Config, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "toml":
		data, err = toml.Marshal(cfg)
	case "yaml", "yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("unknown format %q (want toml or yaml)", format)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
