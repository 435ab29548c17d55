// Command traffic-light drives a three-lamp traffic light: a timed
// Red/Yellow/Green cycle with override modes toggled by buttons, ambient
// brightness dimming, and a line protocol on a serial port, with MQTT and
// HTTP views of the same state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/traffic-light/internal/logging"
)

var (
	log        = logging.GetLogger("main")
	configFile string
)

func buildCLI() *cobra.Command {
	root := &cobra.Command{
		Use:   "traffic-light",
		Short: "Traffic-light controller daemon",
		Long: `traffic-light runs a traffic-light controller on a Raspberry Pi.

Lamps cycle Red, Yellow, Green (with a blinking end of green) and back.
Three buttons toggle Red-Hold, Blink-All and Power-Off. Durations can be
changed over the serial line ("RED:1500"), MQTT or HTTP.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (.toml, .yaml or .yml)")

	root.AddCommand(buildRunCommand())
	root.AddCommand(buildSendCommand())
	root.AddCommand(buildPortsCommand())
	root.AddCommand(buildPrintStateCommand())
	root.AddCommand(buildPrintConfigCommand())

	return root
}

func main() {
	if err := buildCLI().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
