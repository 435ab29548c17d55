package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/traffic-light/internal/logic"
	"github.com/sweeney/traffic-light/internal/serialport"
)

func buildSendCommand() *cobra.Command {
	var (
		port string
		baud int
		wait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send [LINE...]",
		Short: "Send command lines to a controller and print its status",
		Long: `Open the controller's serial port, send each LINE (BTN1, BTN2, BTN3,
RED:<ms>, YELLOW:<ms>, GREEN:<ms>) and print the status lines it reports
for --wait.`,
		Example: `  traffic-light send --port /dev/ttyUSB0 RED:1000 BTN1
  traffic-light send --wait 10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Serial.Port = port
			}
			if cmd.Flags().Changed("baud") {
				cfg.Serial.Baud = baud
			}

			rw, err := serialport.Open(serialport.Config{Port: cfg.Serial.Port, Baud: cfg.Serial.Baud})
			if err != nil {
				return err
			}
			defer rw.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			// A blocked read only returns once the port is closed.
			go func() {
				<-ctx.Done()
				rw.Close()
			}()
			return sendAndWatch(ctx, serialport.NewClient(rw), args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&port, "port", "/dev/ttyUSB0", `Serial port of the controller ("-" for stdio)`)
	cmd.Flags().IntVar(&baud, "baud", serialport.DefaultBaud, "Serial baud rate")
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Second, "How long to print status lines after sending")

	return cmd
}

// sendAndWatch validates and sends every line, then prints decoded status
// lines and raw notices until ctx ends.
func sendAndWatch(ctx context.Context, c *serialport.Client, lines []string, out io.Writer) error {
	for _, line := range lines {
		if err := c.Send(line); err != nil {
			return fmt.Errorf("send %q: %w", line, err)
		}
	}

	err := c.Watch(ctx,
		func(st logic.Status) {
			fmt.Fprintf(out, "mode=%q led=%s brightness=%d\n", st.Mode.String(), st.LED, st.Brightness)
		},
		func(line string) {
			fmt.Fprintf(out, "# %s\n", line)
		})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func buildPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serialport.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(os.Stderr, "no serial ports found")
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
