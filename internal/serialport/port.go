// Package serialport carries command and status lines over a serial port, or
// over stdin/stdout when no port is configured.
package serialport

import (
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"

	"github.com/sweeney/traffic-light/internal/logging"
)

var log = logging.GetLogger("serial")

// DefaultBaud matches the controller's fixed line speed.
const DefaultBaud = 9600

// Stdio is the port name that selects stdin/stdout.
const Stdio = "-"

// Config selects the line transport.
type Config struct {
	Port string `toml:"port" yaml:"port"`
	Baud int    `toml:"baud" yaml:"baud"`
}

// IsStdio reports whether the config selects stdin/stdout.
func (c Config) IsStdio() bool {
	return c.Port == "" || c.Port == Stdio
}

// Open opens the configured port at 8N1.
func Open(cfg Config) (io.ReadWriteCloser, error) {
	if cfg.IsStdio() {
		return stdio{Reader: os.Stdin, Writer: os.Stdout}, nil
	}
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	log.Info("Serial port opened", "port", cfg.Port, "baud", baud)
	return port, nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

type stdio struct {
	io.Reader
	io.Writer
}

// Close leaves the process's stdin/stdout open.
func (stdio) Close() error { return nil }
