package serialport

import (
	"context"
	"errors"
	"io"

	"github.com/sweeney/traffic-light/internal/logic"
)

// Client talks to a running controller from the host side: it writes command
// lines and decodes the status lines coming back.
type Client struct {
	rw   io.ReadWriter
	sink *LineSink
}

func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw, sink: NewLineSink(rw, false)}
}

// Send validates and writes one command line.
func (c *Client) Send(line string) error {
	cmd, err := logic.ParseCommand(line)
	if err != nil {
		return err
	}
	return c.sink.WriteLine(cmd.String())
}

// Watch decodes incoming lines. Status lines go to onStatus; anything else
// (notices) goes to onOther when it is non-nil. It returns when the port is
// closed or ctx is done.
func (c *Client) Watch(ctx context.Context, onStatus func(logic.Status), onOther func(string)) error {
	err := ReadLines(ctx, c.rw, func(line string) {
		st, err := logic.ParseStatusLine(line)
		if err != nil {
			if onOther != nil {
				onOther(line)
			}
			return
		}
		onStatus(st)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
