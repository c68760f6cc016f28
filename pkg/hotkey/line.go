package hotkey

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/lifecycle"
)

// LineBridge reads one chord or action name per line from r. It stands in
// for an OS hotkey listener in headless runs and scripts. Blank lines and
// lines starting with '#' are ignored.
type LineBridge struct {
	r        io.Reader
	bindings Bindings
	logger   *slog.Logger
	out      chan Trigger
}

func NewLineBridge(r io.Reader, bindings Bindings, logger *slog.Logger) *LineBridge {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LineBridge{
		r:        r,
		bindings: bindings,
		logger:   logger,
		out:      make(chan Trigger),
	}
}

func (b *LineBridge) Triggers() <-chan Trigger {
	return b.out
}

// Start reads r in the background until EOF or ctx is done, then closes the
// trigger channel.
func (b *LineBridge) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(b.out)
		scanner := bufio.NewScanner(b.r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			t, ok := b.bindings.Lookup(line)
			if !ok {
				b.logger.Warn("unbound input", "input", line)
				continue
			}
			select {
			case b.out <- t:
			case <-ctx.Done():
				return nil
			}
		}
		if err := scanner.Err(); err != nil {
			b.logger.Error("hotkey reader failed", "error", err)
			return err
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		b.logger.Error("hotkey reader panic", "error", err)
	}))
	return nil
}
