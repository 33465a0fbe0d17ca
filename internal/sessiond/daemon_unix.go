//go:build !windows

package sessiond

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func (d *Daemon) handleSignals() {
	if d == nil {
		return
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			slog.Info("sessiond: shutting down", slog.String("signal", sig.String()))
			_ = d.Stop()
		case <-d.ctx.Done():
		}
	}()
}
