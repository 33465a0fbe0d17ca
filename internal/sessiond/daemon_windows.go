//go:build windows

package sessiond

import (
	"os"
	"os/signal"
)

func (d *Daemon) handleSignals() {
	if d == nil {
		return
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			_ = d.Stop()
		case <-d.ctx.Done():
		}
	}()
}
