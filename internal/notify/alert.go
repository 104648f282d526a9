package notify

import (
	"io"
	"os"
)

// Alerter is the best-effort local side channel used when the remote
// channel is unreachable, so the operator is not left uninformed.
type Alerter interface {
	Alert()
}

// BellAlerter rings the terminal bell.
type BellAlerter struct {
	Out io.Writer
}

func (a BellAlerter) Alert() {
	out := a.Out
	if out == nil {
		out = os.Stderr
	}
	_, _ = out.Write([]byte("\a"))
}

// NopAlerter does nothing. Used when no local alerting is wanted.
type NopAlerter struct{}

func (NopAlerter) Alert() {}
