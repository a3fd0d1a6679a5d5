package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/eivy/smartir-learn/broadlink"
)

const (
	captureTimeout      = 30 * time.Second
	capturePollInterval = 500 * time.Millisecond
)

// commandLearner captures exactly one IR code, blocking until it is
// available or the timeout budget runs out.
type commandLearner interface {
	Learn(ctx context.Context) string
}

// Transceiver is the capture seam to the IR device: enter learning
// mode, then poll for a code.
type Transceiver interface {
	EnterLearning(ctx context.Context) error
	// CheckData returns the captured payload once available,
	// broadlink.ErrPending while the device is still listening, or
	// broadlink.ErrStorage on a transient read hiccup.
	CheckData(ctx context.Context) ([]byte, error)
}

// Learner wraps the bounded retry capture protocol around a
// Transceiver. One Learn call per cell; no concurrent captures.
type Learner struct {
	dev      Transceiver
	timeout  time.Duration
	interval time.Duration
	out      io.Writer
}

func newLearner(dev Transceiver, timeout, interval time.Duration, out io.Writer) *Learner {
	if timeout <= 0 {
		timeout = captureTimeout
	}
	if interval <= 0 {
		interval = capturePollInterval
	}
	return &Learner{dev: dev, timeout: timeout, interval: interval, out: out}
}

// Learn puts the device into learning mode and polls until a code
// arrives, returning it base64 encoded. A timeout is a normal
// outcome: it prints a notice and returns the empty string so the
// walk records the miss and moves on.
func (l *Learner) Learn(ctx context.Context) string {
	if err := l.dev.EnterLearning(ctx); err != nil {
		fmt.Fprintf(l.out, "Could not enter learning mode: %v\n", err)
		return ""
	}

	deadline := time.Now().Add(l.timeout)
	for time.Now().Before(deadline) {
		time.Sleep(l.interval)
		data, err := l.dev.CheckData(ctx)
		if err != nil {
			if errors.Is(err, broadlink.ErrPending) || errors.Is(err, broadlink.ErrStorage) {
				continue
			}
			fmt.Fprintf(l.out, "Capture failed: %v\n", err)
			return ""
		}
		return base64.StdEncoding.EncodeToString(data)
	}

	fmt.Fprintln(l.out, "No data received...")
	return ""
}
