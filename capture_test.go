package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eivy/smartir-learn/broadlink"
)

type pollResult struct {
	data []byte
	err  error
}

// scriptedTransceiver plays back a fixed sequence of poll outcomes,
// then reports pending forever.
type scriptedTransceiver struct {
	enterErr error
	results  []pollResult
	polls    int
}

func (s *scriptedTransceiver) EnterLearning(ctx context.Context) error {
	return s.enterErr
}

func (s *scriptedTransceiver) CheckData(ctx context.Context) ([]byte, error) {
	s.polls++
	if len(s.results) == 0 {
		return nil, broadlink.ErrPending
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.data, r.err
}

func testLearner(dev Transceiver, out *bytes.Buffer) *Learner {
	return newLearner(dev, 50*time.Millisecond, time.Millisecond, out)
}

func TestLearnerReturnsEncodedPayload(t *testing.T) {
	dev := &scriptedTransceiver{results: []pollResult{
		{err: broadlink.ErrPending},
		{err: broadlink.ErrPending},
		{data: []byte{0x26, 0x00, 0x4c}},
	}}
	var out bytes.Buffer

	command := testLearner(dev, &out).Learn(context.Background())

	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x26, 0x00, 0x4c}), command)
	assert.Equal(t, 3, dev.polls)
}

func TestLearnerRetriesTransientStorageErrors(t *testing.T) {
	dev := &scriptedTransceiver{results: []pollResult{
		{err: broadlink.ErrStorage},
		{data: []byte("code")},
	}}
	var out bytes.Buffer

	command := testLearner(dev, &out).Learn(context.Background())

	assert.NotEmpty(t, command)
	assert.Empty(t, out.String())
}

func TestLearnerTimeoutIsNotFatal(t *testing.T) {
	dev := &scriptedTransceiver{}
	var out bytes.Buffer

	command := testLearner(dev, &out).Learn(context.Background())

	assert.Equal(t, "", command)
	assert.Contains(t, out.String(), "No data received")
	assert.Greater(t, dev.polls, 1)
}

func TestLearnerEnterLearningFailure(t *testing.T) {
	dev := &scriptedTransceiver{enterErr: errors.New("device gone")}
	var out bytes.Buffer

	command := testLearner(dev, &out).Learn(context.Background())

	assert.Equal(t, "", command)
	assert.Contains(t, out.String(), "Could not enter learning mode")
	assert.Zero(t, dev.polls)
}

func TestLearnerStopsOnUnexpectedError(t *testing.T) {
	dev := &scriptedTransceiver{results: []pollResult{
		{err: errors.New("connection reset")},
	}}
	var out bytes.Buffer

	command := testLearner(dev, &out).Learn(context.Background())

	assert.Equal(t, "", command)
	assert.Contains(t, out.String(), "Capture failed")
	assert.Equal(t, 1, dev.polls)
}

func TestNewLearnerDefaults(t *testing.T) {
	l := newLearner(&scriptedTransceiver{}, 0, 0, &bytes.Buffer{})
	assert.Equal(t, captureTimeout, l.timeout)
	assert.Equal(t, capturePollInterval, l.interval)
}
