package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eivy/smartir-learn/metrics"
	"github.com/eivy/smartir-learn/mqtt"
)

// walkSignal tells the caller whether the product walk ran to
// completion or the user aborted at a prepare prompt.
type walkSignal int

const (
	walkContinue walkSignal = iota
	walkAbort
)

// Session drives one interactive learning run. It owns the document
// for the duration of the run and is its only writer; the caller
// guarantees the document is persisted on every exit path.
type Session struct {
	doc       *Document
	prompt    *prompter
	learner   commandLearner
	collector *metrics.Collector
	publisher *mqtt.Publisher

	precision  decimal.Decimal
	minDefault decimal.Decimal
	maxDefault decimal.Decimal

	autoResume bool
}

func newSession(doc *Document, prompt *prompter, learner commandLearner, collector *metrics.Collector, publisher *mqtt.Publisher) (*Session, error) {
	precision, err := doc.precisionValue()
	if err != nil {
		return nil, err
	}
	if !precision.IsPositive() {
		return nil, fmt.Errorf("%w: precision must be greater than zero", errInvalidConfig)
	}
	minDefault, err := doc.minTemperatureValue()
	if err != nil {
		return nil, err
	}
	maxDefault, err := doc.maxTemperatureValue()
	if err != nil {
		return nil, err
	}
	return &Session{
		doc:        doc,
		prompt:     prompt,
		learner:    learner,
		collector:  collector,
		publisher:  publisher,
		precision:  precision,
		minDefault: minDefault,
		maxDefault: maxDefault,
	}, nil
}

// Run executes the whole workflow: axis resolution, temperature range
// preparation, the product walk and the terminal off command. It
// returns nil on user abort; the deferred save in main still fires.
func (s *Session) Run(ctx context.Context) error {
	s.promptAutoResume()
	cfg := resolveLearningConfig(s.prompt, s.doc, s.autoResume)
	temperatures, err := s.prepareTemperatureRange()
	if err != nil {
		return err
	}

	s.publisher.Publish(mqtt.Event{Type: mqtt.EventSessionStarted})
	if s.learnAll(ctx, cfg, temperatures) == walkAbort {
		s.publisher.Publish(mqtt.Event{Type: mqtt.EventSessionAborted})
		return nil
	}
	s.learnOff(ctx)
	s.publisher.Publish(mqtt.Event{Type: mqtt.EventSessionFinished})
	return nil
}

func (s *Session) promptAutoResume() {
	if s.doc.Commands != nil && !s.doc.Commands.empty() {
		s.autoResume = s.prompt.yesNo("Do you want to resume where you left?", boolPtr(false))
	}
}

func (s *Session) prepareTemperatureRange() ([]decimal.Decimal, error) {
	minimum, err := promptTemperature(s.prompt, "minimum", s.minDefault, s.precision, nil)
	if err != nil {
		return nil, err
	}
	maximum, err := promptTemperature(s.prompt, "maximum", s.maxDefault, s.precision, &minimum)
	if err != nil {
		return nil, err
	}
	s.doc.setTemperatureBounds(minimum, maximum)
	return buildTemperatureRange(minimum, maximum, s.precision)
}

// learnAll walks operation modes × fan modes × swing modes. The
// working temperature sequence is reversed after every triple so the
// user alternates between running the remote up and down instead of
// resetting it each time.
func (s *Session) learnAll(ctx context.Context, cfg LearningConfig, temperatures []decimal.Decimal) walkSignal {
	temps := append([]decimal.Decimal(nil), temperatures...)
	for _, operationMode := range cfg.OperationModes {
		for _, fanMode := range cfg.FanModes {
			for _, swingMode := range cfg.SwingModes {
				if s.learnTriple(ctx, cfg, operationMode, fanMode, swingMode, temps) == walkAbort {
					return walkAbort
				}
				reverseTemperatures(temps)
			}
		}
	}
	return walkContinue
}

func (s *Session) learnTriple(ctx context.Context, cfg LearningConfig, operationMode, fanMode, swingMode string, temps []decimal.Decimal) walkSignal {
	entry := s.doc.commandSet().fan(operationMode, fanMode)
	target := newCellRef(entry, swingMode, cfg.SkipSwing)

	description := fmt.Sprintf("%q and %q fan", operationMode, fanMode)
	if !cfg.SkipSwing {
		description = fmt.Sprintf("%q, %q fan and %q swing mode", operationMode, fanMode, swingMode)
	}
	if target.size() > 0 && s.shouldSkipExisting(description) {
		s.collector.CellSkipped()
		return walkContinue
	}

	return s.captureCell(ctx, cfg, operationMode, fanMode, swingMode, target, temps)
}

// shouldSkipExisting implements the existing-entry policy: automatic
// in resume mode, otherwise asked with a default of carrying on.
func (s *Session) shouldSkipExisting(description string) bool {
	if s.autoResume {
		return true
	}
	question := fmt.Sprintf("It seems you already have the definition for %s. Do you want to skip to the next step?", description)
	return s.prompt.yesNo(question, boolPtr(false))
}

func (s *Session) captureCell(ctx context.Context, cfg LearningConfig, operationMode, fanMode, swingMode string, target cellRef, temps []decimal.Decimal) walkSignal {
	header := fmt.Sprintf("Learning for mode %s, fan %s", operationMode, fanMode)
	if !cfg.SkipSwing {
		header = fmt.Sprintf("%s, swing %s", header, swingMode)
	}
	s.prompt.say("%s", header)

	start := temperatureLabel(temps[0])
	response := strings.ToLower(s.prompt.line(
		"Prepare remote for learning, starting at %sº. Enter \"s\" if this mode has no temperature selection (e.g. fan mode). Continue? ([y]/n/s) ", start))

	if response == "n" || response == "no" {
		return walkAbort
	}

	// A fresh start is intentional: partial content from an earlier
	// aborted run of this same triple is discarded and re-learned.
	filled := target.reset()

	if response == "s" {
		s.prompt.say("Waiting for command")
		command := s.learnOne(ctx)
		for _, t := range temps {
			filled[temperatureLabel(t)] = command
		}
		s.publishCommand(operationMode, fanMode, swingMode, "", command)
		return walkContinue
	}

	for _, t := range temps {
		label := temperatureLabel(t)
		s.prompt.say("Waiting for command for temperature %s", label)
		command := s.learnOne(ctx)
		filled[label] = command
		s.publishCommand(operationMode, fanMode, swingMode, label, command)
	}
	return walkContinue
}

// learnOff captures the reserved top level off command. It is never
// skipped and has no existing-entry check.
func (s *Session) learnOff(ctx context.Context) {
	s.prompt.say("Waiting for the OFF command...")
	command := s.learnOne(ctx)
	s.doc.commandSet().Off = &command
	s.publishCommand(offKey, "", "", "", command)
}

func (s *Session) learnOne(ctx context.Context) string {
	started := time.Now()
	command := s.learner.Learn(ctx)
	s.collector.CommandLearned(command != "", time.Since(started))
	return command
}

func (s *Session) publishCommand(operationMode, fanMode, swingMode, temperature, command string) {
	s.publisher.Publish(mqtt.Event{
		Type:          mqtt.EventCommand,
		OperationMode: operationMode,
		FanMode:       fanMode,
		SwingMode:     swingMode,
		Temperature:   temperature,
		Captured:      command != "",
	})
}

// cellRef addresses the one temperature map a triple writes into:
// either the flat map on the fan entry or a swing sub map, both
// created on first touch.
type cellRef struct {
	entry *FanCommands
	swing string
	flat  bool
}

func newCellRef(entry *FanCommands, swingMode string, skipSwing bool) cellRef {
	if skipSwing || swingMode == noSwing {
		return cellRef{entry: entry, flat: true}
	}
	if entry.Swing == nil {
		entry.Swing = make(map[string]TemperatureMap)
	}
	if _, ok := entry.Swing[swingMode]; !ok {
		entry.Swing[swingMode] = make(TemperatureMap)
	}
	return cellRef{entry: entry, swing: swingMode}
}

func (r cellRef) size() int {
	if r.flat {
		return len(r.entry.Temps)
	}
	return len(r.entry.Swing[r.swing])
}

// reset discards whatever the container held and installs a fresh map
// for the capture loop to fill.
func (r cellRef) reset() TemperatureMap {
	m := make(TemperatureMap)
	if r.flat {
		r.entry.Temps = m
	} else {
		r.entry.Swing[r.swing] = m
	}
	return m
}
