package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// TemperatureMap maps a canonical temperature label to the IR code
// captured for that temperature. The empty string means the capture
// timed out for that cell.
type TemperatureMap map[string]string

// FanCommands holds the codes stored under one (operation mode, fan
// mode) pair. Exactly one representation is active per document:
// Temps when swing learning is disabled, Swing when each swing mode
// carries its own temperature map.
type FanCommands struct {
	Temps TemperatureMap
	Swing map[string]TemperatureMap
}

func (f FanCommands) MarshalJSON() ([]byte, error) {
	if f.Swing != nil {
		return json.Marshal(f.Swing)
	}
	if f.Temps == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f.Temps)
}

func (f *FanCommands) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		if v := bytes.TrimSpace(val); len(v) > 0 && v[0] == '{' {
			var temps TemperatureMap
			if err := json.Unmarshal(val, &temps); err != nil {
				return fmt.Errorf("swing entry %q: %w", key, err)
			}
			if f.Swing == nil {
				f.Swing = make(map[string]TemperatureMap)
			}
			f.Swing[key] = temps
			continue
		}
		var code string
		if err := json.Unmarshal(val, &code); err != nil {
			return fmt.Errorf("temperature entry %q: %w", key, err)
		}
		if f.Temps == nil {
			f.Temps = make(TemperatureMap)
		}
		f.Temps[key] = code
	}
	return nil
}

// CommandSet is the full commands object: operation mode entries plus
// the reserved top level "off" code.
type CommandSet struct {
	Modes map[string]map[string]*FanCommands
	Off   *string
}

const offKey = "off"

// fan returns the FanCommands for the given pair, creating the
// operation and fan entries when absent.
func (c *CommandSet) fan(operationMode, fanMode string) *FanCommands {
	if c.Modes == nil {
		c.Modes = make(map[string]map[string]*FanCommands)
	}
	fans, ok := c.Modes[operationMode]
	if !ok {
		fans = make(map[string]*FanCommands)
		c.Modes[operationMode] = fans
	}
	entry, ok := fans[fanMode]
	if !ok {
		entry = &FanCommands{}
		fans[fanMode] = entry
	}
	return entry
}

func (c *CommandSet) empty() bool {
	return len(c.Modes) == 0 && c.Off == nil
}

func (c CommandSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.Modes)+1)
	for mode, fans := range c.Modes {
		raw, err := json.Marshal(fans)
		if err != nil {
			return nil, err
		}
		out[mode] = raw
	}
	if c.Off != nil {
		raw, err := json.Marshal(*c.Off)
		if err != nil {
			return nil, err
		}
		out[offKey] = raw
	}
	return json.Marshal(out)
}

func (c *CommandSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		if key == offKey {
			var code string
			if err := json.Unmarshal(val, &code); err != nil {
				return fmt.Errorf("off command: %w", err)
			}
			c.Off = &code
			continue
		}
		var fans map[string]*FanCommands
		if err := json.Unmarshal(val, &fans); err != nil {
			return fmt.Errorf("operation mode %q: %w", key, err)
		}
		if c.Modes == nil {
			c.Modes = make(map[string]map[string]*FanCommands)
		}
		c.Modes[key] = fans
	}
	return nil
}

// Document is the persisted SmartIR configuration. Fields this tool
// does not understand are kept verbatim and written back on save.
type Document struct {
	Precision      json.Number
	MinTemperature json.Number
	MaxTemperature json.Number
	OperationModes []string
	FanModes       []string
	SwingModes     []string
	Commands       *CommandSet

	extra map[string]json.RawMessage
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	take := func(key string, dst interface{}) error {
		val, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		return json.Unmarshal(val, dst)
	}
	if err := take("precision", &d.Precision); err != nil {
		return fmt.Errorf("precision: %w", err)
	}
	if err := take("minTemperature", &d.MinTemperature); err != nil {
		return fmt.Errorf("minTemperature: %w", err)
	}
	if err := take("maxTemperature", &d.MaxTemperature); err != nil {
		return fmt.Errorf("maxTemperature: %w", err)
	}
	if err := take("operationModes", &d.OperationModes); err != nil {
		return fmt.Errorf("operationModes: %w", err)
	}
	if err := take("fanModes", &d.FanModes); err != nil {
		return fmt.Errorf("fanModes: %w", err)
	}
	if err := take("swingModes", &d.SwingModes); err != nil {
		return fmt.Errorf("swingModes: %w", err)
	}
	if err := take("commands", &d.Commands); err != nil {
		return fmt.Errorf("commands: %w", err)
	}
	d.extra = raw
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.extra)+7)
	for key, val := range d.extra {
		out[key] = val
	}
	put := func(key string, src interface{}) error {
		raw, err := json.Marshal(src)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out[key] = raw
		return nil
	}
	if err := put("precision", d.Precision); err != nil {
		return nil, err
	}
	if err := put("minTemperature", d.MinTemperature); err != nil {
		return nil, err
	}
	if err := put("maxTemperature", d.MaxTemperature); err != nil {
		return nil, err
	}
	if d.OperationModes != nil {
		if err := put("operationModes", d.OperationModes); err != nil {
			return nil, err
		}
	}
	if d.FanModes != nil {
		if err := put("fanModes", d.FanModes); err != nil {
			return nil, err
		}
	}
	if d.SwingModes != nil {
		if err := put("swingModes", d.SwingModes); err != nil {
			return nil, err
		}
	}
	if d.Commands != nil {
		if err := put("commands", d.Commands); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// commandSet returns the document's commands container, creating it
// on first use.
func (d *Document) commandSet() *CommandSet {
	if d.Commands == nil {
		d.Commands = &CommandSet{}
	}
	return d.Commands
}

func (d *Document) precisionValue() (decimal.Decimal, error) {
	return documentDecimal("precision", d.Precision)
}

func (d *Document) minTemperatureValue() (decimal.Decimal, error) {
	return documentDecimal("minTemperature", d.MinTemperature)
}

func (d *Document) maxTemperatureValue() (decimal.Decimal, error) {
	return documentDecimal("maxTemperature", d.MaxTemperature)
}

// setTemperatureBounds writes the accepted bounds back in the compact
// numeric form (17 rather than 17.0).
func (d *Document) setTemperatureBounds(minimum, maximum decimal.Decimal) {
	d.MinTemperature = json.Number(temperatureLabel(minimum))
	d.MaxTemperature = json.Number(temperatureLabel(maximum))
}

func documentDecimal(field string, raw json.Number) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: missing %s", errInvalidConfig, field)
	}
	value, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s: %v", errInvalidConfig, field, err)
	}
	return value, nil
}

// loadDocument reads the configuration from path. Optional fields may
// be absent; they default to empty containers.
func loadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	return &doc, nil
}

// saveDocument rewrites the full document, pretty printed the way the
// rest of the SmartIR tooling expects.
func saveDocument(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
