package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// errInvalidConfig marks document values that cannot drive a learning
// session, such as a missing or non positive precision.
var errInvalidConfig = errors.New("invalid configuration")

// temperatureLabel renders a temperature in the canonical form used
// for both prompts and command map keys. Trailing zeros and a
// trailing decimal point are stripped, so numerically equal values
// always share one label.
func temperatureLabel(value decimal.Decimal) string {
	return value.String()
}

// parseTemperature is the inverse of temperatureLabel.
func parseTemperature(label string) (decimal.Decimal, error) {
	return decimal.NewFromString(label)
}

// validateTemperature checks a candidate value against the precision
// grid and, when minimum is given, against the lower bound.
func validateTemperature(value, precision decimal.Decimal, minimum *decimal.Decimal) error {
	if !precision.IsPositive() {
		return errors.New("precision must be greater than zero")
	}
	if !value.Mod(precision).IsZero() {
		return fmt.Errorf("temperature must align with the configured precision (%s)", precision)
	}
	if minimum != nil {
		if value.LessThan(*minimum) {
			return errors.New("maximum temperature cannot be lower than minimum temperature")
		}
		if !value.Sub(*minimum).Mod(precision).IsZero() {
			return fmt.Errorf("the temperature difference must be a multiple of the precision (%s)", precision)
		}
	}
	return nil
}

// buildTemperatureRange produces the ordered sequence minimum,
// minimum+precision, ... up to and including maximum.
func buildTemperatureRange(minimum, maximum, precision decimal.Decimal) ([]decimal.Decimal, error) {
	if !precision.IsPositive() {
		return nil, fmt.Errorf("%w: precision must be greater than zero", errInvalidConfig)
	}
	var values []decimal.Decimal
	for current := minimum; current.LessThanOrEqual(maximum); current = current.Add(precision) {
		values = append(values, current)
	}
	return values, nil
}

func reverseTemperatures(values []decimal.Decimal) {
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
}

// promptTemperature asks for a temperature, re-prompting on malformed
// or misaligned input. An empty response picks def, which still has
// to pass validation; when the input stream runs out before a valid
// value arrived, the failure is surfaced instead of re-prompting
// forever or letting a misaligned default through.
func promptTemperature(p *prompter, label string, def, precision decimal.Decimal, minimum *decimal.Decimal) (decimal.Decimal, error) {
	for {
		response := p.line("Enter %s temperature (default %s): ", label, temperatureLabel(def))
		value := def
		if response != "" {
			parsed, err := parseTemperature(response)
			if err != nil {
				p.say("Invalid temperature value. Please try again.")
				if !p.eof {
					continue
				}
			} else {
				value = parsed
			}
		}
		if err := validateTemperature(value, precision, minimum); err != nil {
			p.say("%s", err)
			if p.eof {
				return decimal.Decimal{}, fmt.Errorf("%w: no valid %s temperature: %v", errInvalidConfig, label, err)
			}
			continue
		}
		return value, nil
	}
}
