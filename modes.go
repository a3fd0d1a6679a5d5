package main

// noSwing occupies the swing axis when swing learning is disabled so
// the product walk stays uniform. A config with SkipSwing set always
// carries exactly this one marker.
const noSwing = ""

// LearningConfig is the resolved, immutable tuple of axes one session
// walks. It is built once, before any capture happens.
type LearningConfig struct {
	OperationModes []string
	FanModes       []string
	SwingModes     []string
	SkipSwing      bool
}

func boolPtr(v bool) *bool { return &v }

// resolveLearningConfig builds the session's LearningConfig. In
// resume mode the stored axes are reused verbatim; otherwise the user
// is asked, with empty answers falling back to the stored values.
func resolveLearningConfig(p *prompter, doc *Document, autoResume bool) LearningConfig {
	if autoResume {
		cfg := LearningConfig{
			OperationModes: append([]string(nil), doc.OperationModes...),
			FanModes:       append([]string(nil), doc.FanModes...),
		}
		if len(doc.SwingModes) == 0 {
			cfg.SwingModes = []string{noSwing}
			cfg.SkipSwing = true
		} else {
			cfg.SwingModes = append([]string(nil), doc.SwingModes...)
		}
		return cfg
	}

	operationModes := p.list("operation modes", doc.OperationModes)
	p.say("Will learn these operation modes: %v", operationModes)

	fanModes := p.list("fan modes", doc.FanModes)
	p.say("Will learn these fan modes: %v", fanModes)

	swingModes, skip := resolveSwingModes(p, doc)
	return LearningConfig{
		OperationModes: operationModes,
		FanModes:       fanModes,
		SwingModes:     swingModes,
		SkipSwing:      skip,
	}
}

// resolveSwingModes decides the swing axis. The skip default flips
// depending on whether the document already lists swing modes, and an
// empty list after opting in falls back to skipping.
func resolveSwingModes(p *prompter, doc *Document) ([]string, bool) {
	existing := doc.SwingModes
	if len(existing) == 0 {
		if p.yesNo("No swing modes detected. Do you want to skip swing mode learning?", boolPtr(true)) {
			clearSwingModes(p, doc)
			return []string{noSwing}, true
		}
	} else if p.yesNo("Do you want to skip swing mode learning?", boolPtr(false)) {
		clearSwingModes(p, doc)
		return []string{noSwing}, true
	}

	swingModes := p.list("swing modes", existing)
	if len(swingModes) == 0 {
		p.say("No swing modes provided. Swing mode learning will be skipped.")
		clearSwingModes(p, doc)
		return []string{noSwing}, true
	}

	p.say("Will learn these swing modes: %v", swingModes)
	doc.SwingModes = swingModes
	return swingModes, false
}

func clearSwingModes(p *prompter, doc *Document) {
	doc.SwingModes = []string{}
	p.say("Swing mode learning will be skipped.")
}
