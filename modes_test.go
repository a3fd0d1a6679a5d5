package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modesDocument() *Document {
	return &Document{
		Precision:      "1",
		MinTemperature: "16",
		MaxTemperature: "30",
		OperationModes: []string{"cool", "heat"},
		FanModes:       []string{"low", "high"},
	}
}

// requireSwingInvariant asserts that skipSwing is set exactly when
// the swing axis is the single no-swing marker.
func requireSwingInvariant(t *testing.T, cfg LearningConfig) {
	t.Helper()
	isMarker := len(cfg.SwingModes) == 1 && cfg.SwingModes[0] == noSwing
	require.Equal(t, cfg.SkipSwing, isMarker)
}

func TestResolveLearningConfigResume(t *testing.T) {
	doc := modesDocument()
	p := newPrompter(strings.NewReader(""), io.Discard)

	cfg := resolveLearningConfig(p, doc, true)

	assert.Equal(t, []string{"cool", "heat"}, cfg.OperationModes)
	assert.Equal(t, []string{"low", "high"}, cfg.FanModes)
	assert.True(t, cfg.SkipSwing)
	assert.Equal(t, []string{noSwing}, cfg.SwingModes)
	requireSwingInvariant(t, cfg)
}

func TestResolveLearningConfigResumeWithStoredSwing(t *testing.T) {
	doc := modesDocument()
	doc.SwingModes = []string{"vertical", "horizontal"}
	p := newPrompter(strings.NewReader(""), io.Discard)

	cfg := resolveLearningConfig(p, doc, true)

	assert.False(t, cfg.SkipSwing)
	assert.Equal(t, []string{"vertical", "horizontal"}, cfg.SwingModes)
	requireSwingInvariant(t, cfg)
}

func TestResolveLearningConfigFresh(t *testing.T) {
	doc := modesDocument()
	// operation modes entered, fan modes reused, swing skipped by default.
	p := newPrompter(strings.NewReader("auto, dry\n\n\n"), io.Discard)

	cfg := resolveLearningConfig(p, doc, false)

	assert.Equal(t, []string{"auto", "dry"}, cfg.OperationModes)
	assert.Equal(t, []string{"low", "high"}, cfg.FanModes)
	assert.True(t, cfg.SkipSwing)
	requireSwingInvariant(t, cfg)
	require.NotNil(t, doc.SwingModes)
	assert.Empty(t, doc.SwingModes)
}

func TestResolveSwingModesOptInThenEmptyFallsBackToSkip(t *testing.T) {
	doc := modesDocument()
	var out bytes.Buffer
	// Decline the skip, then provide no swing modes.
	p := newPrompter(strings.NewReader("n\n\n"), &out)

	swingModes, skip := resolveSwingModes(p, doc)

	assert.True(t, skip)
	assert.Equal(t, []string{noSwing}, swingModes)
	require.NotNil(t, doc.SwingModes)
	assert.Empty(t, doc.SwingModes)
	assert.Contains(t, out.String(), "No swing modes provided")
}

func TestResolveSwingModesStoredDefaultsToKeep(t *testing.T) {
	doc := modesDocument()
	doc.SwingModes = []string{"vertical"}
	// Empty answers: keep learning swing, reuse the stored list.
	p := newPrompter(strings.NewReader("\n\n"), io.Discard)

	swingModes, skip := resolveSwingModes(p, doc)

	assert.False(t, skip)
	assert.Equal(t, []string{"vertical"}, swingModes)
	assert.Equal(t, []string{"vertical"}, doc.SwingModes)
}

func TestResolveSwingModesStoredCanBeSkipped(t *testing.T) {
	doc := modesDocument()
	doc.SwingModes = []string{"vertical"}
	p := newPrompter(strings.NewReader("y\n"), io.Discard)

	swingModes, skip := resolveSwingModes(p, doc)

	assert.True(t, skip)
	assert.Equal(t, []string{noSwing}, swingModes)
	assert.Empty(t, doc.SwingModes)
}

func TestResolveSwingModesFreshList(t *testing.T) {
	doc := modesDocument()
	p := newPrompter(strings.NewReader("n\nvertical, horizontal\n"), io.Discard)

	swingModes, skip := resolveSwingModes(p, doc)

	assert.False(t, skip)
	assert.Equal(t, []string{"vertical", "horizontal"}, swingModes)
	assert.Equal(t, []string{"vertical", "horizontal"}, doc.SwingModes)
}

func TestPrompterYesNo(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("maybe\nyes\n"), &out)

	assert.True(t, p.yesNo("Continue?", nil))
	assert.Contains(t, out.String(), "Please respond with 'y' or 'n'.")

	p = newPrompter(strings.NewReader("\n"), io.Discard)
	assert.False(t, p.yesNo("Continue?", boolPtr(false)))
}

func TestPrompterYesNoEOF(t *testing.T) {
	p := newPrompter(strings.NewReader(""), io.Discard)
	assert.True(t, p.yesNo("Skip?", boolPtr(true)))

	p = newPrompter(strings.NewReader(""), io.Discard)
	assert.False(t, p.yesNo("Skip?", boolPtr(false)))

	// No default means no answer to fall back on.
	p = newPrompter(strings.NewReader(""), io.Discard)
	assert.False(t, p.yesNo("Skip?", nil))
}

func TestPrompterList(t *testing.T) {
	p := newPrompter(strings.NewReader(" a , b ,, c \n"), io.Discard)
	assert.Equal(t, []string{"a", "b", "c"}, p.list("things", []string{"stored"}))

	p = newPrompter(strings.NewReader("\n"), io.Discard)
	assert.Equal(t, []string{"stored"}, p.list("things", []string{"stored"}))
}
