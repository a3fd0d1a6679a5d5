package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAndSavePersistsAfterAbort(t *testing.T) {
	doc := sessionDocument([]string{"A"}, []string{"X"})
	doc.Commands = &CommandSet{
		Modes: map[string]map[string]*FanCommands{
			"A": {"X": {Temps: TemperatureMap{"16": "old"}}},
		},
	}
	// Fresh configuration, stored axes reused, swing skipped, default
	// bounds, keep the existing cell, then abort at the prepare prompt.
	session, _ := newTestSession(t, doc, &fakeLearner{}, "n\n\n\n\n\n\nn\nn\n")

	path := filepath.Join(t.TempDir(), "smartir.json")
	require.NoError(t, runAndSave(session, doc, path))

	saved, err := loadDocument(path)
	require.NoError(t, err)
	require.NotNil(t, saved.Commands)
	assert.Equal(t, TemperatureMap{"16": "old"}, saved.Commands.Modes["A"]["X"].Temps)
	assert.Nil(t, saved.Commands.Off)
}

func TestRunAndSaveStillWritesWhenRunFails(t *testing.T) {
	doc := sessionDocument([]string{"A"}, []string{"X"})
	doc.Precision = "0.5"
	doc.MinTemperature = "16.3"

	var out strings.Builder
	prompt := newPrompter(strings.NewReader("\n\n\n"), &out)
	session, err := newSession(doc, prompt, &fakeLearner{}, nil, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "smartir.json")
	err = runAndSave(session, doc, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errInvalidConfig)

	saved, loadErr := loadDocument(path)
	require.NoError(t, loadErr)
	assert.Equal(t, []string{"A"}, saved.OperationModes)
}
