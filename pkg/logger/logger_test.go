package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	return &buf
}

func TestTaskWrapper(t *testing.T) {
	buf := captureOutput(t)

	err := TaskWrapper("abc", "admin resources cleanup", func() error { return nil })

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Task abc | Starting:  admin resources cleanup")
	assert.Contains(t, buf.String(), "Task abc | Completed: admin resources cleanup")
}

func TestTaskWrapper_Failure(t *testing.T) {
	buf := captureOutput(t)
	boom := errors.New("boom")

	err := TaskWrapper("abc", "admin resources cleanup", func() error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "Failed:    admin resources cleanup: boom")
	assert.NotContains(t, buf.String(), "Completed")
}

func TestSetLevel(t *testing.T) {
	buf := captureOutput(t)
	defer SetLevel("info")

	SetLevel("warn")
	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
