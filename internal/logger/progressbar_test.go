package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBarAddAndFinish(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(10, &buf, "scanning")

	pb.Add(3)
	pb.Add(7)
	pb.Finish()

	assert.NotNil(t, pb)
}

func TestNewProgressBarZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(0, &buf, "scanning")
	assert.NotPanics(t, func() {
		pb.Add(0)
		pb.Finish()
	})
}
