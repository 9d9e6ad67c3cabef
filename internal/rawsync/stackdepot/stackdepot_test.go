package stackdepot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureHere(d *Depot) uint64 {
	return d.Capture(0)
}

func TestCaptureDeduplicates(t *testing.T) {
	d := New()
	var hs []uint64
	for i := 0; i < 3; i++ {
		hs = append(hs, captureHere(d))
	}

	require.NotZero(t, hs[0])
	assert.Equal(t, hs[0], hs[1])
	assert.Equal(t, hs[0], hs[2])
	assert.Equal(t, 1, d.Len())
}

func TestFormatNamesCaller(t *testing.T) {
	d := New()
	h := captureHere(d)

	out := d.Get(h).Format()
	assert.True(t, strings.Contains(out, "captureHere"), "format missing caller:\n%s", out)
	assert.Contains(t, out, "stackdepot_test.go")
}

func TestGetUnknown(t *testing.T) {
	d := New()
	assert.Nil(t, d.Get(0))
	assert.Nil(t, d.Get(42))

	var st *StackTrace
	assert.Equal(t, "  <unknown>\n", st.Format())
}

func TestReset(t *testing.T) {
	d := New()
	captureHere(d)
	d.Reset()
	assert.Zero(t, d.Len())
}
