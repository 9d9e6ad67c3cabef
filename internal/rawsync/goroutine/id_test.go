package goroutine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"running", "goroutine 123 [running]:\nmain.main()", 123},
		{"single digit", "goroutine 1 [running]:", 1},
		{"no header", "panic: boom", 0},
		{"short", "gor", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseID([]byte(tt.in)))
		})
	}
}

func TestIDStableAndDistinct(t *testing.T) {
	id := ID()
	assert.Positive(t, id)
	assert.Equal(t, id, ID(), "ID changed within one goroutine")

	var other int64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = ID()
	}()
	wg.Wait()

	assert.Positive(t, other)
	assert.NotEqual(t, id, other)
}
