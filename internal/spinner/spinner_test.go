package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStart_NonTerminalDrawsNothing(t *testing.T) {
	var buf bytes.Buffer
	stop := Start(&buf, "Refreshing")
	time.Sleep(2 * interval)
	stop()
	stop()
	assert.Empty(t, buf.String())
}

func TestStart_DrawsAndClears(t *testing.T) {
	var buf syncBuffer
	stop := start(&buf, "Refreshing model data")
	time.Sleep(3 * interval)
	stop()

	out := buf.String()
	assert.Contains(t, out, frames[0]+" Refreshing model data")
	assert.True(t, strings.HasSuffix(out, "\r"), "line is cleared on stop")

	stop()
	assert.Equal(t, out, buf.String(), "stop is idempotent")
}
