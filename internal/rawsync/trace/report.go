package trace

import (
	"fmt"
	"strings"

	"github.com/kolkov/rawsync/internal/rawsync/epoch"
)

// Violation kinds, named "<earlier access>-<later access>".
const (
	KindWriteWrite = "write-write"
	KindReadWrite  = "read-write"
	KindWriteRead  = "write-read"
)

// Violation is a pair of accesses to one traced value that no
// synchronization edge orders.
type Violation struct {
	// Kind is one of KindWriteWrite, KindReadWrite, KindWriteRead.
	Kind string

	// Key is the tracer key of the value.
	Key uint64

	// Prev and Curr are the epochs of the earlier and the later access.
	Prev, Curr epoch.Epoch

	// PrevStack and CurrStack are formatted stacks of both accesses.
	PrevStack, CurrStack string
}

// String renders the violation in a race-report layout.
func (v Violation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unordered %s access to traced value %d\n", v.Kind, v.Key)
	fmt.Fprintf(&b, "current access at %s:\n%s", v.Curr, v.CurrStack)
	fmt.Fprintf(&b, "previous access at %s:\n%s", v.Prev, v.PrevStack)
	return b.String()
}
