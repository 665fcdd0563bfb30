package arbor

import (
	"fmt"
	"time"
)

// FrameStats holds per-frame counts and timings of a Renderer frame.
type FrameStats struct {
	Traversals      int
	Items           int
	Layers          int
	Lights          int
	Culled          int
	ShadowMaps      int
	SkeletonUpdates int
	Freed           int

	collectTime time.Duration
	shadowTime  time.Duration
	submitTime  time.Duration
	totalTime   time.Duration
}

// debugLog logs timing and count stats at debug level.
func debugLog(stats FrameStats) {
	Logger().Debug("arbor: frame",
		"collect", stats.collectTime,
		"shadow", stats.shadowTime,
		"submit", stats.submitTime,
		"total", stats.totalTime,
		"traversals", stats.Traversals,
		"items", stats.Items,
		"layers", stats.Layers,
		"lights", stats.Lights,
		"culled", stats.Culled,
		"shadowMaps", stats.ShadowMaps,
		"skeletonUpdates", stats.SkeletonUpdates,
		"freed", stats.Freed,
	)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n != nil && n.disposed {
		panic(fmt.Sprintf("arbor debug: %s on disposed node %q", op, n.Name))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("arbor: tree depth exceeds threshold",
			"depth", depth, "threshold", debugMaxTreeDepth, "node", n.Name)
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("arbor: child count exceeds threshold",
			"node", n.Name, "children", len(n.children), "threshold", debugMaxChildCount)
	}
}
