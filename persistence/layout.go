// Package persistence implements the deterministic artifact layout, CSV
// codec, and resume contract of spec.md §6.2: every parameter group of
// every (slot, block, iteration) is written to one addressable path, so a
// crashed run can be resumed by finding the highest-numbered artifact a
// slot has on disk.
package persistence

import (
	"fmt"
	"path/filepath"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// Key addresses one artifact: a (setup, run_id, parameter kind, stream,
// slot, block, iteration) tuple, per spec.md §6.2.
type Key struct {
	Setup     string
	RunID     string
	Group     paramstore.Group
	Stream    string // "global" or "chimeric"
	Slot      int
	Block     int
	Iteration int
}

// kindDir maps a Group to the on-disk directory name flepiMoP-style tooling
// expects, following the snpi/hnpi/hpar/seed/init naming convention.
func kindDir(g paramstore.Group) string {
	switch g {
	case paramstore.GroupSNPI:
		return "snpi"
	case paramstore.GroupHNPI:
		return "hnpi"
	case paramstore.GroupHPAR:
		return "hpar"
	case paramstore.GroupSEED:
		return "seed"
	case paramstore.GroupINIT:
		return "init"
	default:
		return string(g)
	}
}

// Path returns the deterministic artifact path for k, rooted at root (the
// model_output directory).
func (k Key) Path(root string) string {
	dir := filepath.Join(root, k.Setup, k.RunID, kindDir(k.Group), k.Stream, fmt.Sprintf("slot_%04d", k.Slot))
	file := fmt.Sprintf("%s_%s_slot%04d_block%04d_iter%09d.%s.csv", k.Setup, k.RunID, k.Slot, k.Block, k.Iteration, kindDir(k.Group))
	return filepath.Join(dir, file)
}

// FinalPath returns the path final/ artifacts are copied to once a slot's
// chain completes: the highest-iteration artifact under a stable name that
// downstream tooling can read without knowing the iteration count.
func (k Key) FinalPath(root string) string {
	dir := filepath.Join(root, k.Setup, k.RunID, kindDir(k.Group), k.Stream, "final")
	file := fmt.Sprintf("%s_%s_slot%04d_block%04d.%s.csv", k.Setup, k.RunID, k.Slot, k.Block, kindDir(k.Group))
	return filepath.Join(dir, file)
}
