package persistence

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/hopkinsidd/flepimop-inference/errs"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

var iterPattern = regexp.MustCompile(`_iter(\d{9})\.`)

// LatestIteration scans the directory a Key with Iteration=0 would resolve
// into (one group/stream/slot/block) and returns the highest iteration
// number found on disk, or ok=false if no artifact exists yet — the
// resume contract of spec.md §6.2: a slot resumes from its own
// highest-numbered artifact, never from another slot's.
func (r Reader) LatestIteration(k Key) (int, bool, error) {
	probe := k
	probe.Iteration = 0
	dir := filepath.Dir(probe.Path(r.Root))
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return 0, false, errs.New(errs.KindResume, err)
	}
	best := -1
	for _, m := range matches {
		sub := iterPattern.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return 0, false, nil
	}
	return best, true, nil
}

// ResumeSample restores every declared group in schema from the most recent
// artifacts for (setup, runID, stream, slot, block), returning the combined
// Sample and the iteration it was resumed from. A group with no artifact on
// disk yet keeps schema's initial value for that group, which lets a run
// resume even if one group was never populated (e.g. SEED absent from
// configuration entirely).
func ResumeSample(root, setup, runID, stream string, slot, block int, schema paramstore.Sample) (paramstore.Sample, int, error) {
	reader := Reader{Root: root}
	out := schema.Copy()
	resumedAt := -1

	for _, g := range groupsPresent(schema) {
		k := Key{Setup: setup, RunID: runID, Group: g, Stream: stream, Slot: slot, Block: block}
		iter, ok, err := reader.LatestIteration(k)
		if err != nil {
			return paramstore.Sample{}, 0, err
		}
		if !ok {
			continue
		}
		k.Iteration = iter
		restored, err := reader.ReadGroup(k, schema)
		if err != nil {
			return paramstore.Sample{}, 0, fmt.Errorf("resuming group %s: %w", g, err)
		}
		if err := out.Set(g, restored.Get(g)); err != nil {
			return paramstore.Sample{}, 0, err
		}
		if iter > resumedAt {
			resumedAt = iter
		}
	}
	if resumedAt < 0 {
		return out, 0, nil
	}
	return out, resumedAt, nil
}

// ResumeFinalSample restores every declared group in schema from
// (setup, runID, stream, slot, block)'s final/ artifacts — the "previous
// block's final artifacts" spec.md §4.6 says seed a new block's initial
// state — returning the combined Sample and whether any group was actually
// found on disk. A group with no final artifact keeps schema's initial
// value, the same fallback ResumeSample applies for a group that was never
// populated.
func ResumeFinalSample(root, setup, runID, stream string, slot, block int, schema paramstore.Sample) (paramstore.Sample, bool, error) {
	reader := Reader{Root: root}
	out := schema.Copy()
	found := false

	for _, g := range groupsPresent(schema) {
		k := Key{Setup: setup, RunID: runID, Group: g, Stream: stream, Slot: slot, Block: block}
		restored, ok, err := reader.ReadFinal(k, schema)
		if err != nil {
			return paramstore.Sample{}, false, fmt.Errorf("resuming group %s from block %d final: %w", g, block, err)
		}
		if !ok {
			continue
		}
		if err := out.Set(g, restored.Get(g)); err != nil {
			return paramstore.Sample{}, false, err
		}
		found = true
	}
	return out, found, nil
}

func groupsPresent(s paramstore.Sample) []paramstore.Group {
	var out []paramstore.Group
	if s.HasSNPI {
		out = append(out, paramstore.GroupSNPI)
	}
	if s.HasHNPI {
		out = append(out, paramstore.GroupHNPI)
	}
	if s.HasHPAR {
		out = append(out, paramstore.GroupHPAR)
	}
	if s.HasSEED {
		out = append(out, paramstore.GroupSEED)
	}
	if s.HasINIT {
		out = append(out, paramstore.GroupINIT)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
