package persistence

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hopkinsidd/flepimop-inference/errs"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// EMCEEArchive persists an ensemble's walkers into one aggregated artifact
// per (group, sweep) rather than the per-slot layout Writer uses: EMCEE has
// no slot/chimeric structure, only a flat population of walkers advancing
// together, so spec.md §6.2 calls for a single archive file per sweep
// instead of one file tree per walker.
type EMCEEArchive struct {
	Root         string
	Setup, RunID string
}

func (a EMCEEArchive) path(group paramstore.Group, sweep int) string {
	return filepath.Join(a.Root, a.Setup, a.RunID, "emcee", kindDir(group), fmt.Sprintf("sweep%09d.csv", sweep))
}

// WriteSweep writes every walker's projection of group to one archive file,
// prefixing each row with its walker index.
func (a EMCEEArchive) WriteSweep(group paramstore.Group, sweep int, walkers []paramstore.Sample) error {
	var combined paramstore.Table
	for i, s := range walkers {
		t := s.ToArtifact(group)
		if combined.Header == nil {
			combined.Header = append([]string{"walker"}, t.Header...)
		}
		for _, row := range t.Rows {
			combined.Rows = append(combined.Rows, append([]string{strconv.Itoa(i)}, row...))
		}
	}
	return writeTable(a.path(group, sweep), combined)
}

// ReadSweep restores every walker's group from the archive at sweep,
// merging each walker's row back onto schema the same way Reader.ReadGroup
// does for the per-slot layout.
func (a EMCEEArchive) ReadSweep(group paramstore.Group, sweep int, schema paramstore.Sample) ([]paramstore.Sample, error) {
	f, err := os.Open(a.path(group, sweep))
	if err != nil {
		return nil, errs.New(errs.KindResume, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errs.New(errs.KindResume, err)
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.KindResume, fmt.Errorf("emcee archive has no header row"))
	}
	header := rows[0][1:]

	byWalker := map[int][][]string{}
	var order []int
	for _, row := range rows[1:] {
		idx, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, errs.New(errs.KindResume, err)
		}
		if _, seen := byWalker[idx]; !seen {
			order = append(order, idx)
		}
		byWalker[idx] = append(byWalker[idx], row[1:])
	}

	out := make([]paramstore.Sample, len(order))
	for pos, idx := range order {
		var s paramstore.Sample
		t := paramstore.Table{Header: header, Rows: byWalker[idx]}
		if err := s.FromArtifact(group, t, schema); err != nil {
			return nil, errs.New(errs.KindResume, err)
		}
		out[pos] = s
	}
	return out, nil
}
