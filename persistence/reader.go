package persistence

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/hopkinsidd/flepimop-inference/errs"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// Reader restores parameter-group artifacts written by Writer.
type Reader struct {
	Root string
}

// ReadGroup reads k's artifact and merges it onto schema (which carries the
// Support/Prior/Kernel/Inferable metadata no artifact persists), returning
// the restored Sample with just group k.Group populated.
func (r Reader) ReadGroup(k Key, schema paramstore.Sample) (paramstore.Sample, error) {
	table, err := readTable(k.Path(r.Root))
	if err != nil {
		return paramstore.Sample{}, err
	}
	var out paramstore.Sample
	if err := out.FromArtifact(k.Group, table, schema); err != nil {
		return paramstore.Sample{}, errs.New(errs.KindResume, err)
	}
	return out, nil
}

// ReadFinal reads k's final/ artifact — the stable-named copy a completed
// block leaves behind (spec.md §6.2) — and merges it onto schema, the same
// way ReadGroup does for an iteration-numbered artifact. ok is false, with a
// nil error, when no final artifact has been written yet for k.
func (r Reader) ReadFinal(k Key, schema paramstore.Sample) (paramstore.Sample, bool, error) {
	path := k.FinalPath(r.Root)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return paramstore.Sample{}, false, nil
		}
		return paramstore.Sample{}, false, errs.New(errs.KindResume, err)
	}
	table, err := readTable(path)
	if err != nil {
		return paramstore.Sample{}, false, err
	}
	var out paramstore.Sample
	if err := out.FromArtifact(k.Group, table, schema); err != nil {
		return paramstore.Sample{}, false, errs.New(errs.KindResume, err)
	}
	return out, true, nil
}

func readTable(path string) (paramstore.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return paramstore.Table{}, errs.New(errs.KindResume, fmt.Errorf("opening artifact: %w", err))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return paramstore.Table{}, errs.New(errs.KindResume, fmt.Errorf("reading artifact: %w", err))
	}
	if len(rows) == 0 {
		return paramstore.Table{}, errs.New(errs.KindResume, fmt.Errorf("artifact %s has no header row", path))
	}
	return paramstore.Table{Header: rows[0], Rows: rows[1:]}, nil
}
