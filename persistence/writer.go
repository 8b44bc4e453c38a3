package persistence

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hopkinsidd/flepimop-inference/errs"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// Writer persists parameter-group artifacts under root following Key's
// deterministic layout.
type Writer struct {
	Root string
}

// WriteGroup projects sample's group g to a Table and writes it to k's
// path, creating parent directories as needed.
func (w Writer) WriteGroup(k Key, sample paramstore.Sample) error {
	table := sample.ToArtifact(k.Group)
	return writeTable(k.Path(w.Root), table)
}

// WriteFinal writes sample's group g to k's final/ path, the stable name a
// completed slot's output is copied to.
func (w Writer) WriteFinal(k Key, sample paramstore.Sample) error {
	table := sample.ToArtifact(k.Group)
	return writeTable(k.FinalPath(w.Root), table)
}

func writeTable(path string, table paramstore.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.New(errs.KindPersistence, fmt.Errorf("creating artifact directory: %w", err))
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.KindPersistence, fmt.Errorf("creating artifact file: %w", err))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Header); err != nil {
		return errs.New(errs.KindPersistence, err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return errs.New(errs.KindPersistence, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errs.New(errs.KindPersistence, err)
	}
	return nil
}
