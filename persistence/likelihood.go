package persistence

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hopkinsidd/flepimop-inference/errs"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// likelihoodGroup is a pseudo paramstore.Group used only to route Key.Path
// for the "likelihood" artifact kind of spec.md §6.2 — it is never a real
// parameter group, so Writer/Reader bypass Sample.ToArtifact/FromArtifact
// and read/write the table directly.
const likelihoodGroup = paramstore.Group("likelihood")

// totalRow and priorRow are the reserved "subpop" values the likelihood
// table uses to carry the two scalar totals alongside the per-subpopulation
// breakdown, so one table captures everything the resume contract needs to
// avoid re-simulating iteration 0 on every resume.
const (
	totalRow = "__total__"
	priorRow = "__prior__"
)

// LikelihoodKey addresses one stream's persisted likelihood record for a
// (slot, block, iteration).
func LikelihoodKey(setup, runID, stream string, slot, block, iteration int) Key {
	return Key{Setup: setup, RunID: runID, Group: likelihoodGroup, Stream: stream, Slot: slot, Block: block, Iteration: iteration}
}

// WriteLikelihood persists total (the combined score used in the global
// acceptance ratio, log-prior included), logPrior, and the per-subpopulation
// log-likelihood breakdown at k.
func (w Writer) WriteLikelihood(k Key, total, logPrior float64, perSubpop map[string]float64) error {
	table := likelihoodTable(total, logPrior, perSubpop)
	return writeTable(k.Path(w.Root), table)
}

// WriteLikelihoodFinal writes the same record to k's final/ path.
func (w Writer) WriteLikelihoodFinal(k Key, total, logPrior float64, perSubpop map[string]float64) error {
	table := likelihoodTable(total, logPrior, perSubpop)
	return writeTable(k.FinalPath(w.Root), table)
}

func likelihoodTable(total, logPrior float64, perSubpop map[string]float64) paramstore.Table {
	t := paramstore.Table{Header: []string{"subpop", "log_lik"}}
	t.Rows = append(t.Rows, []string{totalRow, strconv.FormatFloat(total, 'g', -1, 64)})
	t.Rows = append(t.Rows, []string{priorRow, strconv.FormatFloat(logPrior, 'g', -1, 64)})
	for subpop, ll := range perSubpop {
		t.Rows = append(t.Rows, []string{subpop, strconv.FormatFloat(ll, 'g', -1, 64)})
	}
	return t
}

// ReadLikelihood restores the record WriteLikelihood wrote at k.
func (r Reader) ReadLikelihood(k Key) (total, logPrior float64, perSubpop map[string]float64, err error) {
	return readLikelihoodTable(k.Path(r.Root))
}

// ReadLikelihoodFinal restores the record WriteLikelihoodFinal wrote at k's
// final/ path. ok is false, with a nil error, when no final likelihood
// record has been written yet for k.
func (r Reader) ReadLikelihoodFinal(k Key) (total, logPrior float64, perSubpop map[string]float64, ok bool, err error) {
	path := k.FinalPath(r.Root)
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return 0, 0, nil, false, nil
		}
		return 0, 0, nil, false, errs.New(errs.KindResume, statErr)
	}
	total, logPrior, perSubpop, err = readLikelihoodTable(path)
	if err != nil {
		return 0, 0, nil, false, err
	}
	return total, logPrior, perSubpop, true, nil
}

func readLikelihoodTable(path string) (total, logPrior float64, perSubpop map[string]float64, err error) {
	table, err := readTable(path)
	if err != nil {
		return 0, 0, nil, err
	}
	perSubpop = map[string]float64{}
	for _, row := range table.Rows {
		if len(row) < 2 {
			continue
		}
		v, perr := strconv.ParseFloat(row[1], 64)
		if perr != nil {
			return 0, 0, nil, errs.New(errs.KindResume, fmt.Errorf("parsing log_lik %q: %w", row[1], perr))
		}
		switch row[0] {
		case totalRow:
			total = v
		case priorRow:
			logPrior = v
		default:
			perSubpop[row[0]] = v
		}
	}
	return total, logPrior, perSubpop, nil
}

// ResumeLikelihood restores the most recently persisted likelihood record for
// (stream, slot, block), mirroring ResumeSample's resolution of the latest
// on-disk iteration, or ok=false when no likelihood artifact exists yet.
func ResumeLikelihood(root, setup, runID, stream string, slot, block int) (total, logPrior float64, perSubpop map[string]float64, iteration int, ok bool, err error) {
	reader := Reader{Root: root}
	k := LikelihoodKey(setup, runID, stream, slot, block, 0)
	iter, found, err := reader.LatestIteration(k)
	if err != nil || !found {
		return 0, 0, nil, 0, found, err
	}
	k.Iteration = iter
	total, logPrior, perSubpop, err = reader.ReadLikelihood(k)
	if err != nil {
		return 0, 0, nil, 0, false, err
	}
	return total, logPrior, perSubpop, iter, true, nil
}

// ResumeFinalLikelihood restores (stream, slot, block)'s final/ likelihood
// record — the counterpart to ResumeFinalSample used to seed a new block's
// starting score without re-simulating, or ok=false when no final
// likelihood record exists for that block yet.
func ResumeFinalLikelihood(root, setup, runID, stream string, slot, block int) (total, logPrior float64, perSubpop map[string]float64, ok bool, err error) {
	reader := Reader{Root: root}
	k := LikelihoodKey(setup, runID, stream, slot, block, 0)
	return reader.ReadLikelihoodFinal(k)
}
