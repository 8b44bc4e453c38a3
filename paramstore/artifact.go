package paramstore

import (
	"fmt"
	"strconv"
	"time"
)

// Table is a columnar projection of one group: a header row plus one data
// row per entry, in the same column order persistence.Writer expects. This
// is the "single narrow serializer that projects to the resume-compatible
// tabular layout" called for in spec.md §9.
type Table struct {
	Header []string
	Rows   [][]string
}

const dateLayout = "2006-01-02"

// ToArtifact projects group g of s into its Table form (spec.md §4.1
// to_artifact). Returns an empty Table (header only) for absent groups.
func (s Sample) ToArtifact(g Group) Table {
	switch g {
	case GroupSNPI:
		return modifiersToTable(s.SNPI)
	case GroupHNPI:
		return modifiersToTable(s.HNPI)
	case GroupHPAR:
		t := Table{Header: []string{"quantity", "subpop", "outcome", "value"}}
		for _, e := range s.HPAR {
			t.Rows = append(t.Rows, []string{string(e.Quantity), e.Subpop, e.Outcome, formatFloat(e.Value)})
		}
		return t
	case GroupSEED:
		t := Table{Header: []string{"date", "subpop", "source", "destination", "amount", "no_perturb"}}
		for _, e := range s.SEED {
			t.Rows = append(t.Rows, []string{
				e.Date.Format(dateLayout), e.Subpop, e.SourceCompartment, e.DestCompartment,
				formatFloat(e.Amount), strconv.FormatBool(e.NoPerturb),
			})
		}
		return t
	case GroupINIT:
		t := Table{Header: []string{"subpop", "compartment", "amount"}}
		for _, e := range s.INIT {
			t.Rows = append(t.Rows, []string{e.Subpop, e.Compartment, formatFloat(e.Amount)})
		}
		return t
	default:
		return Table{}
	}
}

func modifiersToTable(entries []ModifierEntry) Table {
	t := Table{Header: []string{"name", "subpop", "param", "start", "end", "value"}}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			e.Name, e.Subpop, e.Param, e.Start.Format(dateLayout), e.End.Format(dateLayout), formatFloat(e.Value),
		})
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FromArtifact restores group g's values from a Table produced by
// ToArtifact, merging the restored values onto the *declared schema* slice
// schema (which carries Support/Prior/Kernel/Inferable, none of which are
// persisted) so resumed samples keep their perturbation configuration.
func (s *Sample) FromArtifact(g Group, t Table, schema Sample) error {
	switch g {
	case GroupSNPI:
		entries, err := modifiersFromTable(t, schema.SNPI)
		if err != nil {
			return err
		}
		s.SNPI = entries
		s.HasSNPI = true
	case GroupHNPI:
		entries, err := modifiersFromTable(t, schema.HNPI)
		if err != nil {
			return err
		}
		s.HNPI = entries
		s.HasHNPI = true
	case GroupHPAR:
		index := indexHPAR(schema.HPAR)
		var entries []OutcomeParamEntry
		for _, row := range t.Rows {
			if len(row) < 4 {
				return &InvalidParameterShape{Group: g, Reason: "HPAR row has fewer than 4 columns"}
			}
			key := row[0] + "/" + row[1] + "/" + row[2]
			base, ok := index[key]
			if !ok {
				return &InvalidParameterShape{Group: g, Reason: fmt.Sprintf("unknown HPAR entry %s", key)}
			}
			val, err := strconv.ParseFloat(row[3], 64)
			if err != nil {
				return &InvalidParameterShape{Group: g, Reason: err.Error()}
			}
			base.Value = val
			entries = append(entries, base)
		}
		s.HPAR = entries
		s.HasHPAR = true
	case GroupSEED:
		index := indexSeed(schema.SEED)
		var entries []SeedEvent
		for _, row := range t.Rows {
			if len(row) < 6 {
				return &InvalidParameterShape{Group: g, Reason: "SEED row has fewer than 6 columns"}
			}
			date, err := time.Parse(dateLayout, row[0])
			if err != nil {
				return &InvalidParameterShape{Group: g, Reason: err.Error()}
			}
			amount, err := strconv.ParseFloat(row[4], 64)
			if err != nil {
				return &InvalidParameterShape{Group: g, Reason: err.Error()}
			}
			noPerturb, err := strconv.ParseBool(row[5])
			if err != nil {
				return &InvalidParameterShape{Group: g, Reason: err.Error()}
			}
			key := row[1] + "/" + row[2] + "->" + row[3]
			base := index[key] // zero value if unseen; SD fields default to 0 (no perturbation info lost beyond that)
			entries = append(entries, SeedEvent{
				Date: date, Subpop: row[1], SourceCompartment: row[2], DestCompartment: row[3],
				Amount: amount, NoPerturb: noPerturb, DateSD: base.DateSD, AmountSD: base.AmountSD,
			})
		}
		s.SEED = entries
		s.HasSEED = true
	case GroupINIT:
		index := indexInit(schema.INIT)
		var entries []InitialConditionEntry
		for _, row := range t.Rows {
			if len(row) < 3 {
				return &InvalidParameterShape{Group: g, Reason: "INIT row has fewer than 3 columns"}
			}
			key := row[0] + "/" + row[1]
			base := index[key]
			amount, err := strconv.ParseFloat(row[2], 64)
			if err != nil {
				return &InvalidParameterShape{Group: g, Reason: err.Error()}
			}
			base.Subpop, base.Compartment, base.Amount = row[0], row[1], amount
			entries = append(entries, base)
		}
		s.INIT = entries
		s.HasINIT = true
	default:
		return &InvalidParameterShape{Group: g, Reason: "unknown group"}
	}
	return nil
}

func modifiersFromTable(t Table, schema []ModifierEntry) ([]ModifierEntry, error) {
	index := map[string]ModifierEntry{}
	for _, e := range schema {
		index[e.ID()] = e
	}
	var entries []ModifierEntry
	for _, row := range t.Rows {
		if len(row) < 6 {
			return nil, &InvalidParameterShape{Reason: "modifier row has fewer than 6 columns"}
		}
		key := row[0] + "/" + row[1] + "/" + row[2]
		base, ok := index[key]
		if !ok {
			return nil, &InvalidParameterShape{Reason: fmt.Sprintf("unknown modifier entry %s", key)}
		}
		val, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, &InvalidParameterShape{Reason: err.Error()}
		}
		base.Value = val
		entries = append(entries, base)
	}
	return entries, nil
}

func indexHPAR(entries []OutcomeParamEntry) map[string]OutcomeParamEntry {
	idx := make(map[string]OutcomeParamEntry, len(entries))
	for _, e := range entries {
		idx[e.ID()] = e
	}
	return idx
}

func indexSeed(entries []SeedEvent) map[string]SeedEvent {
	idx := make(map[string]SeedEvent, len(entries))
	for _, e := range entries {
		idx[e.Subpop+"/"+e.SourceCompartment+"->"+e.DestCompartment] = e
	}
	return idx
}

func indexInit(entries []InitialConditionEntry) map[string]InitialConditionEntry {
	idx := make(map[string]InitialConditionEntry, len(entries))
	for _, e := range entries {
		idx[e.ID()] = e
	}
	return idx
}
