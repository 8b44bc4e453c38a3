// Package view renders live chain-progress snapshots into an html table
// view, pushed to the browser via monitor/fastview's websocket plumbing.
// Adapted from server/cell_views's CellViewModel/Convert shape and
// server/root_view's single concrete view, replacing the grid/value-surface
// rendering with a per-slot progress table.
package view

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/hopkinsidd/flepimop-inference/monitor/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// SlotSnapshot is the data model emitted by the driver for one chain slot at
// a point in time.
type SlotSnapshot struct {
	Slot               int
	Block              int
	Iteration          int
	GlobalAcceptRate   float64
	ChimericAcceptRate float64
	GlobalScore        float64
	ChimericScore      float64
}

// SlotViewModel is SlotSnapshot projected into display-ready fields.
type SlotViewModel struct {
	Slot               int
	Block              int
	Iteration          int
	GlobalAcceptRate   string
	ChimericAcceptRate string
	GlobalScore        string
	ChimericScore      string
}

// Convert transforms a batch of slot snapshots into view models, sorted by
// slot so the table's row order is stable across updates.
func Convert(snapshots []SlotSnapshot) []SlotViewModel {
	out := make([]SlotViewModel, len(snapshots))
	for i, s := range snapshots {
		out[i] = SlotViewModel{
			Slot:               s.Slot,
			Block:              s.Block,
			Iteration:          s.Iteration,
			GlobalAcceptRate:   fmt.Sprintf("%.3f", s.GlobalAcceptRate),
			ChimericAcceptRate: fmt.Sprintf("%.3f", s.ChimericAcceptRate),
			GlobalScore:        fmt.Sprintf("%.2f", s.GlobalScore),
			ChimericScore:      fmt.Sprintf("%.2f", s.ChimericScore),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// SlotTable is the single view of the dashboard: one row per slot, updated
// in place as new snapshots arrive.
type SlotTable struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

// NewSlotTable builds a SlotTable view fed by the given view-model channel.
func NewSlotTable(
	done <-chan struct{},
	snapshots <-chan []SlotViewModel,
) *SlotTable {
	st := &SlotTable{id: "slottable"}
	st.updates = channerics.Convert(done, snapshots, st.onUpdate)
	return st
}

// Updates returns the channel of ele-updates for this view.
func (st *SlotTable) Updates() <-chan []fastview.EleUpdate {
	return st.updates
}

func rowCellID(slot int, field string) string {
	return fmt.Sprintf("slot-%d-%s", slot, field)
}

func (st *SlotTable) onUpdate(rows []SlotViewModel) (ops []fastview.EleUpdate) {
	for _, row := range rows {
		ops = append(ops,
			fastview.EleUpdate{EleId: rowCellID(row.Slot, "block"), Ops: []fastview.Op{{Key: "textContent", Value: fmt.Sprintf("%d", row.Block)}}},
			fastview.EleUpdate{EleId: rowCellID(row.Slot, "iteration"), Ops: []fastview.Op{{Key: "textContent", Value: fmt.Sprintf("%d", row.Iteration)}}},
			fastview.EleUpdate{EleId: rowCellID(row.Slot, "global-accept"), Ops: []fastview.Op{{Key: "textContent", Value: row.GlobalAcceptRate}}},
			fastview.EleUpdate{EleId: rowCellID(row.Slot, "chimeric-accept"), Ops: []fastview.Op{{Key: "textContent", Value: row.ChimericAcceptRate}}},
			fastview.EleUpdate{EleId: rowCellID(row.Slot, "global-score"), Ops: []fastview.Op{{Key: "textContent", Value: row.GlobalScore}}},
			fastview.EleUpdate{EleId: rowCellID(row.Slot, "chimeric-score"), Ops: []fastview.Op{{Key: "textContent", Value: row.ChimericScore}}},
		)
	}
	return
}

// Parse builds the table's initial (empty) template; rows are filled in by
// the first batch of ele-updates once the websocket connects.
func (st *SlotTable) Parse(t *template.Template) (name string, err error) {
	name = st.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<table id="` + st.id + `" border="1" cellpadding="6">
			<thead>
				<tr>
					<th>Slot</th><th>Block</th><th>Iteration</th>
					<th>Global accept</th><th>Chimeric accept</th>
					<th>Global score</th><th>Chimeric score</th>
				</tr>
			</thead>
			<tbody id="` + st.id + `-body">
			{{ range .Slots }}
				<tr>
					<td>{{ .Slot }}</td>
					<td id="slot-{{ .Slot }}-block"></td>
					<td id="slot-{{ .Slot }}-iteration"></td>
					<td id="slot-{{ .Slot }}-global-accept"></td>
					<td id="slot-{{ .Slot }}-chimeric-accept"></td>
					<td id="slot-{{ .Slot }}-global-score"></td>
					<td id="slot-{{ .Slot }}-chimeric-score"></td>
				</tr>
			{{ end }}
			</tbody>
		</table>
		{{ end }}`)
	return
}

// IndexData is the template data passed when first rendering the page: the
// set of slots known at server startup, so the table has a row per slot
// before any websocket update arrives.
type IndexData struct {
	Slots []int
}

// SlotIDs formats the slots field for debugging/log output.
func (d IndexData) SlotIDs() string {
	strs := make([]string, len(d.Slots))
	for i, s := range d.Slots {
		strs[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(strs, ",")
}
