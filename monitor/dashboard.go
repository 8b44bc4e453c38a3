package monitor

import (
	"context"
	"html/template"
	"time"

	"github.com/hopkinsidd/flepimop-inference/monitor/fastview"
	"github.com/hopkinsidd/flepimop-inference/monitor/view"

	channerics "github.com/niceyeti/channerics/channels"
)

// Dashboard is the main page: the container for the one SlotTable view, and
// the wiring of its ele-update channel. Adapted from
// server/root_view/root_view.go's RootView.
type Dashboard struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewDashboard builds the dashboard's views over a stream of slot snapshots.
func NewDashboard(
	ctx context.Context,
	snapshotUpdates <-chan []view.SlotSnapshot,
) (*Dashboard, error) {
	views, err := fastview.NewViewBuilder[[]view.SlotSnapshot, []view.SlotViewModel]().
		WithContext(ctx).
		WithModel(snapshotUpdates, view.Convert).
		WithView(func(
			done <-chan struct{},
			rows <-chan []view.SlotViewModel,
		) fastview.ViewComponent {
			return view.NewSlotTable(done, rows)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the aggregated ele-update channel across all views.
func (d *Dashboard) Updates() <-chan []fastview.EleUpdate {
	return d.updates
}

// Parse builds the main page template, with the websocket bootstrap script
// that applies incoming ele-updates to the DOM by id.
func (d *Dashboard) Parse(parent *template.Template) (name string, err error) {
	viewTemplates := []string{}
	for _, vc := range d.views {
		tname, parseErr := vc.Parse(parent)
		if parseErr != nil {
			return "", parseErr
		}
		viewTemplates = append(viewTemplates, tname)
	}

	var bodySpec string
	for _, tname := range viewTemplates {
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<title>flepimop-inference chain progress</title>
			<link rel="icon" href="data:,">
			<script>
				const ws = new WebSocket("ws://" + window.location.host + "/ws");
				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (!ele) { continue }
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}
			</script>
		</head>
		<body>
		<h1>flepimop-inference</h1>
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = parent.Parse(indexTemplate)
	return
}

// fanIn merges every view's ele-update channel into one, batching within a
// short window so redundant updates to the same element only send the
// latest value.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, v := range views {
		inputs[i] = v.Updates()
	}
	return batchify(done, channerics.Merge(done, inputs...), time.Millisecond*20)
}

func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		data := map[string]fastview.EleUpdate{}
		last := time.Now()
		for updates := range channerics.OrDone(done, source) {
			for _, update := range updates {
				data[update.EleId] = update
			}

			if time.Since(last) > rate && len(updates) > 0 {
				select {
				case output <- slicedVals(data):
					data = map[string]fastview.EleUpdate{}
					last = time.Now()
				case <-done:
					return
				}
			}
		}
	}()

	return output
}

func slicedVals[K comparable, V any](m map[K]V) (vals []V) {
	for _, v := range m {
		vals = append(vals, v)
	}
	return
}
