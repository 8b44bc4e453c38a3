package fastview

import (
	"fmt"
	"html/template"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type stubView struct {
	updates chan []EleUpdate
}

func newStubView(done <-chan struct{}, input <-chan string) ViewComponent {
	updates := make(chan []EleUpdate)
	go func() {
		for datum := range input {
			updates <- []EleUpdate{{EleId: datum, Ops: []Op{{Key: "foo", Value: "bar"}}}}
		}
	}()
	return &stubView{updates: updates}
}

func (v *stubView) Parse(t *template.Template) (name string, err error) { return }
func (v *stubView) Updates() <-chan []EleUpdate                         { return v.updates }

func TestViewBuilder(t *testing.T) {
	Convey("Given a builder with a model and one view", t, func() {
		input := make(chan int)
		builder := NewViewBuilder[int, string]().
			WithModel(input, func(x int) string { return fmt.Sprintf("%d", x) }).
			WithView(func(done <-chan struct{}, vm <-chan string) ViewComponent { return newStubView(done, vm) })

		Convey("Build succeeds and the view receives converted updates", func() {
			views, err := builder.Build()
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 1)

			go func() { input <- 1337 }()
			update := <-views[0].Updates()
			So(len(update), ShouldEqual, 1)
			So(update[0].EleId, ShouldEqual, "1337")
		})
	})

	Convey("Build without a view returns ErrNoViews", t, func() {
		_, err := NewViewBuilder[int, string]().WithModel(make(chan int), func(x int) string { return "" }).Build()
		So(err, ShouldEqual, ErrNoViews)
	})

	Convey("Build without a model returns ErrNoModel", t, func() {
		_, err := NewViewBuilder[int, string]().
			WithView(func(done <-chan struct{}, vm <-chan string) ViewComponent { return newStubView(done, vm) }).
			Build()
		So(err, ShouldEqual, ErrNoModel)
	})
}
