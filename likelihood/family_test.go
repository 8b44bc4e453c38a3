package likelihood

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/config"
)

func TestLogDensityPoisson(t *testing.T) {
	Convey("Given a poisson target with lambda 10", t, func() {
		cfg := config.LikelihoodConfig{Family: "poisson"}

		Convey("Density is maximal near the mean", func() {
			atMean, err := LogDensity(10, 10, cfg)
			So(err, ShouldBeNil)
			far, err := LogDensity(50, 10, cfg)
			So(err, ShouldBeNil)
			So(atMean, ShouldBeGreaterThan, far)
		})

		Convey("Negative observed counts are rejected", func() {
			d, err := LogDensity(-1, 10, cfg)
			So(err, ShouldBeNil)
			So(d, ShouldEqual, math.Inf(-1))
		})
	})
}

func TestLogDensityPoissonZeroHandling(t *testing.T) {
	Convey("Given a poisson target with add_one set and an empty-data bin", t, func() {
		cfg := config.LikelihoodConfig{Family: "poisson", AddOne: true}

		Convey("Both observed and simulated zero contributes exactly 0", func() {
			d, err := LogDensity(0, 0, cfg)
			So(err, ShouldBeNil)
			So(d, ShouldEqual, 0)
		})
	})

	Convey("Given a poisson target without add_one and an empty-data bin", t, func() {
		cfg := config.LikelihoodConfig{Family: "poisson"}

		Convey("The zero bin is still finite, never NaN", func() {
			d, err := LogDensity(0, 0, cfg)
			So(err, ShouldBeNil)
			So(math.IsNaN(d), ShouldBeFalse)
			So(math.IsInf(d, 0), ShouldBeFalse)
		})
	})
}

func TestLogDensityNegativeBinomialCollapsesToPoisson(t *testing.T) {
	Convey("Given dispersion 0", t, func() {
		cfg := config.LikelihoodConfig{Family: "negative_binomial", Dispersion: 0}
		poisson := config.LikelihoodConfig{Family: "poisson"}

		Convey("NB density matches Poisson density", func() {
			a, _ := LogDensity(7, 10, cfg)
			b, _ := LogDensity(7, 10, poisson)
			So(a, ShouldEqual, b)
		})
	})
}

func TestLogDensityHeteroskedasticFloor(t *testing.T) {
	Convey("Given a heteroskedastic target with no configured floor", t, func() {
		cfg := config.LikelihoodConfig{Family: "normal_heteroskedastic", CoeffVar: 0.1}

		Convey("A near-zero simulated mean still produces a finite density", func() {
			d, err := LogDensity(1, 0, cfg)
			So(err, ShouldBeNil)
			So(math.IsInf(d, 0), ShouldBeFalse)
		})
	})
}

func TestLogDensityUnknownFamily(t *testing.T) {
	Convey("Given an unregistered family name", t, func() {
		cfg := config.LikelihoodConfig{Family: "made_up"}

		Convey("LogDensity returns an error", func() {
			_, err := LogDensity(1, 1, cfg)
			So(err, ShouldNotBeNil)
		})
	})
}
