package config_test

import (
	"errors"
	"testing"

	"github.com/sristy17/insider-Threat-Detection/internal/config"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConfigDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New()

		Convey("Then it should validate cleanly", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("And the weight table should cover every factor", func() {
			So(cfg.RiskWeights, ShouldHaveLength, 5)
			sum := 0.0
			for _, w := range cfg.RiskWeights {
				sum += w
			}
			So(sum, ShouldAlmostEqual, 1.0)
		})

		Convey("And the tier thresholds should be ordered inside the range", func() {
			So(cfg.RiskThresholds.Medium, ShouldBeLessThan, cfg.RiskThresholds.High)
			So(cfg.RiskThresholds.High, ShouldBeLessThan, cfg.RiskThresholds.Critical)
			So(cfg.ScoreMin, ShouldEqual, 0)
			So(cfg.ScoreMax, ShouldEqual, 100)
		})
	})
}

func TestConfigValidation(t *testing.T) {
	Convey("Given configs broken in various ways", t, func() {
		Convey("When a risk weight is negative", func() {
			cfg := config.New()
			cfg.RiskWeights[model.ModelAutoencoder] = -1
			err := cfg.Validate()

			Convey("Then validation fails with the config sentinel", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the normalization method is unknown", func() {
			cfg := config.New()
			cfg.Normalization = "quantile"
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the score range is inverted", func() {
			cfg := config.New()
			cfg.ScoreMin, cfg.ScoreMax = 100, 0
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When thresholds fall outside the score range", func() {
			cfg := config.New()
			cfg.ScoreMax = 70 // critical threshold of 75 no longer fits
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the batch size is zero", func() {
			cfg := config.New()
			cfg.BatchSize = 0
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the addr is empty", func() {
			cfg := config.New()
			cfg.Addr = ""
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
