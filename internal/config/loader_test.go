package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/eventrank/internal/config"
	"github.com/okian/eventrank/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 100)
				convey.So(cfg.Weights["icp"], convey.ShouldEqual, 0.30)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("EVENTRANK_ADDR", ":8080")
			_ = os.Setenv("EVENTRANK_WORKER_COUNT", "16")
			_ = os.Setenv("EVENTRANK_LOG_FORMAT", "json")
			_ = os.Setenv("EVENTRANK_MIN_SCORE_THRESHOLD", "55")
			_ = os.Setenv("EVENTRANK_ICP__ROLES", "CFO, Head of Operations")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MinScoreThreshold, convey.ShouldEqual, 55)
				convey.So(cfg.ICP.Roles, convey.ShouldResemble, []string{"CFO", "Head of Operations"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
worker_count: 4
max_ranking_limit: 25
min_score_threshold: 50
high_score_threshold: 75
weights:
  icp: 0.25
  competitors: 0.25
  audience: 0.20
  speaking: 0.10
  commercials: 0.10
  timing: 0.10
icp:
  roles: ["Asset Manager", "CFO"]
  sectors: ["Utilities"]
  topics: ["IoT", "Predictive Maintenance"]
competitors:
  - name: Acme
    keywords: ["acme corp"]
  - name: Globex
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EVENTRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 25)
				convey.So(cfg.Thresholds().Min, convey.ShouldEqual, 50)
				convey.So(cfg.Thresholds().High, convey.ShouldEqual, 75)
				convey.So(cfg.ICP.Sectors, convey.ShouldResemble, []string{"Utilities"})
				convey.So(cfg.Competitors, convey.ShouldHaveLength, 2)
				convey.So(cfg.Competitors[0].Name, convey.ShouldEqual, "Acme")
				convey.So(cfg.Competitors[0].Keywords, convey.ShouldResemble, []string{"acme corp"})
			})

			convey.Convey("Then the file weights should build", func() {
				w, err := cfg.WeightConfig()
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Map()["timing"], convey.ShouldAlmostEqual, 0.10, 1e-9)
			})
		})

		convey.Convey("When env overrides a nested file key", func() {
			tmpFile := createTempConfigFile("weights:\n  icp: 0.30\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EVENTRANK_CONFIG", tmpFile)
			_ = os.Setenv("EVENTRANK_WEIGHTS__ICP", "0.40")
			_ = os.Setenv("EVENTRANK_WEIGHTS__TIMING", "0.0")
			_ = os.Setenv("EVENTRANK_WEIGHTS__COMMERCIALS", "0.05")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Weights["icp"], convey.ShouldEqual, 0.40)
				convey.So(cfg.Weights["timing"], convey.ShouldEqual, 0.0)
				convey.So(cfg.Weights["audience"], convey.ShouldEqual, 0.20)
				_, werr := cfg.WeightConfig()
				convey.So(werr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file sets weights to NaN or infinity", func() {
			tmpFile := createTempConfigFile("weights:\n  icp: .nan\n  timing: .inf\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EVENTRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then building the weights fails instead of crashing", func() {
				convey.So(err, convey.ShouldBeNil)
				var werr error
				convey.So(func() { _, werr = cfg.WeightConfig() }, convey.ShouldNotPanic)
				convey.So(errors.Is(werr, scoring.ErrInvalidWeightConfig), convey.ShouldBeTrue)
				convey.So(werr.Error(), convey.ShouldContainSubstring, "icp is not a finite number")
				convey.So(werr.Error(), convey.ShouldContainSubstring, "timing is not a finite number")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("EVENTRANK_CONFIG", "/nonexistent/eventrank.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail to load", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the YAML file is malformed", func() {
			tmpFile := createTempConfigFile("addr: [unterminated\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EVENTRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail to load", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file containing empty values", func() {
			yamlContent := `
addr: ""
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("EVENTRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return validation error for empty addr", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When thresholds are inverted in the environment", func() {
			_ = os.Setenv("EVENTRANK_MIN_SCORE_THRESHOLD", "90")
			_ = os.Setenv("EVENTRANK_HIGH_SCORE_THRESHOLD", "10")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be invalid", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"EVENTRANK_CONFIG",
		"EVENTRANK_ADDR",
		"EVENTRANK_WORKER_COUNT",
		"EVENTRANK_LOG_FORMAT",
		"EVENTRANK_MIN_SCORE_THRESHOLD",
		"EVENTRANK_HIGH_SCORE_THRESHOLD",
		"EVENTRANK_ICP__ROLES",
		"EVENTRANK_WEIGHTS__ICP",
		"EVENTRANK_WEIGHTS__TIMING",
		"EVENTRANK_WEIGHTS__COMMERCIALS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "eventrank-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
