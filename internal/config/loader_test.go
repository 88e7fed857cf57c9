package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gridcast/internal/config"
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
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GRIDCAST_ADDR", ":8080")
			_ = os.Setenv("GRIDCAST_DATA_DIR", "/srv/fantasy")
			_ = os.Setenv("GRIDCAST_SEASON", "2025")
			_ = os.Setenv("GRIDCAST_QUEUE_SIZE", "128")
			_ = os.Setenv("GRIDCAST_WORKER_COUNT", "3")
			_ = os.Setenv("GRIDCAST_RECOMPUTE_RATE", "0.5")
			_ = os.Setenv("GRIDCAST_DEFAULT_FORMAT", "STANDARD")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/fantasy")
				convey.So(cfg.Season, convey.ShouldEqual, 2025)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 128)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.RecomputeRate, convey.ShouldEqual, 0.5)
				convey.So(cfg.DefaultFormat, convey.ShouldEqual, "STANDARD")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
data_dir: "./exports"
archive_path: "/var/lib/gridcast/runs.db"
log_format: json
min_accuracy_weeks: 4
rank_tolerance: 2.5
grade_anchors:
  - percentile: 0
    grade: 0
  - percentile: 1
    grade: 100
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GRIDCAST_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataDir, convey.ShouldEqual, "./exports")
				convey.So(cfg.ArchivePath, convey.ShouldEqual, "/var/lib/gridcast/runs.db")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MinAccuracyWeeks, convey.ShouldEqual, 4)
				convey.So(cfg.RankTolerance, convey.ShouldEqual, 2.5)
				convey.So(cfg.GradeAnchors, convey.ShouldHaveLength, 2)
				convey.So(cfg.GradeAnchors[1].Percentile, convey.ShouldEqual, 1)
				convey.So(cfg.GradeAnchors[1].Grade, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GRIDCAST_CONFIG", tmpFile)
			_ = os.Setenv("GRIDCAST_ADDR", ":8080")
			_ = os.Setenv("GRIDCAST_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GRIDCAST_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("GRIDCAST_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("GRIDCAST_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the YAML anchors are not monotone", func() {
			yamlContent := `
grade_anchors:
  - percentile: 0.8
    grade: 90
  - percentile: 0.2
    grade: 20
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GRIDCAST_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects them", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("GRIDCAST_QUEUE_SIZE", "invalid")
			_ = os.Setenv("GRIDCAST_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderDotEnv(t *testing.T) {
	convey.Convey("Given a .env file in the working directory", t, func() {
		clearConfigEnvVars()
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GRIDCAST_ADDR=:7070\nGRIDCAST_LOG_LEVEL=debug\n"), 0o600)
		convey.So(err, convey.ShouldBeNil)

		wd, err := os.Getwd()
		convey.So(err, convey.ShouldBeNil)
		convey.So(os.Chdir(dir), convey.ShouldBeNil)
		defer func() {
			_ = os.Chdir(wd)
			clearConfigEnvVars()
		}()

		convey.Convey("When nothing else sets those keys", func() {
			cfg, err := config.Load(context.Background())

			convey.Convey("Then the .env values are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When the process env already sets a key", func() {
			_ = os.Setenv("GRIDCAST_ADDR", ":6060")
			cfg, err := config.Load(context.Background())

			convey.Convey("Then the process env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"GRIDCAST_CONFIG",
		"GRIDCAST_ADDR",
		"GRIDCAST_DATA_DIR",
		"GRIDCAST_SEASON",
		"GRIDCAST_QUEUE_SIZE",
		"GRIDCAST_WORKER_COUNT",
		"GRIDCAST_RECOMPUTE_RATE",
		"GRIDCAST_DEFAULT_FORMAT",
		"GRIDCAST_LOG_LEVEL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "gridcast-config-*.yaml")
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
