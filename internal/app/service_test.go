package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/gridcast/internal/adapters/archive"
	service "github.com/okian/gridcast/internal/app"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/types"
	"github.com/okian/gridcast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newStarted(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithDataset(service.FixtureDataset()),
		service.WithLogger(logger.Discard()),
		service.WithWorkerCount(1),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
	})
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without any data source", t, func() {
		svc := service.New(service.WithLogger(logger.Discard()))

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldEqual, service.ErrNoDataset)
		})

		Convey("Then reads report it is not started", func() {
			_, err := svc.Projections(context.Background(), "", "", 0, 0)
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.GetStats(context.Background()).Started, ShouldBeFalse)
		})
	})

	Convey("Given a service with an archive but no data source", t, func() {
		ctx := context.Background()
		arc, err := archive.Open(ctx, filepath.Join(t.TempDir(), "runs.db"), archive.WithLogger(logger.Discard()))
		So(err, ShouldBeNil)
		svc := service.New(service.WithLogger(logger.Discard()), service.WithArchive(arc))

		Convey("When Start fails", func() {
			So(svc.Start(ctx), ShouldEqual, service.ErrNoDataset)

			Convey("Then the archive is released", func() {
				_, err := arc.Count(ctx)
				So(errors.Is(err, archive.ErrArchiveClosed), ShouldBeTrue)
			})
		})
	})

	Convey("Given a started service with warmup", t, func() {
		svc := newStarted(t)
		ctx := context.Background()

		Convey("Then the default snapshot already exists", func() {
			stats := svc.GetStats(ctx)
			So(stats.Started, ShouldBeTrue)
			So(stats.Season, ShouldEqual, 2025)
			So(stats.CurrentWeek, ShouldEqual, 4)
			So(stats.NextWeek, ShouldEqual, 5)
			So(stats.Snapshots, ShouldResemble, []types.SnapshotInfo{{Format: "PPR", Week: 5}})
			So(stats.Rows["current"], ShouldEqual, 6)
			So(stats.Archive, ShouldBeFalse)
		})

		Convey("Then starting twice is harmless", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})

		Convey("When stopped", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it reports stopped", func() {
				So(svc.GetStats(ctx).Started, ShouldBeFalse)
				_, err := svc.RequestRecompute(ctx, "", 0)
				So(err, ShouldEqual, service.ErrNotStarted)
			})
		})
	})
}

func TestService_Projections(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted(t)
		ctx := context.Background()

		Convey("When listing next week's projections", func() {
			list, err := svc.Projections(ctx, "", "", 0, 0)
			So(err, ShouldBeNil)

			Convey("Then every current player is projected, byes last", func() {
				So(list.Format, ShouldEqual, "PPR")
				So(list.Week, ShouldEqual, 5)
				So(list.Season, ShouldEqual, 2025)
				So(list.RunID, ShouldNotBeEmpty)
				So(list.Count, ShouldEqual, 6)
				for i, p := range list.Projections[:4] {
					So(p.Bye, ShouldBeFalse)
					So(p.Floor, ShouldBeLessThanOrEqualTo, p.ProjectedPoints)
					So(p.Ceiling, ShouldBeGreaterThanOrEqualTo, p.ProjectedPoints)
					if i > 0 {
						So(p.ProjectedPoints, ShouldBeLessThanOrEqualTo, list.Projections[i-1].ProjectedPoints)
					}
				}
				So(list.Projections[4].Bye, ShouldBeTrue)
				So(list.Projections[5].Bye, ShouldBeTrue)
				So(list.Projections[5].Tier, ShouldEqual, string(model.TierBye))
			})
		})

		Convey("When filtering by position with a limit", func() {
			list, err := svc.Projections(ctx, "ppr", "wr", 5, 2)
			So(err, ShouldBeNil)

			Convey("Then only the top two receivers come back", func() {
				So(list.Count, ShouldEqual, 2)
				for _, p := range list.Projections {
					So(p.Position, ShouldEqual, "WR")
					So(p.Accuracy, ShouldNotBeNil)
				}
				So(list.Projections[0].SlateRank, ShouldEqual, 1)
				So(list.Projections[1].SlateRank, ShouldEqual, 2)
			})
		})

		Convey("When a different format is requested", func() {
			list, err := svc.Projections(ctx, "half", "", 0, 0)

			Convey("Then it is computed on demand from the PPR fallback", func() {
				So(err, ShouldBeNil)
				So(list.Format, ShouldEqual, "HALF_PPR")
				So(list.Count, ShouldEqual, 6)
				So(svc.GetStats(ctx).Snapshots, ShouldHaveLength, 2)
			})
		})

		Convey("Then bad input is reported", func() {
			_, err := svc.Projections(ctx, "superflex", "", 0, 0)
			So(errors.Is(err, model.ErrUnknownFormat), ShouldBeTrue)
			_, err = svc.Projections(ctx, "", "K", 0, 0)
			So(errors.Is(err, model.ErrUnknownPosition), ShouldBeTrue)
			_, err = svc.Projections(ctx, "", "", 19, 0)
			So(errors.Is(err, model.ErrInvalidWeek), ShouldBeTrue)
		})

		Convey("Then a week without expert ranks has no data", func() {
			_, err := svc.Projections(ctx, "", "", 9, 0)
			So(errors.Is(err, types.ErrNoData), ShouldBeTrue)
		})
	})
}

func TestService_Player(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted(t)
		ctx := context.Background()

		Convey("Names are matched after normalization", func() {
			p, err := svc.Player(ctx, "", 0, "ALPHA receiver Jr.")
			So(err, ShouldBeNil)
			So(p.Name, ShouldEqual, "Alpha Receiver")
			So(p.PositionalRank, ShouldEqual, 1)
			So(p.Tier, ShouldEqual, string(model.TierElite))
		})

		Convey("Bye players are still found", func() {
			p, err := svc.Player(ctx, "", 0, "Delta Receiver")
			So(err, ShouldBeNil)
			So(p.Bye, ShouldBeTrue)
			So(p.PositionalRank, ShouldEqual, model.NoRank)
			So(p.SlateRank, ShouldEqual, 0)
		})

		Convey("Unknown players are not found", func() {
			_, err := svc.Player(ctx, "", 0, "Nobody Special")
			So(errors.Is(err, types.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Accuracy(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted(t)
		ctx := context.Background()

		Convey("When reading receiver accuracy", func() {
			report, err := svc.Accuracy(ctx, "", "WR", 0, true)
			So(err, ShouldBeNil)

			Convey("Then all four receivers qualify with perfect correlation", func() {
				So(report.Positions, ShouldHaveLength, 1)
				So(report.Positions[0].Players, ShouldEqual, 4)
				So(report.Positions[0].MeanCorrelation, ShouldEqual, 1)
				So(report.Positions[0].ReliabilityWeight, ShouldEqual, 0.9)
				So(report.Players, ShouldHaveLength, 4)
				for _, r := range report.Players {
					So(r.Correlation, ShouldEqual, 1)
					So(r.MeanAbsoluteError, ShouldEqual, 0)
					So(r.Weeks, ShouldHaveLength, 4)
				}
			})
		})

		Convey("When reading every position", func() {
			report, err := svc.Accuracy(ctx, "", "", 0, false)
			So(err, ShouldBeNil)

			Convey("Then positions without qualifiers get the minimum weight", func() {
				So(report.Positions, ShouldHaveLength, 4)
				So(report.Positions[3].Position, ShouldEqual, "TE")
				So(report.Positions[3].Players, ShouldEqual, 0)
				So(report.Positions[3].ReliabilityWeight, ShouldEqual, 0.3)
				So(report.Players, ShouldHaveLength, 5)
				So(report.Players[0].Weeks, ShouldBeNil)
			})
		})
	})
}

func TestService_Baselines(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted(t, service.WithWarmup(false))
		ctx := context.Background()

		Convey("Baselines come from the latest past season", func() {
			report, err := svc.Baselines(ctx, "")
			So(err, ShouldBeNil)
			So(report.Year, ShouldEqual, 2024)
			So(report.Positions["WR"], ShouldResemble, []float64{20, 16, 12, 8})
			So(report.Positions["QB"], ShouldResemble, []float64{24, 20})
			So(report.Positions["RB"], ShouldBeEmpty)
		})

		Convey("Formats without history fall back to PPR", func() {
			report, err := svc.Baselines(ctx, "standard")
			So(err, ShouldBeNil)
			So(report.Format, ShouldEqual, "STANDARD")
			So(report.Year, ShouldEqual, 2024)
		})
	})
}

func TestService_RecomputeAndArchive(t *testing.T) {
	Convey("Given a service writing to an archive", t, func() {
		ctx := context.Background()
		arc, err := archive.Open(ctx, filepath.Join(t.TempDir(), "runs.db"), archive.WithLogger(logger.Discard()))
		So(err, ShouldBeNil)
		svc := newStarted(t, service.WithArchive(arc))

		Convey("The warmup run is archived", func() {
			runs, err := svc.Runs(ctx, 10)
			So(err, ShouldBeNil)
			So(runs, ShouldHaveLength, 1)
			So(runs[0].Week, ShouldEqual, 5)
			So(runs[0].ProjectionCount, ShouldEqual, 6)

			run, err := svc.Run(ctx, runs[0].ID)
			So(err, ShouldBeNil)
			So(run.Projections, ShouldHaveLength, 6)
			So(run.Positions, ShouldNotBeEmpty)

			_, err = svc.Run(ctx, "missing")
			So(errors.Is(err, types.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a recompute is requested", func() {
			res, err := svc.RequestRecompute(ctx, "half", 5)
			So(err, ShouldBeNil)
			So(res.Format, ShouldEqual, "HALF_PPR")
			So(res.Week, ShouldEqual, 5)
			So(res.Status, ShouldEqual, types.RecomputeAccepted)

			Convey("Then a worker publishes and archives it", func() {
				deadline := time.Now().Add(5 * time.Second)
				var n int
				for time.Now().Before(deadline) {
					if n = svc.GetStats(ctx).ArchiveRuns; n >= 2 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(n, ShouldEqual, 2)
				list, err := svc.Projections(ctx, "HALF_PPR", "", 5, 0)
				So(err, ShouldBeNil)
				So(list.RunID, ShouldEqual, res.ID)
			})
		})

		Convey("Requests for weeks without ranks are refused", func() {
			_, err := svc.RequestRecompute(ctx, "", 12)
			So(errors.Is(err, types.ErrNoData), ShouldBeTrue)
		})
	})

	Convey("Given a service without an archive", t, func() {
		svc := newStarted(t, service.WithWarmup(false))

		Convey("Runs are unavailable", func() {
			_, err := svc.Runs(context.Background(), 5)
			So(errors.Is(err, types.ErrUnavailable), ShouldBeTrue)
		})
	})
}
