// Package loader reads FantasyPros exports from a data directory: past season
// points tables, the current season points table and weekly expert
// consensus rankings.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/okian/gridcast/pkg/metrics"
)

var (
	historicalPattern = regexp.MustCompile(`(?i)^(\d{4})_FantasyPros_Fantasy_Football_Points(_PPR|_HALF)?\.csv$`)
	currentPattern    = regexp.MustCompile(`(?i)^FantasyPros_Fantasy_Football_Points(_PPR|_HALF)?\.csv$`)
	weekSuffixPattern = regexp.MustCompile(`(?i)[\s_-](\d+)\.csv$`)
	weekWordPattern   = regexp.MustCompile(`(?i)week[\s_]*(\d+)`)
	yearPattern       = regexp.MustCompile(`(19|20)\d{2}`)
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithSeason sets the current season year. Without it the season is the year
// after the latest historical file.
func WithSeason(year int) Option {
	return func(l *Loader) {
		if year > 0 {
			l.season = year
		}
	}
}

// WithDefaultRankStdDev sets the standard deviation used when a ranking row
// has none.
func WithDefaultRankStdDev(std float64) Option {
	return func(l *Loader) {
		if std > 0 {
			l.defaultStd = std
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.log = lg
		}
	}
}

// Loader reads a data directory into a Dataset.
type Loader struct {
	dir        string
	season     int
	defaultStd float64
	log        logger.Logger
}

// New creates a Loader for dir.
func New(dir string, opts ...Option) *Loader {
	l := &Loader{dir: dir, defaultStd: DefaultRankStdDev, log: logger.Discard()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the data directory.
func (l *Loader) Dir() string { return l.dir }

// formatFromSuffix maps a file name suffix to its scoring format.
func formatFromSuffix(suffix string) model.ScoringFormat {
	switch strings.ToUpper(suffix) {
	case "_PPR":
		return model.PPR
	case "_HALF":
		return model.HalfPPR
	default:
		return model.Standard
	}
}

// WeekFromFileName extracts a week number in 1..18 from names like
// "FantasyPros_2025_Week_7_WR_Rankings.csv" or "ecr 2025 - 7.csv".
func WeekFromFileName(name string) (int, bool) {
	for _, re := range []*regexp.Regexp{weekSuffixPattern, weekWordPattern} {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		w, err := strconv.Atoi(m[1])
		if err == nil && w >= model.FirstWeek && w <= model.LastWeek {
			return w, true
		}
	}
	return 0, false
}

type discovered struct {
	historical map[model.ScoringFormat]map[int]string
	current    map[model.ScoringFormat]string
	rest       []string
}

func (l *Loader) discover() (discovered, error) {
	d := discovered{
		historical: make(map[model.ScoringFormat]map[int]string),
		current:    make(map[model.ScoringFormat]string),
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrReadFile, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if m := historicalPattern.FindStringSubmatch(name); m != nil {
			year, _ := strconv.Atoi(m[1])
			f := formatFromSuffix(m[2])
			if d.historical[f] == nil {
				d.historical[f] = make(map[int]string)
			}
			d.historical[f][year] = name
			continue
		}
		if m := currentPattern.FindStringSubmatch(name); m != nil {
			d.current[formatFromSuffix(m[1])] = name
			continue
		}
		d.rest = append(d.rest, name)
	}
	return d, nil
}

// Load reads the whole directory. Missing tables are logged and left empty;
// malformed files fail the load. ErrNoData is returned when neither a current
// season table nor any historical table exists.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	found, err := l.discover()
	if err != nil {
		return nil, err
	}
	if len(found.current) == 0 && len(found.historical) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoData, l.dir)
	}

	season := l.season
	if season == 0 {
		for _, years := range found.historical {
			for y := range years {
				if y+1 > season {
					season = y + 1
				}
			}
		}
	}
	ds := NewDataset(season)

	for f, years := range found.historical {
		for year, name := range years {
			if year >= season {
				continue
			}
			recs, err := l.readScores(name)
			if err != nil {
				return nil, err
			}
			if ds.Historical[f] == nil {
				ds.Historical[f] = make(map[int][]model.PlayerWeekRecord)
			}
			ds.Historical[f][year] = recs
			l.log.Debug(ctx, "loaded historical season", logger.String("format", string(f)), logger.Int("year", year), logger.Int("players", len(recs)))
		}
	}

	for f, name := range found.current {
		recs, err := l.readScores(name)
		if err != nil {
			return nil, err
		}
		ds.Current[f] = recs
		if w := model.CurrentWeek(recs); w > ds.CurrentWeek {
			ds.CurrentWeek = w
		}
	}
	if len(found.current) == 0 {
		l.log.Warn(ctx, "current season table not found", logger.String("dir", l.dir))
	}

	if err := l.loadWeekly(ctx, ds, found.rest); err != nil {
		return nil, err
	}

	counts := ds.Counts()
	metrics.RecordLoad(time.Since(start), counts)
	l.log.Info(ctx, "dataset loaded",
		logger.Int("season", ds.Year),
		logger.Int("current_week", ds.CurrentWeek),
		logger.Int("historical_rows", counts["historical"]),
		logger.Int("current_rows", counts["current"]),
		logger.Int("projection_weeks", len(ds.Projections)),
		logger.Duration("took", time.Since(start)),
	)
	return ds, nil
}

// loadWeekly reads ranking files mentioning the current season and no other
// year. The first file (by name) for a week wins.
func (l *Loader) loadWeekly(ctx context.Context, ds *Dataset, names []string) error {
	seasonTag := strconv.Itoa(ds.Year)
	for _, name := range names {
		if ds.Year == 0 || !strings.Contains(name, seasonTag) {
			continue
		}
		otherYear := false
		for _, y := range yearPattern.FindAllString(name, -1) {
			if y != seasonTag {
				otherYear = true
				break
			}
		}
		if otherYear {
			continue
		}
		week, ok := WeekFromFileName(name)
		if !ok {
			l.log.Debug(ctx, "skipping file without a week number", logger.String("file", name))
			continue
		}
		if _, dup := ds.Projections[week]; dup {
			l.log.Warn(ctx, "duplicate ranking file for week", logger.Int("week", week), logger.String("file", name))
			continue
		}
		entries, err := l.readRankings(name)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			continue
		}
		ds.Projections[week] = entries
	}
	return nil
}

func (l *Loader) readScores(name string) ([]model.PlayerWeekRecord, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrReadFile, name, err)
	}
	defer f.Close()
	recs, err := ParseScores(f)
	if err != nil {
		metrics.RecordErrorByComponent("loader", "parse")
		return nil, fmt.Errorf("%w %s: %w", ErrReadFile, name, err)
	}
	return recs, nil
}

func (l *Loader) readRankings(name string) ([]model.WeeklyProjectionEntry, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrReadFile, name, err)
	}
	defer f.Close()
	entries, err := ParseRankings(f, l.defaultStd)
	if err != nil {
		metrics.RecordErrorByComponent("loader", "parse")
		return nil, fmt.Errorf("%w %s: %w", ErrReadFile, name, err)
	}
	return entries, nil
}
