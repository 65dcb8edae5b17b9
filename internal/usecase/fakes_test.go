package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/pkg/logger"
)

// nopLogger discards everything; tests assert on behavior, not logs
type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Fatal(msg string, keysAndValues ...interface{}) {}
func (n nopLogger) With(keysAndValues ...interface{}) logger.Logger {
	return n
}

type fakeCinemaRepo struct {
	cinemas map[uint]*entity.Cinema
}

func newFakeCinemaRepo(cinemas ...*entity.Cinema) *fakeCinemaRepo {
	r := &fakeCinemaRepo{cinemas: make(map[uint]*entity.Cinema)}
	for _, c := range cinemas {
		r.cinemas[c.ID] = c
	}
	return r
}

func (r *fakeCinemaRepo) GetByID(ctx context.Context, id uint) (*entity.Cinema, error) {
	if c, ok := r.cinemas[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("cinema %d not found", id)
}

func (r *fakeCinemaRepo) GetBySlug(ctx context.Context, slug string) (*entity.Cinema, error) {
	for _, c := range r.cinemas {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, fmt.Errorf("cinema %q not found", slug)
}

func (r *fakeCinemaRepo) FindActive(ctx context.Context) ([]*entity.Cinema, error) {
	var out []*entity.Cinema
	for _, c := range r.cinemas {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeFilmRepo struct {
	nextID uint
	films  map[string]*entity.Film
}

func newFakeFilmRepo() *fakeFilmRepo {
	return &fakeFilmRepo{films: make(map[string]*entity.Film)}
}

func (r *fakeFilmRepo) ResolveOrCreate(ctx context.Context, title string, year int) (*entity.Film, error) {
	key := fmt.Sprintf("%s|%d", title, year)
	if f, ok := r.films[key]; ok {
		return f, nil
	}
	r.nextID++
	f := &entity.Film{ID: r.nextID, Title: title, Year: year}
	r.films[key] = f
	return f, nil
}

type fakeScreeningRepo struct {
	rows     map[string]*entity.Screening
	failNext int // next N upserts error out
	upserts  int
}

func newFakeScreeningRepo() *fakeScreeningRepo {
	return &fakeScreeningRepo{rows: make(map[string]*entity.Screening)}
}

func screeningKey(s *entity.Screening) string {
	return fmt.Sprintf("%d|%d|%d", s.FilmID, s.CinemaID, s.StartsAt.UTC().Unix())
}

func (r *fakeScreeningRepo) Upsert(ctx context.Context, s *entity.Screening) error {
	r.upserts++
	if r.failNext > 0 {
		r.failNext--
		return errors.New("write refused")
	}
	copied := *s
	r.rows[screeningKey(s)] = &copied
	return nil
}

func (r *fakeScreeningRepo) FindByCinema(ctx context.Context, cinemaID uint) ([]*entity.Screening, error) {
	var out []*entity.Screening
	for _, s := range r.rows {
		if s.CinemaID == cinemaID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScreeningRepo) CountByCinema(ctx context.Context, cinemaID uint) (int64, error) {
	rows, _ := r.FindByCinema(ctx, cinemaID)
	return int64(len(rows)), nil
}

type fakeRunRepo struct {
	runs []*entity.ScraperRun
}

func (r *fakeRunRepo) Append(ctx context.Context, run *entity.ScraperRun) error {
	copied := *run
	r.runs = append(r.runs, &copied)
	return nil
}

func (r *fakeRunRepo) FindLatestByCinema(ctx context.Context, cinemaID uint) (*entity.ScraperRun, error) {
	var latest *entity.ScraperRun
	for _, run := range r.runs {
		if run.CinemaID != cinemaID {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, errors.New("no runs")
	}
	return latest, nil
}

func (r *fakeRunRepo) FindByCinemaAround(ctx context.Context, cinemaID uint, day time.Time) (*entity.ScraperRun, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	for _, run := range r.runs {
		if run.CinemaID != cinemaID {
			continue
		}
		if !run.StartedAt.Before(dayStart) && run.StartedAt.Before(dayEnd) {
			return run, nil
		}
	}
	return nil, nil
}

func (r *fakeRunRepo) FindByCinemaSince(ctx context.Context, cinemaID uint, since time.Time) ([]*entity.ScraperRun, error) {
	var out []*entity.ScraperRun
	for _, run := range r.runs {
		if run.CinemaID == cinemaID && run.StartedAt.After(since) {
			out = append(out, run)
		}
	}
	return out, nil
}

func (r *fakeRunRepo) UpdateResolution(ctx context.Context, runID string, resolution entity.Resolution) error {
	for _, run := range r.runs {
		if run.RunID == runID {
			run.Resolution = resolution
			return nil
		}
	}
	return errors.New("run not found")
}

type fakeBaselineRepo struct {
	baselines map[uint]*entity.CinemaBaseline
}

func newFakeBaselineRepo() *fakeBaselineRepo {
	return &fakeBaselineRepo{baselines: make(map[uint]*entity.CinemaBaseline)}
}

func (r *fakeBaselineRepo) GetByCinema(ctx context.Context, cinemaID uint) (*entity.CinemaBaseline, error) {
	if b, ok := r.baselines[cinemaID]; ok {
		return b, nil
	}
	return nil, errors.New("no baseline")
}

func (r *fakeBaselineRepo) Save(ctx context.Context, baseline *entity.CinemaBaseline) error {
	copied := *baseline
	r.baselines[baseline.CinemaID] = &copied
	return nil
}
