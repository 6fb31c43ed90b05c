package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RMCount is one entry of the RM ranking
type RMCount struct {
	RMName  *string `json:"rm_name"`
	RMCount int64   `json:"rm_count"`
}

// MRCount is one entry of an MR ranking
type MRCount struct {
	MRName  *string `json:"mr_name"`
	MRCount int64   `json:"mr_count"`
}

// Summary aggregates the certificate table
type Summary struct {
	TotalCount int64
	TopRMs     []RMCount
	TopMRs     []MRCount
	TodayMRs   []MRCount
}

// QueryError reports which query failed. Err is the driver error unchanged.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// QueryObserver receives the outcome of every query
type QueryObserver interface {
	ObserveQuery(query string, duration time.Duration, err error)
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for date windows
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the location that defines calendar days
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

// WithObserver reports query outcomes to o
func WithObserver(o QueryObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// Service runs the read-only queries over the certificate table
type Service struct {
	db       *sql.DB
	logger   *zap.Logger
	now      func() time.Time
	loc      *time.Location
	observer QueryObserver
}

// NewService creates a records service on top of the pool db
func NewService(db *sql.DB, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:     db,
		logger: logger,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// All returns every record in the table
func (s *Service) All(ctx context.Context) ([]Row, error) {
	start := time.Now()

	rs, err := s.db.QueryContext(ctx, selectAllQuery)
	if err != nil {
		return nil, s.fail(QuerySelectAll, start, err)
	}
	defer rs.Close()

	result, err := scanRows(rs)
	if err != nil {
		return nil, s.fail(QuerySelectAll, start, err)
	}

	s.done(QuerySelectAll, start, zap.Int("rows", len(result)))
	return result, nil
}

// Summary runs the four summary queries concurrently. The first failure
// cancels the others and is returned.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	// Windows are computed in s.loc and bound in UTC; the MySQL driver
	// converts bound times to its session location itself.
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	weekAgo := now.AddDate(0, 0, -7).UTC()
	tomorrow := today.AddDate(0, 0, 1).UTC()
	today = today.UTC()

	var sum Summary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		sum.TotalCount, err = s.count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sum.TopRMs, err = s.topRMs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sum.TopMRs, err = s.topMRs(gctx, QueryTopMRs, topMRsSinceQuery, weekAgo)
		return err
	})
	g.Go(func() error {
		var err error
		sum.TodayMRs, err = s.topMRs(gctx, QueryTodayMRs, topMRsBetweenQuery, today, tomorrow)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &sum, nil
}

func (s *Service) count(ctx context.Context) (int64, error) {
	start := time.Now()

	var total int64
	if err := s.db.QueryRowContext(ctx, totalCountQuery).Scan(&total); err != nil {
		return 0, s.fail(QueryTotalCount, start, err)
	}

	s.done(QueryTotalCount, start)
	return total, nil
}

func (s *Service) topRMs(ctx context.Context) ([]RMCount, error) {
	start := time.Now()

	rs, err := s.db.QueryContext(ctx, topRMsQuery)
	if err != nil {
		return nil, s.fail(QueryTopRMs, start, err)
	}
	defer rs.Close()

	result := make([]RMCount, 0)
	for rs.Next() {
		var name sql.NullString
		var entry RMCount
		if err := rs.Scan(&name, &entry.RMCount); err != nil {
			return nil, s.fail(QueryTopRMs, start, err)
		}
		entry.RMName = nullable(name)
		result = append(result, entry)
	}
	if err := rs.Err(); err != nil {
		return nil, s.fail(QueryTopRMs, start, err)
	}

	s.done(QueryTopRMs, start, zap.Int("rows", len(result)))
	return result, nil
}

func (s *Service) topMRs(ctx context.Context, name, query string, args ...any) ([]MRCount, error) {
	start := time.Now()

	rs, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail(name, start, err)
	}
	defer rs.Close()

	result := make([]MRCount, 0)
	for rs.Next() {
		var mr sql.NullString
		var entry MRCount
		if err := rs.Scan(&mr, &entry.MRCount); err != nil {
			return nil, s.fail(name, start, err)
		}
		entry.MRName = nullable(mr)
		result = append(result, entry)
	}
	if err := rs.Err(); err != nil {
		return nil, s.fail(name, start, err)
	}

	s.done(name, start, zap.Int("rows", len(result)))
	return result, nil
}

// fail records a failed query and wraps err with its name
func (s *Service) fail(query string, start time.Time, err error) error {
	d := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveQuery(query, d, err)
	}
	s.logger.Debug("query failed",
		zap.String("query", query),
		zap.Duration("duration", d),
		zap.Error(err))
	return &QueryError{Query: query, Err: err}
}

func (s *Service) done(query string, start time.Time, fields ...zap.Field) {
	d := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveQuery(query, d, nil)
	}
	s.logger.Debug("query completed",
		append([]zap.Field{zap.String("query", query), zap.Duration("duration", d)}, fields...)...)
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
