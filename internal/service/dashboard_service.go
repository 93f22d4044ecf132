package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
)

// Aggregate labels reported in AggregateSnapshot.Unavailable.
const (
	LabelTotalStudents    = "total_students"
	LabelCasesInProgress  = "cases_in_progress"
	LabelActiveTeachers   = "active_teachers"
	LabelRecentAttendance = "recent_attendance"
	LabelNetFinancial     = "net_financial"
	LabelCases            = "cases"
	LabelReports          = "reports"
	LabelAttendance       = "attendance"
)

type aggregateReader interface {
	CountStudents(ctx context.Context) (int, error)
	CountCasesByStatus(ctx context.Context, status string, branch *string) (int, error)
	CountDistinctAssignedTeachers(ctx context.Context) (int, error)
	CountAttendanceSince(ctx context.Context, since time.Time) (int, error)
	ListVouchersByBranch(ctx context.Context, branch string) ([]models.Voucher, error)
	CountCasesByAssignee(ctx context.Context, email string) (int, error)
	FindTeacherIDByEmail(ctx context.Context, email string) (string, error)
	CountAttendanceByTeacher(ctx context.Context, teacherID string) (int, error)
}

type reportCounter interface {
	CountByAuthor(ctx context.Context, email string) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	QueryConcurrency int
	AttendanceWindow time.Duration
	QueryTimeout     time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Aggregates aggregateReader
	Reports    reportCounter
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// DashboardService computes the admin aggregate snapshot from independent reads.
type DashboardService struct {
	aggregates aggregateReader
	reports    reportCounter
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
	cfg        DashboardServiceConfig
}

// NewDashboardService constructs the service.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.QueryConcurrency <= 0 {
		cfg.QueryConcurrency = 4
	}
	if cfg.AttendanceWindow <= 0 {
		cfg.AttendanceWindow = 30 * 24 * time.Hour
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	return &DashboardService{
		aggregates: params.Aggregates,
		reports:    params.Reports,
		metrics:    params.Metrics,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

type aggregateTask struct {
	label string
	run   func(ctx context.Context) error
}

// Overview runs every aggregate for branch concurrently and returns once all have finished.
// Failed aggregates keep their zero value and are listed in Unavailable. Branch "" or "All"
// means no branch filter and no financial figure.
func (s *DashboardService) Overview(ctx context.Context, branch string) models.AggregateSnapshot {
	branch = strings.TrimSpace(branch)
	snapshot := models.AggregateSnapshot{Branch: models.FilterAll}
	var branchFilter *string
	if branch != "" && branch != models.FilterAll {
		snapshot.Branch = branch
		branchFilter = &branch
	}
	since := s.now().Add(-s.cfg.AttendanceWindow)

	tasks := []aggregateTask{
		{LabelTotalStudents, func(ctx context.Context) (err error) {
			snapshot.TotalStudents, err = s.aggregates.CountStudents(ctx)
			return err
		}},
		{LabelCasesInProgress, func(ctx context.Context) (err error) {
			snapshot.CasesInProgress, err = s.aggregates.CountCasesByStatus(ctx, models.CaseStatusInProgress, branchFilter)
			return err
		}},
		{LabelActiveTeachers, func(ctx context.Context) (err error) {
			snapshot.ActiveTeachers, err = s.aggregates.CountDistinctAssignedTeachers(ctx)
			return err
		}},
		{LabelRecentAttendance, func(ctx context.Context) (err error) {
			snapshot.RecentAttendance, err = s.aggregates.CountAttendanceSince(ctx, since)
			return err
		}},
	}
	if branchFilter != nil {
		tasks = append(tasks, aggregateTask{LabelNetFinancial, func(ctx context.Context) error {
			vouchers, err := s.aggregates.ListVouchersByBranch(ctx, branch)
			if err != nil {
				return err
			}
			net := models.NetVoucherTotal(vouchers)
			snapshot.NetFinancial = &net
			return nil
		}})
	}

	snapshot.Unavailable = s.runAll(ctx, tasks)
	snapshot.GeneratedAt = s.now().UTC()
	return snapshot
}

// EmployeePerformance counts cases, authored reports and, when a teacher row matches the
// email, attendance rows for that teacher.
func (s *DashboardService) EmployeePerformance(ctx context.Context, email string) (*models.EmployeePerformance, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}

	perf := &models.EmployeePerformance{Email: email}
	tasks := []aggregateTask{
		{LabelCases, func(ctx context.Context) (err error) {
			perf.Cases, err = s.aggregates.CountCasesByAssignee(ctx, email)
			return err
		}},
		{LabelReports, func(ctx context.Context) (err error) {
			perf.Reports, err = s.reports.CountByAuthor(ctx, email)
			return err
		}},
		{LabelAttendance, func(ctx context.Context) error {
			teacherID, err := s.aggregates.FindTeacherIDByEmail(ctx, email)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return err
			}
			count, err := s.aggregates.CountAttendanceByTeacher(ctx, teacherID)
			if err != nil {
				return err
			}
			perf.TeacherID = teacherID
			perf.Attendance = &count
			return nil
		}},
	}

	perf.Unavailable = s.runAll(ctx, tasks)
	return perf, nil
}

// runAll executes tasks with bounded concurrency. Tasks never fail the group: each error is
// logged and its label collected. Every task writes a distinct field so the join is the only
// synchronisation the results need.
func (s *DashboardService) runAll(ctx context.Context, tasks []aggregateTask) []string {
	var (
		mu          sync.Mutex
		unavailable []string
	)
	var g errgroup.Group
	g.SetLimit(s.cfg.QueryConcurrency)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
			defer cancel()

			start := time.Now()
			err := task.run(taskCtx)
			s.metrics.ObserveDBQuery("aggregate_"+task.label, time.Since(start))
			if err != nil {
				s.logger.Warn("aggregate unavailable", zap.String("label", task.label), zap.Error(err))
				mu.Lock()
				unavailable = append(unavailable, task.label)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(unavailable)
	return unavailable
}
