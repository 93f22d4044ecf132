package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

type viewReports interface {
	FormOptions(ctx context.Context, principal models.Principal) (*dto.FormOptionsResponse, error)
	History(ctx context.Context, principal models.Principal, query dto.HistoryQuery) dto.HistoryResponse
}

type viewAggregates interface {
	Overview(ctx context.Context, branch string) models.AggregateSnapshot
}

// ViewService composes the role-specific view once the dispatcher has resolved.
type ViewService struct {
	identity *IdentityService
	reports  viewReports
	overview viewAggregates
	logger   *zap.Logger
}

// NewViewService constructs the view composer.
func NewViewService(identity *IdentityService, reports viewReports, overview viewAggregates, logger *zap.Logger) *ViewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewService{identity: identity, reports: reports, overview: overview, logger: logger}
}

// Dispatch resolves the session through a dispatcher tied to ctx and renders the view for the
// resulting state.
func (s *ViewService) Dispatch(ctx context.Context, session *models.Session, branch string) (*dto.ViewResponse, error) {
	d := NewDispatcher(func(ctx context.Context) models.Principal {
		return s.identity.Resolve(ctx, session)
	})
	defer d.Close()
	d.Start(ctx)

	state, principal, err := d.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.Render(ctx, state, principal, branch), nil
}

// Render builds the payload of a terminal view state.
func (s *ViewService) Render(ctx context.Context, state ViewState, principal models.Principal, branch string) *dto.ViewResponse {
	resp := &dto.ViewResponse{State: string(state), Principal: principal}
	switch state {
	case ViewTeacher, ViewCounselor:
		options, err := s.reports.FormOptions(ctx, principal)
		if err != nil {
			s.logger.Warn("form options unavailable", zap.String("email", principal.Email), zap.Error(err))
		} else {
			resp.FormOptions = options
		}
		history := s.reports.History(ctx, principal, dto.HistoryQuery{Scope: "self"})
		resp.History = &history
	case ViewAdmin, ViewSuperAdmin:
		overview := s.overview.Overview(ctx, branch)
		resp.Overview = &overview
		history := s.reports.History(ctx, principal, dto.HistoryQuery{})
		resp.History = &history
	}
	return resp
}
