package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/stats"
)

type applicationLister interface {
	ListAllByUser(ctx context.Context, userID uint64) ([]*entity.Application, error)
}

type StatisticsServiceOption func(*StatisticsService)

type StatisticsService struct {
	apps applicationLister
	now  func() time.Time
}

func NewStatisticsService(apps applicationLister, opts ...StatisticsServiceOption) *StatisticsService {
	svc := &StatisticsService{
		apps: apps,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithClock pins the reference time used for week, month and trend windows.
func WithClock(now func() time.Time) StatisticsServiceOption {
	return func(s *StatisticsService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *StatisticsService) Statistics(ctx context.Context, userID uint64) (*stats.Report, error) {
	apps, err := s.apps.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stats.Compute(apps, s.now()), nil
}
