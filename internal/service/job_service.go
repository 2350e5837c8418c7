package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"locadora/internal/repository"
)

// JobService runs the scheduled maintenance tasks: canceling no-show
// reservations and reminding customers about overdue returns.
type JobService struct {
	repo    repository.JobStore
	rentals *RentalService
	sender  *SenderService
	clock   Clock

	// NoShowGrace is how long past the scheduled start a reserved rental may
	// wait for its check-in before the cleanup cancels it.
	NoShowGrace time.Duration
}

func NewJobService(repo repository.JobStore, rentals *RentalService, sender *SenderService, clock Clock, noShowGrace time.Duration) *JobService {
	return &JobService{
		repo:        repo,
		rentals:     rentals,
		sender:      sender,
		clock:       clock,
		NoShowGrace: noShowGrace,
	}
}

// CancelNoShows cancels reserved rentals whose start passed the grace period
// without a check-in. Cancellation goes through the regular lifecycle so the
// vehicle release and refund side effects stay consistent.
func (s *JobService) CancelNoShows(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.NoShowGrace)
	ids, err := s.repo.NoShowRentalIDs(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("no-show job: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	logrus.WithField("count", len(ids)).Info("canceling no-show reservations")
	for _, id := range ids {
		if _, err := s.rentals.Cancel(ctx, id); err != nil {
			logrus.WithError(err).WithField("rental_id", id).Warn("no-show cancel failed")
		}
	}
	return nil
}

// NotifyOverdueRentals reminds customers whose active rental passed its
// scheduled end. Each rental is reminded once.
func (s *JobService) NotifyOverdueRentals(ctx context.Context) error {
	overdue, err := s.repo.OverdueRentals(ctx, s.clock.Now())
	if err != nil {
		return fmt.Errorf("overdue job: %w", err)
	}
	if len(overdue) == 0 {
		return nil
	}

	notified := make([]int, 0, len(overdue))
	for _, o := range overdue {
		if s.sender != nil {
			s.sender.NotifyOverdue(o.Code, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.EndTime)
		}
		notified = append(notified, o.RentalID)
	}

	logrus.WithField("count", len(notified)).Info("overdue reminders sent")
	return s.repo.MarkOverdueNotified(ctx, notified)
}
