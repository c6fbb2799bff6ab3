package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/tgruber/ncusers/internal/domain"
	"github.com/tgruber/ncusers/internal/ports"
)

// BatchRequest describes one batch-creation run: the target group and the
// roster records, in the order they should be attempted.
type BatchRequest struct {
	Group   string
	Records []domain.AccountRecord
}

// BatchService drives the provisioner once per record, sequentially and in
// input order. It borrows the provisioner's session for the duration of a
// run and releases it on every exit path. Per-record failures are reported
// and recovered; only pre-flight failures abort the run.
type BatchService struct {
	prov    ports.Provisioner
	sink    ports.ProgressSink
	confirm ports.Confirmer
	clock   ports.Clock
}

func NewBatchService(prov ports.Provisioner, sink ports.ProgressSink, confirm ports.Confirmer, clock ports.Clock) *BatchService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &BatchService{
		prov:    prov,
		sink:    sink,
		confirm: confirm,
		clock:   clock,
	}
}

// Run validates the request, checks the target group, asks for confirmation
// and then attempts every record exactly once. The returned outcome is also
// reported through the progress sink as it accumulates.
func (s *BatchService) Run(ctx context.Context, req BatchRequest) (domain.BatchOutcome, error) {
	defer s.prov.Logout()

	if err := validateRequest(req); err != nil {
		return domain.BatchOutcome{}, err
	}

	exists, err := s.prov.GroupExists(ctx, req.Group)
	if err != nil {
		return domain.BatchOutcome{}, fmt.Errorf("check group %q: %w", req.Group, err)
	}
	if !exists {
		return domain.BatchOutcome{}, fmt.Errorf("%w: %q", domain.ErrGroupNotFound, req.Group)
	}

	usernames := make([]string, 0, len(req.Records))
	for _, record := range req.Records {
		usernames = append(usernames, record.UserName())
	}

	outcome := domain.BatchOutcome{Attempted: len(req.Records)}

	if !s.confirm.Confirm(domain.BatchSummary{Group: req.Group, Count: len(req.Records), Usernames: usernames}) {
		outcome.Aborted = true
		s.sink.Complete(0, outcome.Attempted)
		return outcome, nil
	}

	start := s.clock.Now()
	for i, record := range req.Records {
		s.attempt(ctx, &outcome, record, usernames[i], req.Group)
	}
	outcome.Elapsed = s.clock.Now().Sub(start)

	s.sink.Complete(outcome.Created, outcome.Attempted)

	return outcome, nil
}

func (s *BatchService) attempt(ctx context.Context, outcome *domain.BatchOutcome, record domain.AccountRecord, username, group string) {
	exists, err := s.prov.UserExists(ctx, username)
	if err != nil {
		s.event(outcome, fmt.Sprintf("ERROR checking username %q: %v", username, err))
		return
	}
	if exists {
		s.event(outcome, fmt.Sprintf("ERROR the username %q is already taken", username))
		return
	}

	if err := s.prov.CreateUser(ctx, username, record.Password); err != nil {
		s.event(outcome, createFailureMessage(username, err))
		return
	}

	outcome.Created++
	s.event(outcome, fmt.Sprintf("user %q account creation success", username))

	// Group assignment is best-effort: a created-but-ungrouped account stays
	// in the created count, but the failure gets its own outcome category.
	if err := s.prov.AddUserToGroup(ctx, username, group); err != nil {
		outcome.GroupFailures++
		s.event(outcome, fmt.Sprintf("WARNING user %q created but not added to group %q: %v", username, group, err))
	}
}

func (s *BatchService) event(outcome *domain.BatchOutcome, message string) {
	outcome.Events = append(outcome.Events, message)
	s.sink.Event(message)
}

func createFailureMessage(username string, err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if reason := domain.CreateFailureReason(apiErr.Code); reason != "" {
			return fmt.Sprintf("ERROR username %q raised: %v | %s", username, err, reason)
		}
	}
	return fmt.Sprintf("ERROR username %q raised: %v", username, err)
}

func validateRequest(req BatchRequest) error {
	if req.Group == "" {
		return domain.ErrGroupRequired
	}
	if len(req.Records) == 0 {
		return domain.ErrNoRecords
	}

	for i, record := range req.Records {
		if err := record.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}

	return nil
}
