package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgruber/ncusers/internal/domain"
)

type fakeProvisioner struct {
	users  map[string]bool
	groups map[string]bool

	existsErr   map[string]error
	createErr   map[string]error
	groupAddErr map[string]error

	calls     []string
	loggedOut bool
}

func newFakeProvisioner(groups ...string) *fakeProvisioner {
	known := make(map[string]bool, len(groups))
	for _, group := range groups {
		known[group] = true
	}
	return &fakeProvisioner{
		users:  map[string]bool{},
		groups: known,
	}
}

func (f *fakeProvisioner) UserExists(_ context.Context, name string) (bool, error) {
	f.calls = append(f.calls, "exists:"+name)
	if err := f.existsErr[name]; err != nil {
		return false, err
	}
	return f.users[name], nil
}

func (f *fakeProvisioner) CreateUser(_ context.Context, name, _ string) error {
	f.calls = append(f.calls, "create:"+name)
	if err := f.createErr[name]; err != nil {
		return err
	}
	f.users[name] = true
	return nil
}

func (f *fakeProvisioner) GroupExists(_ context.Context, name string) (bool, error) {
	f.calls = append(f.calls, "group:"+name)
	return f.groups[name], nil
}

func (f *fakeProvisioner) AddUserToGroup(_ context.Context, user, group string) error {
	f.calls = append(f.calls, "assign:"+user+":"+group)
	if err := f.groupAddErr[user]; err != nil {
		return err
	}
	return nil
}

func (f *fakeProvisioner) Logout() {
	f.loggedOut = true
}

type recordingSink struct {
	events    []string
	created   int
	attempted int
	completed bool
}

func (s *recordingSink) Event(message string) {
	s.events = append(s.events, message)
}

func (s *recordingSink) Complete(created, attempted int) {
	s.created = created
	s.attempted = attempted
	s.completed = true
}

type staticConfirmer struct {
	proceed bool
	summary domain.BatchSummary
	asked   bool
}

func (c *staticConfirmer) Confirm(summary domain.BatchSummary) bool {
	c.asked = true
	c.summary = summary
	return c.proceed
}

func rosterRecords() []domain.AccountRecord {
	return []domain.AccountRecord{
		{FirstName: "ana", LastName: "maric", Password: "pw1"},
		{FirstName: "jon", LastName: "doe", Password: "pw2"},
	}
}

func TestRunCreatesAllUsersAndAssignsGroup(t *testing.T) {
	t.Parallel()

	prov := newFakeProvisioner("students")
	sink := &recordingSink{}
	confirm := &staticConfirmer{proceed: true}
	service := NewBatchService(prov, sink, confirm, nil)

	outcome, err := service.Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Created)
	assert.Equal(t, 2, outcome.Attempted)
	assert.Zero(t, outcome.GroupFailures)
	assert.False(t, outcome.Aborted)

	assert.Equal(t, []string{
		"group:students",
		"exists:ana.maric",
		"create:ana.maric",
		"assign:ana.maric:students",
		"exists:jon.doe",
		"create:jon.doe",
		"assign:jon.doe:students",
	}, prov.calls)

	assert.True(t, prov.loggedOut)
	assert.True(t, sink.completed)
	assert.Equal(t, 2, sink.created)
	assert.Equal(t, 2, sink.attempted)

	require.True(t, confirm.asked)
	assert.Equal(t, 2, confirm.summary.Count)
	assert.Equal(t, []string{"ana.maric", "jon.doe"}, confirm.summary.Usernames)
}

func TestRunSkipsExistingUser(t *testing.T) {
	t.Parallel()

	prov := newFakeProvisioner("students")
	prov.users["ana.maric"] = true
	sink := &recordingSink{}
	service := NewBatchService(prov, sink, &staticConfirmer{proceed: true}, nil)

	outcome, err := service.Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Created)
	assert.Equal(t, 2, outcome.Attempted)
	assert.NotContains(t, prov.calls, "create:ana.maric")
	assert.Contains(t, prov.calls, "create:jon.doe")

	require.NotEmpty(t, sink.events)
	assert.Contains(t, sink.events[0], `"ana.maric" is already taken`)
	assert.Equal(t, 1, sink.created)
	assert.Equal(t, 2, sink.attempted)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	prov := newFakeProvisioner("students")

	first, err := NewBatchService(prov, &recordingSink{}, &staticConfirmer{proceed: true}, nil).
		Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	sink := &recordingSink{}
	second, err := NewBatchService(prov, sink, &staticConfirmer{proceed: true}, nil).
		Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Attempted)
	for _, event := range sink.events {
		assert.Contains(t, event, "already taken")
	}
	assert.Len(t, sink.events, 2)
}

func TestRunAbortedAtConfirmationLeavesRemoteUntouched(t *testing.T) {
	t.Parallel()

	prov := newFakeProvisioner("students")
	sink := &recordingSink{}
	service := NewBatchService(prov, sink, &staticConfirmer{proceed: false}, nil)

	outcome, err := service.Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
	require.NoError(t, err)

	assert.True(t, outcome.Aborted)
	assert.Zero(t, outcome.Created)
	assert.Equal(t, []string{"group:students"}, prov.calls)
	assert.True(t, prov.loggedOut)
	assert.True(t, sink.completed)
	assert.Equal(t, 0, sink.created)
	assert.Equal(t, 2, sink.attempted)
}

func TestRunRejectsMissingGroupBeforeAnyCreation(t *testing.T) {
	t.Parallel()

	prov := newFakeProvisioner()
	sink := &recordingSink{}
	confirm := &staticConfirmer{proceed: true}
	service := NewBatchService(prov, sink, confirm, nil)

	_, err := service.Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
	require.ErrorIs(t, err, domain.ErrGroupNotFound)
	assert.ErrorContains(t, err, "students")

	assert.Equal(t, []string{"group:students"}, prov.calls)
	assert.False(t, confirm.asked)
	assert.False(t, sink.completed)
	assert.True(t, prov.loggedOut)
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     BatchRequest
		wantErr error
		contain string
	}{
		{
			name:    "missing group",
			req:     BatchRequest{Records: rosterRecords()},
			wantErr: domain.ErrGroupRequired,
		},
		{
			name:    "no records",
			req:     BatchRequest{Group: "students"},
			wantErr: domain.ErrNoRecords,
		},
		{
			name: "invalid record",
			req: BatchRequest{
				Group:   "students",
				Records: []domain.AccountRecord{{FirstName: "ana", LastName: "maric", Password: "pw1"}, {LastName: "doe", Password: "pw2"}},
			},
			contain: "record 2: first name is required",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			prov := newFakeProvisioner("students")
			service := NewBatchService(prov, &recordingSink{}, &staticConfirmer{proceed: true}, nil)

			_, err := service.Run(context.Background(), tc.req)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.contain != "" {
				assert.ErrorContains(t, err, tc.contain)
			}

			assert.Empty(t, prov.calls, "validation must fail before any network call")
			assert.True(t, prov.loggedOut, "session must be released on validation failure")
		})
	}
}

func TestRunMapsCreateFailureReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		contain []string
	}{
		{
			name:    "invalid input",
			err:     &domain.APIError{Code: 101, Message: "Invalid input data"},
			contain: []string{"ocs status 101", "| invalid input data"},
		},
		{
			name:    "already exists",
			err:     &domain.APIError{Code: 102, Message: "User already exists"},
			contain: []string{"ocs status 102", "| username already exists"},
		},
		{
			name:    "unknown server error",
			err:     &domain.APIError{Code: 103, Message: ""},
			contain: []string{"ocs status 103", "| unknown error occurred whilst adding the user"},
		},
		{
			name:    "unmapped code omits reason",
			err:     &domain.APIError{Code: 106, Message: "no rights"},
			contain: []string{"ocs status 106"},
		},
		{
			name:    "transport failure",
			err:     &domain.TransportError{StatusCode: 502},
			contain: []string{"http status 502"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			prov := newFakeProvisioner("students")
			prov.createErr = map[string]error{"ana.maric": tc.err}
			sink := &recordingSink{}
			service := NewBatchService(prov, sink, &staticConfirmer{proceed: true}, nil)

			outcome, err := service.Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
			require.NoError(t, err, "per-record failures must not abort the batch")

			assert.Equal(t, 1, outcome.Created, "jon.doe still gets created")
			require.NotEmpty(t, sink.events)
			for _, want := range tc.contain {
				assert.Contains(t, sink.events[0], want)
			}
			if tc.name == "unmapped code omits reason" {
				assert.NotContains(t, sink.events[0], "|")
			}
		})
	}
}

func TestRunContinuesAfterExistenceCheckFailure(t *testing.T) {
	t.Parallel()

	prov := newFakeProvisioner("students")
	prov.existsErr = map[string]error{"ana.maric": &domain.TransportError{StatusCode: 503}}
	sink := &recordingSink{}
	service := NewBatchService(prov, sink, &staticConfirmer{proceed: true}, nil)

	outcome, err := service.Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Created)
	assert.NotContains(t, prov.calls, "create:ana.maric")
	assert.Contains(t, sink.events[0], `checking username "ana.maric"`)
}

func TestRunGroupAssignmentFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	prov := newFakeProvisioner("students")
	prov.groupAddErr = map[string]error{"ana.maric": &domain.APIError{Code: 104, Message: "group does not exist"}}
	sink := &recordingSink{}
	service := NewBatchService(prov, sink, &staticConfirmer{proceed: true}, nil)

	outcome, err := service.Run(context.Background(), BatchRequest{Group: "students", Records: rosterRecords()})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Created, "created count must not be decremented")
	assert.Equal(t, 1, outcome.GroupFailures)

	var warning string
	for _, event := range sink.events {
		if len(event) >= 7 && event[:7] == "WARNING" {
			warning = event
		}
	}
	require.NotEmpty(t, warning)
	assert.Contains(t, warning, `"ana.maric" created but not added to group "students"`)
}

func TestRunProcessesRecordsInInputOrder(t *testing.T) {
	t.Parallel()

	records := make([]domain.AccountRecord, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, domain.AccountRecord{
			FirstName: fmt.Sprintf("user%d", i),
			LastName:  "test",
			Password:  "pw",
		})
	}

	prov := newFakeProvisioner("students")
	service := NewBatchService(prov, &recordingSink{}, &staticConfirmer{proceed: true}, nil)

	_, err := service.Run(context.Background(), BatchRequest{Group: "students", Records: records})
	require.NoError(t, err)

	var creations []string
	for _, call := range prov.calls {
		if len(call) > 7 && call[:7] == "create:" {
			creations = append(creations, call[7:])
		}
	}
	assert.Equal(t, []string{"user0.test", "user1.test", "user2.test", "user3.test", "user4.test"}, creations)
}
