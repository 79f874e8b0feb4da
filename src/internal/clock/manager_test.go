package clock

import (
	"context"
	"errors"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)

	v1 = VehicleSnapshot{ID: "v1", Make: "Toyota", Model: "Probox", Color: "White", RegistrationNumber: "KDA 123A"}
	s1 = StationSnapshot{ID: "s1", Name: "Sankara Nairobi", Address: "Nairobi, Kenya"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(lat, lon float64) Locator {
	return LocatorFunc(func(context.Context) (Location, error) {
		return Location{Latitude: lat, Longitude: lon, Accuracy: 12}, nil
	})
}

// faultyStore fails the next N archive appends or slot clears.
type faultyStore struct {
	*MemoryStore
	failArchive int
	failClear   int
}

func (f *faultyStore) AppendArchive(ctx context.Context, key string, s *ClockSession) (*ClockSession, error) {
	if f.failArchive > 0 {
		f.failArchive--
		return nil, errors.New("connection reset by peer")
	}
	return f.MemoryStore.AppendArchive(ctx, key, s)
}

func (f *faultyStore) WriteCurrent(ctx context.Context, userID string, s *ClockSession) error {
	if s == nil && f.failClear > 0 {
		f.failClear--
		return errors.New("write concern timeout")
	}
	return f.MemoryStore.WriteCurrent(ctx, userID, s)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishClockEvent(ctx context.Context, event models.ClockEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestManager(store Store, opts ...Option) (Manager, *fakeClock) {
	clk := &fakeClock{now: t0}
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return NewManager(store, opts...), clk
}

func clockInRequest(userID string) *ClockInRequest {
	vehicle := v1
	station := s1
	return &ClockInRequest{
		UserID:    userID,
		UserEmail: userID + "@surihub.co.ke",
		Vehicle:   &vehicle,
		Station:   &station,
		Locator:   at(1.0, 2.0),
	}
}

func TestClockInThenGetCurrentSession(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(NewMemoryStore())

	opened, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)

	current, err := m.GetCurrentSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, current)

	assert.Equal(t, opened.ID, current.ID)
	assert.Equal(t, t0, current.ClockInTime)
	assert.Equal(t, v1, *current.Vehicle)
	assert.Equal(t, s1, *current.Station)
	assert.Equal(t, Location{Latitude: 1.0, Longitude: 2.0, Accuracy: 12}, current.ClockInLocation)
	assert.Equal(t, "u1@surihub.co.ke", current.UserEmail)
	assert.Empty(t, current.Notes)
	assert.True(t, current.IsOpen())
	assert.Nil(t, current.TotalTime)
}

func TestGetCurrentSessionWithoutSession(t *testing.T) {
	m, _ := newTestManager(NewMemoryStore())

	current, err := m.GetCurrentSession(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = m.GetCurrentSession(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidParams)
}

func TestClockInClockOutOneHour(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m, clk := newTestManager(store)

	_, err := m.ClockIn(ctx, clockInRequest("U"))
	require.NoError(t, err)

	clk.Advance(3600 * time.Second)
	archived, err := m.ClockOut(ctx, "U", at(1.0, 2.0))
	require.NoError(t, err)

	require.NotNil(t, archived.TotalTime)
	assert.Equal(t, int64(3600), *archived.TotalTime)
	assert.Equal(t, t0, archived.ClockInTime)
	assert.Equal(t, t0.Add(time.Hour), *archived.ClockOutTime)
	assert.Equal(t, v1, *archived.Vehicle)
	assert.Equal(t, s1, *archived.Station)
	assert.Equal(t, Location{Latitude: 1.0, Longitude: 2.0, Accuracy: 12}, *archived.ClockOutLocation)
	assert.Equal(t, "2025-03-10T06:00:00.000Z_U", archived.ArchiveKey)

	current, err := m.GetCurrentSession(ctx, "U")
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Equal(t, archived.ID, store.LastSessionID("U"))

	history, err := m.History(ctx, ArchiveFilter{UserID: "U"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, archived, history[0])
}

func TestTotalTimeMatchesClockTimes(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore())
	clk.Set(t0.Add(250 * time.Millisecond))

	_, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)

	clk.Advance(8*time.Hour + 17*time.Minute + 900*time.Millisecond)
	archived, err := m.ClockOut(ctx, "u1", at(0, 0))
	require.NoError(t, err)

	assert.Equal(t, archived.ClockOutTime.Unix()-archived.ClockInTime.Unix(), *archived.TotalTime)
	assert.GreaterOrEqual(t, *archived.TotalTime, int64(0))
}

func TestClockInPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ClockInRequest)
		wantErr error
	}{
		{"missing vehicle", func(r *ClockInRequest) { r.Vehicle = nil }, models.ErrVehicleRequired},
		{"missing station", func(r *ClockInRequest) { r.Station = nil }, models.ErrStationRequired},
		{"missing both", func(r *ClockInRequest) { r.Vehicle, r.Station = nil, nil }, models.ErrVehicleRequired},
		{"missing user", func(r *ClockInRequest) { r.UserID = "" }, models.ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			m, clk := newTestManager(store)

			// one archived session that must stay untouched
			_, err := m.ClockIn(ctx, clockInRequest("u1"))
			require.NoError(t, err)
			clk.Advance(time.Hour)
			_, err = m.ClockOut(ctx, "u1", at(1, 2))
			require.NoError(t, err)
			before, err := m.History(ctx, ArchiveFilter{})
			require.NoError(t, err)

			clk.Advance(time.Hour)
			req := clockInRequest("u1")
			tt.mutate(req)
			session, err := m.ClockIn(ctx, req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, session)
			assert.False(t, models.IsRetryable(err))

			after, err := m.History(ctx, ArchiveFilter{})
			require.NoError(t, err)
			assert.Equal(t, before, after)

			current, err := m.GetCurrentSession(ctx, "u1")
			require.NoError(t, err)
			assert.Nil(t, current)
		})
	}
}

func TestClockInPreconditionsCheckedBeforeLocation(t *testing.T) {
	called := false
	req := clockInRequest("u1")
	req.Vehicle = nil
	req.Locator = LocatorFunc(func(context.Context) (Location, error) {
		called = true
		return Location{}, nil
	})

	m, _ := newTestManager(NewMemoryStore())
	_, err := m.ClockIn(context.Background(), req)

	assert.ErrorIs(t, err, models.ErrPreconditionFailed)
	assert.False(t, called)
}

func TestClockInWhileOpen(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore())

	first, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, err = m.ClockIn(ctx, clockInRequest("u1"))
	assert.ErrorIs(t, err, models.ErrSessionAlreadyOpen)
	assert.ErrorIs(t, err, models.ErrPreconditionFailed)

	current, err := m.GetCurrentSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, current.ID)
	assert.Equal(t, t0, current.ClockInTime)
}

func TestClockInLocationFailures(t *testing.T) {
	tests := []struct {
		name    string
		locator Locator
		wantErr error
	}{
		{"no locator", nil, models.ErrLocationUnavailable},
		{"permission denied", &ReportedLocation{Status: LocationStatusPermissionDenied}, models.ErrLocationPermissionDenied},
		{"no fix", &ReportedLocation{Status: LocationStatusOK}, models.ErrLocationUnavailable},
		{"device error", LocatorFunc(func(context.Context) (Location, error) {
			return Location{}, errors.New("gps timeout")
		}), models.ErrLocationDevice},
		{"out of range", at(91, 0), models.ErrLocationDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m, _ := newTestManager(NewMemoryStore())

			req := clockInRequest("u1")
			req.Locator = tt.locator
			_, err := m.ClockIn(ctx, req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, models.ErrLocationUnavailable)
			assert.True(t, models.IsRetryable(err))

			current, err := m.GetCurrentSession(ctx, "u1")
			require.NoError(t, err)
			assert.Nil(t, current)
		})
	}
}

func TestClockInSnapshotsAreCopied(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(NewMemoryStore())

	req := clockInRequest("u1")
	_, err := m.ClockIn(ctx, req)
	require.NoError(t, err)

	req.Vehicle.RegistrationNumber = "KDB 999Z"
	req.Station.Name = "Renamed"

	current, err := m.GetCurrentSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "KDA 123A", current.Vehicle.RegistrationNumber)
	assert.Equal(t, "Sankara Nairobi", current.Station.Name)
}

func TestClockOutWithoutOpenSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m, _ := newTestManager(store)

	archived, err := m.ClockOut(ctx, "u1", at(1, 2))
	assert.ErrorIs(t, err, models.ErrNoOpenSession)
	assert.ErrorIs(t, err, models.ErrPreconditionFailed)
	assert.Nil(t, archived)

	history, err := m.History(ctx, ArchiveFilter{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClockOutTwice(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore())

	_, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)
	clk.Advance(time.Hour)

	_, err = m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err)

	clk.Advance(time.Second)
	_, err = m.ClockOut(ctx, "u1", at(1, 2))
	assert.ErrorIs(t, err, models.ErrNoOpenSession)

	history, err := m.History(ctx, ArchiveFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestClockOutLocationFailureKeepsSessionOpen(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore())

	opened, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)
	clk.Advance(time.Hour)

	_, err = m.ClockOut(ctx, "u1", &ReportedLocation{Status: LocationStatusUnavailable})
	assert.ErrorIs(t, err, models.ErrLocationUnavailable)

	current, err := m.GetCurrentSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, opened.ID, current.ID)

	history, err := m.History(ctx, ArchiveFilter{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClockOutArchiveFailureKeepsSessionOpen(t *testing.T) {
	ctx := context.Background()
	store := &faultyStore{MemoryStore: NewMemoryStore(), failArchive: 1}
	m, clk := newTestManager(store)

	opened, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)
	clk.Advance(time.Hour)

	_, err = m.ClockOut(ctx, "u1", at(1, 2))
	assert.ErrorIs(t, err, models.ErrStoreWrite)
	assert.True(t, models.IsRetryable(err))

	current, err := m.GetCurrentSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, opened.ID, current.ID)

	archived, err := m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err)
	assert.Equal(t, opened.ID, archived.ID)
	assert.Equal(t, int64(3600), *archived.TotalTime)
}

func TestClockOutRetryAfterArchiveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := &faultyStore{MemoryStore: NewMemoryStore(), failClear: 1}
	m, clk := newTestManager(store)

	opened, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)
	clk.Advance(time.Hour)

	// archive lands, clearing the slot fails
	_, err = m.ClockOut(ctx, "u1", at(1, 2))
	assert.ErrorIs(t, err, models.ErrStoreWrite)

	current, err := m.GetCurrentSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, current)

	clk.Advance(5 * time.Minute)
	archived, err := m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err)
	assert.Equal(t, opened.ID, archived.ID)
	assert.Equal(t, t0.Add(time.Hour), *archived.ClockOutTime)
	assert.Equal(t, int64(3600), *archived.TotalTime)

	history, err := m.History(ctx, ArchiveFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, history, 1)

	current, err = m.GetCurrentSession(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestClockOutClampsBackwardsClock(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore())

	_, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)

	clk.Advance(-time.Minute)
	archived, err := m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err)

	assert.Equal(t, t0, *archived.ClockOutTime)
	assert.Equal(t, int64(0), *archived.TotalTime)
}

func TestUniqueKeysKeepEverySessionOfTheDay(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore(), WithArchiveKey(ArchiveKeyFor(config.ArchiveKeyUnique)))

	for i := 0; i < 3; i++ {
		_, err := m.ClockIn(ctx, clockInRequest("u1"))
		require.NoError(t, err)
		clk.Advance(time.Hour)
		_, err = m.ClockOut(ctx, "u1", at(1, 2))
		require.NoError(t, err)
		clk.Advance(30 * time.Minute)
	}

	history, err := m.History(ctx, ArchiveFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, t0.Add(3*time.Hour), history[0].ClockInTime)
	assert.Equal(t, t0, history[2].ClockInTime)
}

func TestDailyKeysFallBackToUniqueOnCollision(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore(), WithArchiveKey(ArchiveKeyFor(config.ArchiveKeyDaily)))

	_, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)
	clk.Advance(time.Hour)
	first, err := m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10_u1", first.ArchiveKey)

	clk.Advance(time.Hour)
	_, err = m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)
	clk.Advance(time.Hour)
	second, err := m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10T08:00:00.000Z_u1", second.ArchiveKey)

	history, err := m.History(ctx, ArchiveFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestDailyKeysSeparateUsers(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore(), WithArchiveKey(DailyArchiveKey))

	for _, user := range []string{"u1", "u2"} {
		_, err := m.ClockIn(ctx, clockInRequest(user))
		require.NoError(t, err)
	}
	clk.Advance(time.Hour)
	a, err := m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err)
	b, err := m.ClockOut(ctx, "u2", at(1, 2))
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10_u1", a.ArchiveKey)
	assert.Equal(t, "2025-03-10_u2", b.ArchiveKey)
}

func TestUpdateNotes(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore())

	_, err := m.UpdateNotes(ctx, "u1", "fuel low")
	assert.ErrorIs(t, err, models.ErrNoOpenSession)

	_, err = m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)

	updated, err := m.UpdateNotes(ctx, "u1", "fuel low")
	require.NoError(t, err)
	assert.Equal(t, "fuel low", updated.Notes)

	clk.Advance(time.Hour)
	archived, err := m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err)
	assert.Equal(t, "fuel low", archived.Notes)

	_, err = m.UpdateNotes(ctx, "u1", "too late")
	assert.ErrorIs(t, err, models.ErrNoOpenSession)

	history, err := m.History(ctx, ArchiveFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "fuel low", history[0].Notes)
}

func TestHistoryFilters(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestManager(NewMemoryStore())

	for _, user := range []string{"u1", "u2", "u1"} {
		_, err := m.ClockIn(ctx, clockInRequest(user))
		require.NoError(t, err)
		clk.Advance(time.Hour)
		_, err = m.ClockOut(ctx, user, at(1, 2))
		require.NoError(t, err)
		clk.Advance(24 * time.Hour)
	}

	all, err := m.History(ctx, ArchiveFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := m.History(ctx, ArchiveFilter{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, t0.Add(50*time.Hour), mine[0].ClockInTime)

	from := t0.Add(time.Hour)
	to := t0.Add(30 * time.Hour)
	window, err := m.History(ctx, ArchiveFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "u2", window[0].UserID)

	_, err = m.History(ctx, ArchiveFilter{From: &to, To: &from})
	assert.ErrorIs(t, err, models.ErrInvalidParams)
}

func TestConcurrentClockInKeepsOneOpenSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// separate managers share nothing but the store, like two service replicas
	managers := make([]Manager, 8)
	for i := range managers {
		managers[i], _ = newTestManager(store)
	}

	var wg sync.WaitGroup
	results := make(chan error, len(managers))
	for _, m := range managers {
		wg.Add(1)
		go func(m Manager) {
			defer wg.Done()
			_, err := m.ClockIn(ctx, clockInRequest("u1"))
			results <- err
		}(m)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrSessionAlreadyOpen)
	}
	assert.Equal(t, 1, succeeded)

	count, err := managers[0].CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestClockEventsArePublished(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	pub.On("PublishClockEvent", mock.Anything, mock.MatchedBy(func(e models.ClockEvent) bool {
		return e.Type == models.ClockEventIn && e.UserID == "u1" && e.Registration == "KDA 123A" && e.OccurredAt.Equal(t0)
	})).Return(nil).Once()
	pub.On("PublishClockEvent", mock.Anything, mock.MatchedBy(func(e models.ClockEvent) bool {
		return e.Type == models.ClockEventOut && e.TotalTime == 60 && e.StationName == "Sankara Nairobi"
	})).Return(errors.New("broker down")).Once()

	m, clk := newTestManager(NewMemoryStore(), WithPublisher(pub))

	_, err := m.ClockIn(ctx, clockInRequest("u1"))
	require.NoError(t, err)
	clk.Advance(time.Minute)

	_, err = m.ClockOut(ctx, "u1", at(1, 2))
	require.NoError(t, err, "publish failures must not fail the transition")

	pub.AssertExpectations(t)
}

func TestRejectedTransitionsPublishNothing(t *testing.T) {
	pub := &mockPublisher{}
	m, _ := newTestManager(NewMemoryStore(), WithPublisher(pub))

	_, err := m.ClockOut(context.Background(), "u1", at(1, 2))
	require.Error(t, err)

	pub.AssertNotCalled(t, "PublishClockEvent", mock.Anything, mock.Anything)
}
