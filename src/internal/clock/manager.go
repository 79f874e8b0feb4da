package clock

import (
	"context"
	"errors"
	"fmt"
	"surihub-timeclock-svc/src/internal/metrics"
	"surihub-timeclock-svc/src/internal/models"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publisher receives clock transitions after they are durably stored.
type Publisher interface {
	PublishClockEvent(ctx context.Context, event models.ClockEvent) error
}

type Manager interface {
	GetCurrentSession(ctx context.Context, userID string) (*ClockSession, error)
	ClockIn(ctx context.Context, req *ClockInRequest) (*ClockSession, error)
	ClockOut(ctx context.Context, userID string, locator Locator) (*ClockSession, error)
	UpdateNotes(ctx context.Context, userID, notes string) (*ClockSession, error)
	History(ctx context.Context, filter ArchiveFilter) ([]*ClockSession, error)
	CountOpen(ctx context.Context) (int64, error)
}

// ClockInRequest carries everything a clock-in needs besides the store.
type ClockInRequest struct {
	UserID    string
	UserEmail string
	Vehicle   *VehicleSnapshot
	Station   *StationSnapshot
	Locator   Locator
}

type Option func(*manager)

func WithClock(now func() time.Time) Option {
	return func(m *manager) { m.now = now }
}

func WithArchiveKey(key KeyFunc) Option {
	return func(m *manager) { m.archiveKey = key }
}

func WithPublisher(publisher Publisher) Option {
	return func(m *manager) { m.publisher = publisher }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *manager) { m.newID = newID }
}

type manager struct {
	store      Store
	publisher  Publisher
	now        func() time.Time
	archiveKey KeyFunc
	newID      func() string

	locks sync.Map
}

func NewManager(store Store, opts ...Option) Manager {
	m := &manager{
		store:      store,
		now:        time.Now,
		archiveKey: UniqueArchiveKey,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// userLock serializes transitions of one user inside this process. The
// store still guards against a second process racing on the same user.
func (m *manager) userLock(userID string) *sync.Mutex {
	lock, _ := m.locks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (m *manager) GetCurrentSession(ctx context.Context, userID string) (*ClockSession, error) {
	if userID == "" {
		return nil, models.ErrInvalidParams
	}

	session, err := m.store.ReadCurrent(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to read current session")
		return nil, storeErr(models.ErrStoreRead, err)
	}
	if !session.IsOpen() {
		return nil, nil
	}
	return session, nil
}

func (m *manager) ClockIn(ctx context.Context, req *ClockInRequest) (*ClockSession, error) {
	if req == nil || req.UserID == "" {
		return nil, models.ErrInvalidParams
	}

	lock := m.userLock(req.UserID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.clockIn(ctx, req)
	metrics.ClockTransitions.WithLabelValues(models.ClockEventIn, outcome(err)).Inc()
	if err != nil {
		logrus.WithError(err).WithField("user_id", req.UserID).Warn("Clock in rejected")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    session.UserID,
		"session_id": session.ID,
		"vehicle":    session.Vehicle.RegistrationNumber,
		"station":    session.Station.Name,
	}).Info("User clocked in")

	m.publish(ctx, models.ClockEvent{
		Type:         models.ClockEventIn,
		UserID:       session.UserID,
		UserEmail:    session.UserEmail,
		SessionID:    session.ID,
		Registration: session.Vehicle.RegistrationNumber,
		StationName:  session.Station.Name,
		OccurredAt:   session.ClockInTime,
	})
	return session, nil
}

func (m *manager) clockIn(ctx context.Context, req *ClockInRequest) (*ClockSession, error) {
	if req.Vehicle == nil {
		return nil, models.ErrVehicleRequired
	}
	if req.Station == nil {
		return nil, models.ErrStationRequired
	}

	current, err := m.store.ReadCurrent(ctx, req.UserID)
	if err != nil {
		return nil, storeErr(models.ErrStoreRead, err)
	}
	if current.IsOpen() {
		return nil, models.ErrSessionAlreadyOpen
	}

	loc, err := resolveLocation(ctx, req.Locator)
	if err != nil {
		return nil, err
	}

	vehicle := *req.Vehicle
	station := *req.Station
	session := &ClockSession{
		ID:              m.newID(),
		UserID:          req.UserID,
		UserEmail:       req.UserEmail,
		ClockInTime:     m.now().UTC().Truncate(time.Millisecond),
		ClockInLocation: loc,
		Vehicle:         &vehicle,
		Station:         &station,
	}

	if err := m.store.WriteCurrent(ctx, req.UserID, session); err != nil {
		return nil, storeErr(models.ErrStoreWrite, err)
	}
	return session.Clone(), nil
}

func (m *manager) ClockOut(ctx context.Context, userID string, locator Locator) (*ClockSession, error) {
	if userID == "" {
		return nil, models.ErrInvalidParams
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	archived, err := m.clockOut(ctx, userID, locator)
	metrics.ClockTransitions.WithLabelValues(models.ClockEventOut, outcome(err)).Inc()
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Clock out rejected")
		return nil, err
	}

	metrics.SessionDuration.Observe(float64(*archived.TotalTime))
	logrus.WithFields(logrus.Fields{
		"user_id":     archived.UserID,
		"session_id":  archived.ID,
		"archive_key": archived.ArchiveKey,
		"total_time":  *archived.TotalTime,
	}).Info("User clocked out")

	event := models.ClockEvent{
		Type:       models.ClockEventOut,
		UserID:     archived.UserID,
		UserEmail:  archived.UserEmail,
		SessionID:  archived.ID,
		ArchiveKey: archived.ArchiveKey,
		TotalTime:  *archived.TotalTime,
		OccurredAt: *archived.ClockOutTime,
	}
	if archived.Vehicle != nil {
		event.Registration = archived.Vehicle.RegistrationNumber
	}
	if archived.Station != nil {
		event.StationName = archived.Station.Name
	}
	m.publish(ctx, event)
	return archived, nil
}

func (m *manager) clockOut(ctx context.Context, userID string, locator Locator) (*ClockSession, error) {
	current, err := m.store.ReadCurrent(ctx, userID)
	if err != nil {
		return nil, storeErr(models.ErrStoreRead, err)
	}
	if !current.IsOpen() {
		return nil, models.ErrNoOpenSession
	}

	loc, err := resolveLocation(ctx, locator)
	if err != nil {
		return nil, err
	}

	out := m.now().UTC().Truncate(time.Millisecond)
	if out.Before(current.ClockInTime) {
		logrus.WithFields(logrus.Fields{
			"user_id":       userID,
			"clock_in_time": current.ClockInTime,
			"clock_out":     out,
		}).Warn("Clock out precedes clock in, clamping")
		out = current.ClockInTime
	}
	total := out.Unix() - current.ClockInTime.Unix()

	closed := current.Clone()
	closed.ClockOutTime = &out
	closed.ClockOutLocation = &loc
	closed.TotalTime = &total
	closed.ArchiveKey = m.archiveKey(closed)

	archived, err := m.store.AppendArchive(ctx, closed.ArchiveKey, closed)
	if errors.Is(err, models.ErrArchiveConflict) && closed.ArchiveKey != UniqueArchiveKey(closed) {
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,
			"session_id":  closed.ID,
			"archive_key": closed.ArchiveKey,
		}).Warn("Archive key taken by another session, archiving under unique key")
		closed.ArchiveKey = UniqueArchiveKey(closed)
		archived, err = m.store.AppendArchive(ctx, closed.ArchiveKey, closed)
	}
	if err != nil {
		return nil, storeErr(models.ErrStoreWrite, err)
	}

	if err := m.store.WriteCurrent(ctx, userID, nil); err != nil {
		return nil, storeErr(models.ErrStoreWrite, err)
	}
	return archived, nil
}

func (m *manager) UpdateNotes(ctx context.Context, userID, notes string) (*ClockSession, error) {
	if userID == "" {
		return nil, models.ErrInvalidParams
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := m.store.ReadCurrent(ctx, userID)
	if err != nil {
		return nil, storeErr(models.ErrStoreRead, err)
	}
	if !current.IsOpen() {
		return nil, models.ErrNoOpenSession
	}

	if err := m.store.UpdateNotes(ctx, userID, current.ID, notes); err != nil {
		return nil, storeErr(models.ErrStoreWrite, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": current.ID,
	}).Debug("Session notes updated")

	current.Notes = notes
	return current, nil
}

func (m *manager) History(ctx context.Context, filter ArchiveFilter) ([]*ClockSession, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, models.ErrInvalidParams
	}

	sessions, err := m.store.ReadArchive(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to read archived sessions")
		return nil, storeErr(models.ErrStoreRead, err)
	}
	return sessions, nil
}

func (m *manager) CountOpen(ctx context.Context) (int64, error) {
	count, err := m.store.CountOpen(ctx)
	if err != nil {
		return 0, storeErr(models.ErrStoreRead, err)
	}
	return count, nil
}

func (m *manager) publish(ctx context.Context, event models.ClockEvent) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishClockEvent(ctx, event); err != nil {
		metrics.PublishFailures.WithLabelValues(event.Type).Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":      event.Type,
			"session_id": event.SessionID,
		}).Warn("Failed to publish clock event")
	}
}

// storeErr keeps lifecycle and already classified store errors intact and
// classifies anything else as kind.
func storeErr(kind, err error) error {
	switch {
	case errors.Is(err, models.ErrPreconditionFailed),
		errors.Is(err, models.ErrSessionArchived),
		errors.Is(err, models.ErrArchiveConflict),
		errors.Is(err, models.ErrStoreRead),
		errors.Is(err, models.ErrStoreWrite):
		return err
	default:
		return fmt.Errorf("%w: %v", kind, err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, models.ErrSessionAlreadyOpen),
		errors.Is(err, models.ErrArchiveConflict),
		errors.Is(err, models.ErrSessionArchived):
		return metrics.OutcomeConflict
	case errors.Is(err, models.ErrPreconditionFailed),
		errors.Is(err, models.ErrInvalidParams):
		return metrics.OutcomePrecondition
	case errors.Is(err, models.ErrLocationUnavailable):
		return metrics.OutcomeLocation
	default:
		return metrics.OutcomeStoreError
	}
}
