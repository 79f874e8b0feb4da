package report

import (
	"context"
	"surihub-timeclock-svc/src/internal/clock"
	"surihub-timeclock-svc/src/internal/models"
	"surihub-timeclock-svc/src/internal/user"

	"github.com/sirupsen/logrus"
)

// UnknownUser labels a session whose employee no longer resolves.
const UnknownUser = "Unknown User"

// SessionRow is an archived session with the employee's display name.
type SessionRow struct {
	*clock.ClockSession
	EmployeeName string `json:"employeeName"`
}

type Directory interface {
	FullNames(ctx context.Context, ids []string) (map[string]string, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

type ActiveCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

type ActivityPublisher interface {
	PublishActivity(ctx context.Context, userID, sessionID, serviceName, action string) error
}

type Service interface {
	Sessions(ctx context.Context, adminID string, filter clock.ArchiveFilter) ([]*SessionRow, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type reportService struct {
	manager   clock.Manager
	directory Directory
	vehicles  ActiveCounter
	stations  ActiveCounter
	activity  ActivityPublisher
}

func NewReportService(manager clock.Manager, directory Directory, vehicles, stations ActiveCounter, activity ActivityPublisher) Service {
	return &reportService{
		manager:   manager,
		directory: directory,
		vehicles:  vehicles,
		stations:  stations,
		activity:  activity,
	}
}

func (s *reportService) Sessions(ctx context.Context, adminID string, filter clock.ArchiveFilter) ([]*SessionRow, error) {
	sessions, err := s.manager.History(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(sessions))
	seen := make(map[string]bool, len(sessions))
	for _, session := range sessions {
		if !seen[session.UserID] {
			seen[session.UserID] = true
			ids = append(ids, session.UserID)
		}
	}

	names, err := s.directory.FullNames(ctx, ids)
	if err != nil {
		logrus.WithError(err).Warn("Failed to resolve employee names, falling back to email")
		names = map[string]string{}
	}

	rows := make([]*SessionRow, len(sessions))
	for i, session := range sessions {
		rows[i] = &SessionRow{
			ClockSession: session,
			EmployeeName: displayName(names[session.UserID], session.UserEmail),
		}
	}

	logrus.WithFields(logrus.Fields{
		"admin_user_id": adminID,
		"user_id":       filter.UserID,
		"count":         len(rows),
	}).Debug("Session report generated")

	if s.activity != nil {
		if err := s.activity.PublishActivity(ctx, adminID, "", models.ServiceAdminReports, models.ActionReportRequest); err != nil {
			logrus.WithError(err).Warn("Failed to publish report activity")
		}
	}
	return rows, nil
}

func (s *reportService) Stats(ctx context.Context) (*models.Stats, error) {
	employees, err := s.directory.CountByRole(ctx, user.RoleEmployee)
	if err != nil {
		return nil, err
	}
	admins, err := s.directory.CountByRole(ctx, user.RoleAdmin)
	if err != nil {
		return nil, err
	}
	clockedIn, err := s.manager.CountOpen(ctx)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.vehicles.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	stations, err := s.stations.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{
		Employees:      employees,
		Admins:         admins,
		ClockedIn:      clockedIn,
		ActiveVehicles: vehicles,
		ActiveStations: stations,
	}

	logrus.WithFields(logrus.Fields{
		"employees":       stats.Employees,
		"admins":          stats.Admins,
		"clocked_in":      stats.ClockedIn,
		"active_vehicles": stats.ActiveVehicles,
		"active_stations": stats.ActiveStations,
	}).Info("Successfully computed dashboard statistics")

	return stats, nil
}

func displayName(fullName, email string) string {
	if fullName != "" {
		return fullName
	}
	if email != "" {
		return email
	}
	return UnknownUser
}
