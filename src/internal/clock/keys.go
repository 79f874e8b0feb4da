package clock

import "surihub-timeclock-svc/src/internal/config"

// KeyFunc derives the archive key of a closed session.
type KeyFunc func(session *ClockSession) string

const uniqueKeyLayout = "2006-01-02T15:04:05.000Z"

// UniqueArchiveKey keys a session by its millisecond clock-in instant and
// user, so two sessions of one user never share a key.
func UniqueArchiveKey(session *ClockSession) string {
	return session.ClockInTime.UTC().Format(uniqueKeyLayout) + "_" + session.UserID
}

// DailyArchiveKey keys a session by its UTC clock-in date and user. A second
// session on the same day collides with the first.
func DailyArchiveKey(session *ClockSession) string {
	return session.ClockInTime.UTC().Format("2006-01-02") + "_" + session.UserID
}

func ArchiveKeyFor(mode string) KeyFunc {
	if mode == config.ArchiveKeyDaily {
		return DailyArchiveKey
	}
	return UniqueArchiveKey
}
