package model

import "time"

// NotificationPreferences selects which notification types a user wants
// pushed. Rows are always stored; preferences only gate delivery.
type NotificationPreferences struct {
	ThreatAlerts       bool `json:"threat_alerts"`
	ConnectionRequests bool `json:"connection_requests"`
	Messages           bool `json:"messages"`
	SystemUpdates      bool `json:"system_updates"`
}

// Allows reports whether a notification of type t should be delivered.
// Types without a dedicated switch are always delivered.
func (p NotificationPreferences) Allows(t NotificationType) bool {
	switch t {
	case NotifyThreatAlert:
		return p.ThreatAlerts
	case NotifyConnectionRequest:
		return p.ConnectionRequests
	case NotifyMessage:
		return p.Messages
	case NotifySystemUpdate:
		return p.SystemUpdates
	default:
		return true
	}
}

// PrivacySettings controls what a user exposes to others.
type PrivacySettings struct {
	ProfileVisibility Visibility `json:"profile_visibility" validate:"enum"`
	LocationSharing   bool       `json:"location_sharing"`
	DataSharing       bool       `json:"data_sharing"`
}

// EmergencyContactEntry is an inline contact kept in UserSettings for quick
// access by the client overlay.
type EmergencyContactEntry struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,phone"`
	Relation string `json:"relation,omitempty" validate:"max=50"`
}

// UserSettings is the one-to-one settings row created with every User.
type UserSettings struct {
	ID                      string                  `json:"id"`
	UserID                  string                  `json:"user_id" validate:"required"`
	ThreatDetectionEnabled  bool                    `json:"threat_detection_enabled"`
	NotificationPreferences NotificationPreferences `json:"notification_preferences"`
	PrivacySettings         PrivacySettings         `json:"privacy_settings"`
	EmergencyContacts       []EmergencyContactEntry `json:"emergency_contacts" validate:"max=10,dive"`
	AutoScreenshot          bool                    `json:"auto_screenshot"`
	OverlayEnabled          bool                    `json:"overlay_enabled"`
	CreatedAt               time.Time               `json:"created_at"`
	UpdatedAt               time.Time               `json:"updated_at"`
}

func (s *UserSettings) Touch(now time.Time) { s.UpdatedAt = now }

// DefaultNotificationPreferences is applied to every new user.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		ThreatAlerts:       true,
		ConnectionRequests: true,
		Messages:           true,
		SystemUpdates:      false,
	}
}

// DefaultPrivacySettings is applied to every new user.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		ProfileVisibility: VisibilityFriends,
		LocationSharing:   false,
		DataSharing:       false,
	}
}

// DefaultSettings returns the settings row provisioned on registration.
// ID and timestamps are filled in by the caller.
func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:                  userID,
		ThreatDetectionEnabled:  true,
		NotificationPreferences: DefaultNotificationPreferences(),
		PrivacySettings:         DefaultPrivacySettings(),
		EmergencyContacts:       []EmergencyContactEntry{},
		AutoScreenshot:          false,
		OverlayEnabled:          true,
	}
}

// TimeRange is a half-open daily window in 24h "HH:MM" form.
type TimeRange struct {
	Start string `json:"start" validate:"required,datetime=15:04"`
	End   string `json:"end" validate:"required,datetime=15:04"`
}

// AvailabilityHours lists consultation windows per weekday.
// An empty day means unavailable.
type AvailabilityHours struct {
	Monday    []TimeRange `json:"monday,omitempty" validate:"dive"`
	Tuesday   []TimeRange `json:"tuesday,omitempty" validate:"dive"`
	Wednesday []TimeRange `json:"wednesday,omitempty" validate:"dive"`
	Thursday  []TimeRange `json:"thursday,omitempty" validate:"dive"`
	Friday    []TimeRange `json:"friday,omitempty" validate:"dive"`
	Saturday  []TimeRange `json:"saturday,omitempty" validate:"dive"`
	Sunday    []TimeRange `json:"sunday,omitempty" validate:"dive"`
}

// Days returns the windows indexed by time.Weekday.
func (a AvailabilityHours) Days() map[time.Weekday][]TimeRange {
	return map[time.Weekday][]TimeRange{
		time.Monday:    a.Monday,
		time.Tuesday:   a.Tuesday,
		time.Wednesday: a.Wednesday,
		time.Thursday:  a.Thursday,
		time.Friday:    a.Friday,
		time.Saturday:  a.Saturday,
		time.Sunday:    a.Sunday,
	}
}
