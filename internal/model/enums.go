package model

// Enum is implemented by every enumerated column type.
// The integrity layer rejects any value for which Valid reports false.
type Enum interface {
	Valid() bool
}

func oneOf[T ~string](v T, set []T) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// UserType classifies a registered user.
type UserType string

const (
	UserTypeStudent      UserType = "Student"
	UserTypeProfessional UserType = "Professional"
	UserTypeOther        UserType = "Other"
)

// UserTypes lists the allowed user types.
var UserTypes = []UserType{UserTypeStudent, UserTypeProfessional, UserTypeOther}

func (t UserType) Valid() bool { return oneOf(t, UserTypes) }

// Gender of a registered user.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists the allowed genders.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

func (g Gender) Valid() bool { return oneOf(g, Genders) }

// ConnectionStatus is the state of a UserConnection.
//
// pending is the only non-terminal state for the accept/reject decision;
// blocked is reachable from every state.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
	ConnectionBlocked  ConnectionStatus = "blocked"
)

// ConnectionStatuses lists the allowed connection states.
var ConnectionStatuses = []ConnectionStatus{ConnectionPending, ConnectionAccepted, ConnectionRejected, ConnectionBlocked}

func (s ConnectionStatus) Valid() bool { return oneOf(s, ConnectionStatuses) }

// MessageType is the payload kind of a chat message.
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageFile     MessageType = "file"
	MessageLocation MessageType = "location"
)

// MessageTypes lists the allowed message types.
var MessageTypes = []MessageType{MessageText, MessageImage, MessageFile, MessageLocation}

func (t MessageType) Valid() bool { return oneOf(t, MessageTypes) }

// ThreatType is the category assigned by the classifier.
type ThreatType string

const (
	ThreatCyberbullying        ThreatType = "cyberbullying"
	ThreatHarassment           ThreatType = "harassment"
	ThreatStalking             ThreatType = "stalking"
	ThreatInappropriateContent ThreatType = "inappropriate_content"
	ThreatPhishing             ThreatType = "phishing"
	ThreatOther                ThreatType = "other"
)

// ThreatTypes lists the allowed threat categories.
var ThreatTypes = []ThreatType{
	ThreatCyberbullying, ThreatHarassment, ThreatStalking,
	ThreatInappropriateContent, ThreatPhishing, ThreatOther,
}

func (t ThreatType) Valid() bool { return oneOf(t, ThreatTypes) }

// ThreatLevel is the severity assigned by the classifier.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// ThreatLevels lists the allowed severities in ascending order.
var ThreatLevels = []ThreatLevel{ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical}

func (l ThreatLevel) Valid() bool { return oneOf(l, ThreatLevels) }

// Alerting reports whether a detection at this level raises a threat_alert.
func (l ThreatLevel) Alerting() bool {
	return l == ThreatHigh || l == ThreatCritical
}

// ActionTaken records what the user did about a detection.
type ActionTaken string

const (
	ActionNone      ActionTaken = "none"
	ActionReported  ActionTaken = "reported"
	ActionBlocked   ActionTaken = "blocked"
	ActionEscalated ActionTaken = "escalated"
)

// ActionsTaken lists the allowed actions.
var ActionsTaken = []ActionTaken{ActionNone, ActionReported, ActionBlocked, ActionEscalated}

func (a ActionTaken) Valid() bool { return oneOf(a, ActionsTaken) }

// EvidenceType is the media kind of stored evidence.
type EvidenceType string

const (
	EvidenceScreenshot EvidenceType = "screenshot"
	EvidenceDocument   EvidenceType = "document"
	EvidenceAudio      EvidenceType = "audio"
	EvidenceVideo      EvidenceType = "video"
	EvidenceText       EvidenceType = "text"
)

// EvidenceTypes lists the allowed evidence kinds.
var EvidenceTypes = []EvidenceType{EvidenceScreenshot, EvidenceDocument, EvidenceAudio, EvidenceVideo, EvidenceText}

func (t EvidenceType) Valid() bool { return oneOf(t, EvidenceTypes) }

// NotificationType classifies a notification.
type NotificationType string

const (
	NotifyThreatAlert       NotificationType = "threat_alert"
	NotifyConnectionRequest NotificationType = "connection_request"
	NotifyMessage           NotificationType = "message"
	NotifySystemUpdate      NotificationType = "system_update"
	NotifyLegalGuidance     NotificationType = "legal_guidance"
	NotifySupportResource   NotificationType = "support_resource"
)

// NotificationTypes lists the allowed notification types.
var NotificationTypes = []NotificationType{
	NotifyThreatAlert, NotifyConnectionRequest, NotifyMessage,
	NotifySystemUpdate, NotifyLegalGuidance, NotifySupportResource,
}

func (t NotificationType) Valid() bool { return oneOf(t, NotificationTypes) }

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists the allowed priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool { return oneOf(p, Priorities) }

// Profession of a professional profile.
type Profession string

const (
	ProfessionAdvocate  Profession = "Advocate"
	ProfessionPolice    Profession = "Police"
	ProfessionDoctor    Profession = "Doctor"
	ProfessionEngineer  Profession = "Engineer"
	ProfessionCounselor Profession = "Counselor"
	ProfessionLegalAid  Profession = "Legal_Aid"
	ProfessionOther     Profession = "Other"
)

// Professions lists the allowed professions.
var Professions = []Profession{
	ProfessionAdvocate, ProfessionPolice, ProfessionDoctor, ProfessionEngineer,
	ProfessionCounselor, ProfessionLegalAid, ProfessionOther,
}

func (p Profession) Valid() bool { return oneOf(p, Professions) }

// VerificationStatus of a professional profile.
// pending -> verified | rejected, never back.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// VerificationStatuses lists the allowed verification states.
var VerificationStatuses = []VerificationStatus{VerificationPending, VerificationVerified, VerificationRejected}

func (s VerificationStatus) Valid() bool { return oneOf(s, VerificationStatuses) }

// Visibility of a user profile to other users.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityPrivate Visibility = "private"
)

// Visibilities lists the allowed profile visibilities.
var Visibilities = []Visibility{VisibilityPublic, VisibilityFriends, VisibilityPrivate}

func (v Visibility) Valid() bool { return oneOf(v, Visibilities) }
