// Package policy is the row-level access policy evaluator.
//
// Authorize is a pure function of (principal, operation, row). It never
// touches the store and never reads ambient request state: the principal is
// always an explicit argument. Anything the table below does not grant is
// denied.
//
//	Entity                         read                        write
//	User                           principal == id             principal == id; create always
//	UserConnection                 requester or requested      create: requester; update: either; delete: none
//	Conversation                   participant                 create: participant
//	Message                        participant of conversation create: sender and participant
//	ThreatDetection, Evidence,
//	Notification, UserSettings,
//	EmergencyContact               user_id                     all: user_id
//	ProfessionalProfile            verified or owner           all: owner
//	Review                         anyone                      create: reviewer
//	LegalGuidance, SupportResource anyone                      none
//
// An empty principal is anonymous and only passes "anyone" rules.
package policy

import (
	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
)

// Operation is the kind of access requested.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Operations lists every operation in evaluation order.
var Operations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}

// Decision is the outcome of Authorize.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// MessageInConversation is the resource for message access: a message is
// only meaningful together with the conversation it belongs to.
type MessageInConversation struct {
	Message      model.Message
	Conversation model.Conversation
}

// Authorize decides whether principal may perform op on r.
// r is a model row (value or pointer) or a MessageInConversation.
// Unknown resource types are denied.
func Authorize(principal string, op Operation, r any) Decision {
	switch v := r.(type) {
	case model.User:
		return authorizeUser(principal, op, v)
	case *model.User:
		return authorizeUser(principal, op, *v)
	case model.UserConnection:
		return authorizeConnection(principal, op, v)
	case *model.UserConnection:
		return authorizeConnection(principal, op, *v)
	case model.Conversation:
		return authorizeConversation(principal, op, v)
	case *model.Conversation:
		return authorizeConversation(principal, op, *v)
	case MessageInConversation:
		return authorizeMessage(principal, op, v)
	case *MessageInConversation:
		return authorizeMessage(principal, op, *v)
	case model.ThreatDetection:
		return owner(principal, v.UserID)
	case *model.ThreatDetection:
		return owner(principal, v.UserID)
	case model.Evidence:
		return owner(principal, v.UserID)
	case *model.Evidence:
		return owner(principal, v.UserID)
	case model.Notification:
		return owner(principal, v.UserID)
	case *model.Notification:
		return owner(principal, v.UserID)
	case model.UserSettings:
		return owner(principal, v.UserID)
	case *model.UserSettings:
		return owner(principal, v.UserID)
	case model.EmergencyContact:
		return owner(principal, v.UserID)
	case *model.EmergencyContact:
		return owner(principal, v.UserID)
	case model.ProfessionalProfile:
		return authorizeProfile(principal, op, v)
	case *model.ProfessionalProfile:
		return authorizeProfile(principal, op, *v)
	case model.Review:
		return authorizeReview(principal, op, v)
	case *model.Review:
		return authorizeReview(principal, op, *v)
	case model.LegalGuidance, *model.LegalGuidance, model.SupportResource, *model.SupportResource:
		return Decision(op == OpRead)
	default:
		return Deny
	}
}

// Check is Authorize for callers that want an error: a deny becomes
// apperr.Denied naming the entity and the id the caller asked for.
func Check(principal string, op Operation, r any, id string) error {
	if Authorize(principal, op, r) {
		return nil
	}
	return apperr.Denied(EntityName(r), id)
}

// owner is the "principal == user_id" rule. The anonymous principal owns nothing.
func owner(principal, userID string) Decision {
	return Decision(principal != "" && principal == userID)
}

func authorizeUser(principal string, op Operation, u model.User) Decision {
	if op == OpCreate {
		return Allow
	}
	return owner(principal, u.ID)
}

func authorizeConnection(principal string, op Operation, c model.UserConnection) Decision {
	switch op {
	case OpCreate:
		return owner(principal, c.RequesterID)
	case OpRead, OpUpdate:
		return Decision(c.Involves(principal))
	default:
		return Deny
	}
}

func authorizeConversation(principal string, op Operation, c model.Conversation) Decision {
	switch op {
	case OpCreate, OpRead:
		return Decision(c.HasParticipant(principal))
	default:
		return Deny
	}
}

func authorizeMessage(principal string, op Operation, m MessageInConversation) Decision {
	if m.Message.ConversationID != m.Conversation.ID {
		return Deny
	}
	participant := m.Conversation.HasParticipant(principal)
	switch op {
	case OpRead:
		return Decision(participant)
	case OpCreate:
		return Decision(participant && m.Message.SenderID == principal)
	default:
		return Deny
	}
}

func authorizeProfile(principal string, op Operation, p model.ProfessionalProfile) Decision {
	if op == OpRead && p.VerificationStatus == model.VerificationVerified {
		return Allow
	}
	return owner(principal, p.UserID)
}

func authorizeReview(principal string, op Operation, r model.Review) Decision {
	switch op {
	case OpRead:
		return Allow
	case OpCreate:
		return owner(principal, r.ReviewerID)
	default:
		return Deny
	}
}

// EntityName returns the snake_case entity name of a resource.
func EntityName(r any) string {
	switch r.(type) {
	case model.User, *model.User:
		return "user"
	case model.UserConnection, *model.UserConnection:
		return "user_connection"
	case model.Conversation, *model.Conversation:
		return "conversation"
	case MessageInConversation, *MessageInConversation, model.Message, *model.Message:
		return "message"
	case model.ThreatDetection, *model.ThreatDetection:
		return "threat_detection"
	case model.Evidence, *model.Evidence:
		return "evidence"
	case model.Notification, *model.Notification:
		return "notification"
	case model.UserSettings, *model.UserSettings:
		return "user_settings"
	case model.EmergencyContact, *model.EmergencyContact:
		return "emergency_contact"
	case model.ProfessionalProfile, *model.ProfessionalProfile:
		return "professional_profile"
	case model.Review, *model.Review:
		return "review"
	case model.LegalGuidance, *model.LegalGuidance:
		return "legal_guidance"
	case model.SupportResource, *model.SupportResource:
		return "support_resource"
	default:
		return "unknown"
	}
}
