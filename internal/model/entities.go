package model

import "time"

// Touchable is implemented by entities that carry an updated_at column.
type Touchable interface {
	Touch(now time.Time)
}

// User is a registered account.
// Users are soft-disabled through IsActive and only hard-deleted by an
// explicit DeleteUser, which cascades to everything the user owns.
type User struct {
	ID          string     `json:"id"`
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Email       string     `json:"email" validate:"required,email,max=254"`
	Phone       string     `json:"phone" validate:"required,phone"`
	UserType    UserType   `json:"user_type" validate:"enum"`
	Gender      Gender     `json:"gender" validate:"enum"`
	DateOfBirth time.Time  `json:"date_of_birth"`
	AvatarURL   string     `json:"avatar_url,omitempty" validate:"omitempty,max=2048"`
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (u *User) Touch(now time.Time) { u.UpdatedAt = now }

// UserConnection is a directed connection request between two users.
type UserConnection struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id" validate:"required"`
	RequestedID string           `json:"requested_id" validate:"required,nefield=RequesterID"`
	Status      ConnectionStatus `json:"status" validate:"enum"`
	Message     string           `json:"message,omitempty" validate:"max=500"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (c *UserConnection) Touch(now time.Time) { c.UpdatedAt = now }

// Involves reports whether userID is either side of the connection.
func (c *UserConnection) Involves(userID string) bool {
	return userID != "" && (c.RequesterID == userID || c.RequestedID == userID)
}

// Conversation is a two-party chat thread.
// Participant1ID is always the lexicographically smaller user id.
type Conversation struct {
	ID             string    `json:"id"`
	Participant1ID string    `json:"participant_1_id" validate:"required"`
	Participant2ID string    `json:"participant_2_id" validate:"required,nefield=Participant1ID"`
	LastMessageAt  time.Time `json:"last_message_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// UnreadCount is computed for the reading participant; it is not stored.
	UnreadCount int `json:"unread_count"`
}

func (c *Conversation) Touch(now time.Time) { c.UpdatedAt = now }

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.Participant1ID == userID || c.Participant2ID == userID)
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.Participant1ID == userID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

// OrderedPair returns a and b with the lexicographically smaller first.
func OrderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Message is an append-only chat message.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id" validate:"required"`
	SenderID       string      `json:"sender_id" validate:"required"`
	Text           string      `json:"message_text" validate:"required,max=5000"`
	Type           MessageType `json:"message_type" validate:"enum"`
	FileURL        string      `json:"file_url,omitempty" validate:"omitempty,max=2048"`
	IsRead         bool        `json:"is_read"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ThreatDetection is the persisted result of one classifier run.
type ThreatDetection struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"user_id" validate:"required"`
	ThreatType         ThreatType  `json:"threat_type" validate:"enum"`
	ThreatLevel        ThreatLevel `json:"threat_level" validate:"enum"`
	ContentAnalyzed    string      `json:"content_analyzed" validate:"required,max=10000"`
	ConfidenceScore    float64     `json:"confidence_score" validate:"gte=0,lte=1"`
	Explanation        string      `json:"explanation,omitempty"`
	RecommendedActions []string    `json:"recommended_actions,omitempty"`
	SourcePlatform     string      `json:"source_platform,omitempty" validate:"max=100"`
	SourceURL          string      `json:"source_url,omitempty" validate:"omitempty,max=2048"`
	IsVerified         bool        `json:"is_verified"`
	ActionTaken        ActionTaken `json:"action_taken" validate:"enum"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func (d *ThreatDetection) Touch(now time.Time) { d.UpdatedAt = now }

// Evidence is a stored file attached, optionally, to a detection.
// HashValue is written once at upload and never changes.
type Evidence struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user_id" validate:"required"`
	ThreatDetectionID *string      `json:"threat_detection_id,omitempty"`
	EvidenceType      EvidenceType `json:"evidence_type" validate:"enum"`
	FileName          string       `json:"file_name" validate:"required,max=255"`
	FileURL           string       `json:"file_url" validate:"required,max=2048"`
	FileSize          int64        `json:"file_size" validate:"gte=0"`
	MimeType          string       `json:"mime_type,omitempty" validate:"max=255"`
	Description       string       `json:"description,omitempty" validate:"max=1000"`
	IsEncrypted       bool         `json:"is_encrypted"`
	HashValue         string       `json:"hash_value" validate:"required,hexadecimal"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Notification is a message to a single user.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id" validate:"required"`
	Type      NotificationType  `json:"notification_type" validate:"enum"`
	Title     string            `json:"title" validate:"required,max=255"`
	Body      string            `json:"message" validate:"max=1000"`
	Priority  Priority          `json:"priority" validate:"enum"`
	IsRead    bool              `json:"is_read"`
	ActionURL string            `json:"action_url,omitempty" validate:"omitempty,max=2048"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// LegalGuidance is globally readable reference content.
type LegalGuidance struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title" validate:"required,max=255"`
	Category      string    `json:"category" yaml:"category" validate:"required,max=100"`
	Content       string    `json:"content" yaml:"content" validate:"required"`
	Jurisdiction  string    `json:"jurisdiction,omitempty" yaml:"jurisdiction"`
	IsActive      bool      `json:"is_active" yaml:"is_active"`
	PriorityOrder int       `json:"priority_order" yaml:"priority_order" validate:"gte=0"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

func (g *LegalGuidance) Touch(now time.Time) { g.UpdatedAt = now }

// SupportResource is a globally readable helpline, shelter, or service.
type SupportResource struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name" validate:"required,max=255"`
	ResourceType  string    `json:"resource_type" yaml:"resource_type" validate:"required,max=100"`
	Description   string    `json:"description,omitempty" yaml:"description"`
	ContactPhone  string    `json:"contact_phone,omitempty" yaml:"contact_phone"`
	ContactEmail  string    `json:"contact_email,omitempty" yaml:"contact_email" validate:"omitempty,email"`
	WebsiteURL    string    `json:"website_url,omitempty" yaml:"website_url" validate:"omitempty,url"`
	Address       string    `json:"address,omitempty" yaml:"address"`
	Availability  string    `json:"availability,omitempty" yaml:"availability"`
	IsEmergency   bool      `json:"is_emergency" yaml:"is_emergency"`
	Country       string    `json:"country,omitempty" yaml:"country"`
	StateProvince string    `json:"state_province,omitempty" yaml:"state_province"`
	City          string    `json:"city,omitempty" yaml:"city"`
	IsActive      bool      `json:"is_active" yaml:"is_active"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

func (r *SupportResource) Touch(now time.Time) { r.UpdatedAt = now }

// ProfessionalProfile is the one-to-one professional extension of a User.
type ProfessionalProfile struct {
	ID                    string             `json:"id"`
	UserID                string             `json:"user_id" validate:"required"`
	Profession            Profession         `json:"profession" validate:"enum"`
	LicenseNumber         string             `json:"license_number,omitempty" validate:"max=100"`
	Organization          string             `json:"organization,omitempty" validate:"max=255"`
	Specialization        string             `json:"specialization,omitempty" validate:"max=255"`
	YearsOfExperience     int                `json:"years_of_experience" validate:"gte=0,lte=80"`
	VerificationStatus    VerificationStatus `json:"verification_status" validate:"enum"`
	VerificationDocuments []string           `json:"verification_documents,omitempty" validate:"dive,required,max=2048"`
	AvailabilityHours     AvailabilityHours  `json:"availability_hours"`
	ConsultationFee       float64            `json:"consultation_fee" validate:"gte=0"`
	Rating                float64            `json:"rating" validate:"gte=0,lte=5"`
	TotalReviews          int                `json:"total_reviews" validate:"gte=0"`
	IsAvailable           bool               `json:"is_available"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

func (p *ProfessionalProfile) Touch(now time.Time) { p.UpdatedAt = now }

// Review is one reviewer's rating of one professional.
type Review struct {
	ID             string    `json:"id"`
	ReviewerID     string    `json:"reviewer_id" validate:"required"`
	ProfessionalID string    `json:"professional_id" validate:"required"`
	Rating         int       `json:"rating" validate:"gte=1,lte=5"`
	Text           string    `json:"review_text,omitempty" validate:"max=2000"`
	IsAnonymous    bool      `json:"is_anonymous"`
	CreatedAt      time.Time `json:"created_at"`
}

// EmergencyContact is a person to reach when the user is in danger.
type EmergencyContact struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id" validate:"required"`
	Name         string    `json:"contact_name" validate:"required,min=2,max=100"`
	Phone        string    `json:"contact_phone" validate:"required,min=10,phone"`
	Email        string    `json:"contact_email,omitempty" validate:"omitempty,email"`
	Relationship string    `json:"relationship,omitempty" validate:"max=50"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *EmergencyContact) Touch(now time.Time) { c.UpdatedAt = now }
