package harness

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/service"
)

// opFunc runs one operation and returns the id of the row it produced or
// touched, if any.
type opFunc func(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error)

var ops = map[string]opFunc{
	"register_user":               opRegisterUser,
	"get_user":                    opGetUser,
	"delete_user":                 opDeleteUser,
	"send_connection_request":     opSendConnectionRequest,
	"respond_to_connection":       opRespondToConnection,
	"get_connection":              opGetConnection,
	"create_conversation":         opCreateConversation,
	"send_message":                opSendMessage,
	"analyze_content":             opAnalyzeContent,
	"update_settings":             opUpdateSettings,
	"add_emergency_contact":       opAddEmergencyContact,
	"create_professional_profile": opCreateProfessionalProfile,
	"verify_professional":         opVerifyProfessional,
	"create_review":               opCreateReview,
	"mark_all_notifications_read": opMarkAllNotificationsRead,
}

func decodeArgs(n *yaml.Node, v any) error {
	if n == nil || n.Kind == 0 {
		return nil
	}
	if err := n.Decode(v); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}

func opRegisterUser(ctx context.Context, h *Harness, _ string, args *yaml.Node) (string, error) {
	a := struct {
		Name        string `yaml:"name"`
		Email       string `yaml:"email"`
		Phone       string `yaml:"phone"`
		UserType    string `yaml:"user_type"`
		Gender      string `yaml:"gender"`
		DateOfBirth string `yaml:"date_of_birth"`
	}{UserType: string(model.UserTypeStudent), Gender: string(model.GenderOther), DateOfBirth: "2000-01-01"}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	dob, err := time.Parse(time.DateOnly, a.DateOfBirth)
	if err != nil {
		return "", fmt.Errorf("date_of_birth: %w", err)
	}
	u, err := h.svc.RegisterUser(ctx, service.RegisterUserInput{
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		UserType:    model.UserType(a.UserType),
		Gender:      model.Gender(a.Gender),
		DateOfBirth: dob,
	})
	return u.ID, err
}

func opGetUser(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		User string `yaml:"user"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	u, err := h.svc.GetUser(ctx, principal, h.ref(a.User))
	return u.ID, err
}

func opDeleteUser(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		User string `yaml:"user"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	return "", h.svc.DeleteUser(ctx, principal, h.ref(a.User))
}

func opSendConnectionRequest(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		To      string `yaml:"to"`
		Message string `yaml:"message"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	c, err := h.svc.SendConnectionRequest(ctx, principal, h.ref(a.To), a.Message)
	return c.ID, err
}

func opRespondToConnection(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		Connection string `yaml:"connection"`
		Status     string `yaml:"status"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	c, err := h.svc.RespondToConnection(ctx, principal, h.ref(a.Connection), model.ConnectionStatus(a.Status))
	return c.ID, err
}

func opGetConnection(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		Connection string `yaml:"connection"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	c, err := h.svc.GetConnection(ctx, principal, h.ref(a.Connection))
	return c.ID, err
}

func opCreateConversation(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		With string `yaml:"with"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	c, err := h.svc.CreateConversation(ctx, principal, h.ref(a.With))
	return c.ID, err
}

func opSendMessage(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		Conversation string `yaml:"conversation"`
		Text         string `yaml:"text"`
		Type         string `yaml:"type"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	m, err := h.svc.SendMessage(ctx, principal, service.SendMessageInput{
		ConversationID: h.ref(a.Conversation),
		Text:           a.Text,
		Type:           model.MessageType(a.Type),
	})
	return m.ID, err
}

func opAnalyzeContent(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		Content  string `yaml:"content"`
		Platform string `yaml:"platform"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	d, err := h.svc.AnalyzeContent(ctx, principal, service.AnalyzeInput{Content: a.Content, SourcePlatform: a.Platform})
	return d.ID, err
}

func opUpdateSettings(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		ThreatDetection *bool `yaml:"threat_detection_enabled"`
		Notifications   *struct {
			ThreatAlerts       bool `yaml:"threat_alerts"`
			ConnectionRequests bool `yaml:"connection_requests"`
			Messages           bool `yaml:"messages"`
			SystemUpdates      bool `yaml:"system_updates"`
		} `yaml:"notification_preferences"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	in := service.UpdateSettingsInput{ThreatDetectionEnabled: a.ThreatDetection}
	if a.Notifications != nil {
		in.NotificationPreferences = &model.NotificationPreferences{
			ThreatAlerts:       a.Notifications.ThreatAlerts,
			ConnectionRequests: a.Notifications.ConnectionRequests,
			Messages:           a.Notifications.Messages,
			SystemUpdates:      a.Notifications.SystemUpdates,
		}
	}
	st, err := h.svc.UpdateSettings(ctx, principal, in)
	return st.ID, err
}

func opAddEmergencyContact(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		Name         string `yaml:"name"`
		Phone        string `yaml:"phone"`
		Email        string `yaml:"email"`
		Relationship string `yaml:"relationship"`
		Primary      bool   `yaml:"primary"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	c, err := h.svc.AddEmergencyContact(ctx, principal, service.ContactInput{
		Name:         a.Name,
		Phone:        a.Phone,
		Email:        a.Email,
		Relationship: a.Relationship,
		IsPrimary:    a.Primary,
	})
	return c.ID, err
}

func opCreateProfessionalProfile(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		Profession string  `yaml:"profession"`
		Years      int     `yaml:"years_of_experience"`
		Fee        float64 `yaml:"consultation_fee"`
		Available  bool    `yaml:"is_available"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	p, err := h.svc.CreateProfessionalProfile(ctx, principal, service.ProfileInput{
		Profession:        model.Profession(a.Profession),
		YearsOfExperience: a.Years,
		ConsultationFee:   a.Fee,
		IsAvailable:       a.Available,
	})
	return p.ID, err
}

func opVerifyProfessional(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		Profile string `yaml:"profile"`
		Status  string `yaml:"status"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	p, err := h.svc.VerifyProfessional(ctx, principal, h.ref(a.Profile), model.VerificationStatus(a.Status))
	return p.ID, err
}

func opCreateReview(ctx context.Context, h *Harness, principal string, args *yaml.Node) (string, error) {
	var a struct {
		Profile   string `yaml:"profile"`
		Rating    int    `yaml:"rating"`
		Text      string `yaml:"text"`
		Anonymous bool   `yaml:"anonymous"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	r, err := h.svc.CreateReview(ctx, principal, service.ReviewInput{
		ProfessionalID: h.ref(a.Profile),
		Rating:         a.Rating,
		Text:           a.Text,
		IsAnonymous:    a.Anonymous,
	})
	return r.ID, err
}

func opMarkAllNotificationsRead(ctx context.Context, h *Harness, principal string, _ *yaml.Node) (string, error) {
	_, err := h.svc.MarkAllNotificationsRead(ctx, principal)
	return "", err
}
