package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/safeline/internal/model"
)

var testTime = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustTx runs fn in a transaction and fails the test on error.
func mustTx(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	if err := s.WithTx(context.Background(), fn); err != nil {
		t.Fatalf("WithTx() failed: %v", err)
	}
}

// testUser builds a user whose email and phone derive from id.
func testUser(id string) model.User {
	return model.User{
		ID:          id,
		Name:        "User " + id,
		Email:       id + "@example.com",
		Phone:       "+1555" + id,
		UserType:    model.UserTypeStudent,
		Gender:      model.GenderOther,
		DateOfBirth: time.Date(2000, time.March, 4, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	}
}

// seedUsers inserts a user for each id.
func seedUsers(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	mustTx(t, s, func(tx *Tx) error {
		for _, id := range ids {
			if err := tx.InsertUser(context.Background(), testUser(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func testConversation(id, a, b string) model.Conversation {
	p1, p2 := model.OrderedPair(a, b)
	return model.Conversation{
		ID:             id,
		Participant1ID: p1,
		Participant2ID: p2,
		LastMessageAt:  testTime,
		CreatedAt:      testTime,
		UpdatedAt:      testTime,
	}
}

func testProfile(id, userID string) model.ProfessionalProfile {
	return model.ProfessionalProfile{
		ID:                 id,
		UserID:             userID,
		Profession:         model.ProfessionCounselor,
		VerificationStatus: model.VerificationPending,
		IsAvailable:        true,
		CreatedAt:          testTime,
		UpdatedAt:          testTime,
	}
}
