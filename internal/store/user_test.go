// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	username := "test-create"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	user, err := s.Create(ctx, username, "testpass123", "Test User")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.Username != username {
		t.Errorf("username: got %q, want %q", user.Username, username)
	}
	if user.TOTPEnabled {
		t.Error("expected totp_enabled=false for new user")
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password must be stored hashed")
	}
}

func TestUserStoreFind(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	username := "test-find"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		t.Fatalf("FindByUsername (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for non-existent user")
	}

	created, err := s.Create(ctx, username, "password1", "Find Me")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	byName, err := s.FindByUsername(ctx, username)
	if err != nil || byName == nil {
		t.Fatalf("FindByUsername: %v, %v", byName, err)
	}
	byID, err := s.FindByID(ctx, created.ID)
	if err != nil || byID == nil {
		t.Fatalf("FindByID: %v, %v", byID, err)
	}
	if byName.ID != created.ID || byID.Username != username {
		t.Error("lookups returned a different user")
	}

	missing, err := s.FindByID(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("FindByID(random) = %v, %v", missing, err)
	}
}

func TestUserStorePasswords(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	username := "test-passwords"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	user, err := s.Create(ctx, username, "correct-password", "PW Check")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !s.CheckPassword(user, "correct-password") {
		t.Error("expected CheckPassword to return true for correct password")
	}
	if s.CheckPassword(user, "wrong-password") {
		t.Error("expected CheckPassword to return false for wrong password")
	}

	if err := s.SetPassword(ctx, user.ID, "brand-new-password"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	user, _ = s.FindByID(ctx, user.ID)
	if !s.CheckPassword(user, "brand-new-password") || s.CheckPassword(user, "correct-password") {
		t.Error("password was not replaced")
	}

	if err := s.SetPassword(ctx, uuid.New(), "whatever1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPassword(unknown) = %v, want ErrNotFound", err)
	}
}

func TestUserStoreTOTPLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	username := "test-totp"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	user, _ := s.Create(ctx, username, "password1", "TOTP User")
	if user.TOTPSecret != nil || user.TOTPEnabled {
		t.Fatal("expected no TOTP initially")
	}

	if err := s.SetTOTPSecret(ctx, user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	user, _ = s.FindByID(ctx, user.ID)
	if user.TOTPSecret == nil || *user.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("expected TOTP secret set, got %v", user.TOTPSecret)
	}
	if user.Requires2FA() {
		t.Error("2FA must not be required before it is enabled")
	}

	if err := s.EnableTOTP(ctx, user.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}
	user, _ = s.FindByID(ctx, user.ID)
	if !user.Requires2FA() {
		t.Error("expected 2FA required after EnableTOTP")
	}
}

func TestUserStoreDuplicateUsername(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	username := "test-dupe"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	if _, err := s.Create(ctx, username, "password1", "First"); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := s.Create(ctx, username, "password1", "Second"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second Create = %v, want ErrDuplicate", err)
	}
}
