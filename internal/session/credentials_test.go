package session

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestStaticCredentials_Check(t *testing.T) {
	creds, err := NewStaticCredentials(bcrypt.MinCost, DefaultAccounts()...)
	if err != nil {
		t.Fatalf("NewStaticCredentials: %v", err)
	}

	tests := []struct {
		username string
		password string
		wantID   string
	}{
		{"admin", "admin", "1"},
		{"ADMIN", "admin", "1"},
		{"staff", "staff", "2"},
		{"dentist", "dentist", "3"},
		{"admin", "Admin", ""},
		{"admin", "wrong", ""},
		{"ghost", "admin", ""},
	}
	for _, tt := range tests {
		u, err := creds.Check(context.Background(), tt.username, tt.password)
		if err != nil {
			t.Fatalf("Check(%q): %v", tt.username, err)
		}
		if tt.wantID == "" {
			if u != nil {
				t.Errorf("Check(%q, %q): expected no match, got %+v", tt.username, tt.password, u)
			}
			continue
		}
		if u == nil || u.ID != tt.wantID {
			t.Errorf("Check(%q, %q): expected id %s, got %+v", tt.username, tt.password, tt.wantID, u)
		}
	}
}

func TestStaticCredentials_RejectsIncompleteAccount(t *testing.T) {
	_, err := NewStaticCredentials(bcrypt.MinCost, Account{User: User{Username: "x", Role: RoleStaff}, Password: "x"})
	if err == nil {
		t.Error("expected error for account without id")
	}
}

func TestStaticCredentials_CanceledContext(t *testing.T) {
	creds, _ := NewStaticCredentials(bcrypt.MinCost, DefaultAccounts()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := creds.Check(ctx, "admin", "admin"); err == nil {
		t.Error("expected error for canceled context")
	}
}
