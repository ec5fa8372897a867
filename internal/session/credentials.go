package session

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Account seeds a StaticCredentials table.
type Account struct {
	User     User
	Password string
}

type credential struct {
	user User
	hash []byte
}

// StaticCredentials is a fixed, in-memory credential table. Passwords are
// kept only as bcrypt hashes; usernames match case-insensitively.
type StaticCredentials struct {
	byUsername map[string]credential
	// dummy is compared against when the username is unknown so both
	// outcomes cost one bcrypt comparison.
	dummy []byte
}

func NewStaticCredentials(cost int, accounts ...Account) (*StaticCredentials, error) {
	sc := &StaticCredentials{byUsername: make(map[string]credential, len(accounts))}
	for _, a := range accounts {
		if !a.User.valid() {
			return nil, fmt.Errorf("account %q is incomplete", a.User.Username)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", a.User.Username, err)
		}
		sc.byUsername[strings.ToLower(a.User.Username)] = credential{user: a.User, hash: hash}
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}
	sc.dummy = dummy
	return sc, nil
}

func (s *StaticCredentials) Check(ctx context.Context, username, password string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cred, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword(cred.hash, []byte(password)) != nil {
		return nil, nil
	}
	u := cred.user
	return &u, nil
}

// DefaultAccounts are the built-in clinic accounts.
func DefaultAccounts() []Account {
	return []Account{
		{User: User{ID: "1", Username: "admin", Role: RoleAdmin, DisplayName: "Quản trị viên"}, Password: "admin"},
		{User: User{ID: "2", Username: "staff", Role: RoleStaff, DisplayName: "Nhân viên"}, Password: "staff"},
		{User: User{ID: "3", Username: "dentist", Role: RoleDentist, DisplayName: "Bác sĩ"}, Password: "dentist"},
	}
}
