package goAccount_test

import (
	"context"
	"strings"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
)

func TestRegisterIssuesTokenAndRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res := env.register(t, "Ann", "ann@x.io", "User")
	if res.Token == "" {
		t.Fatal("expected a token")
	}
	if res.User.PasswordHash != "" {
		t.Fatal("registration result must not carry the password hash")
	}

	u, err := env.engine.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if u.Email != "ann@x.io" || u.Role != goAccount.RoleUser {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !strings.HasPrefix(u.PasswordHash, "$argon2id$") {
		t.Fatalf("expected stored argon2id digest, got %q", u.PasswordHash)
	}

	_, err = env.engine.Register(ctx, goAccount.RegisterRequest{Name: "Ann", Email: "ANN@x.io", Password: "Secret1!", Role: "User"})
	expectErr(t, err, goAccount.ErrEmailExists)
	if goAccount.CategoryOf(err) != goAccount.CategoryConflict {
		t.Fatalf("expected conflict category, got %s", goAccount.CategoryOf(err))
	}

	if got := env.engine.MetricsSnapshot().Counters[goAccount.MetricRegisterDuplicate]; got != 1 {
		t.Fatalf("expected 1 duplicate, got %d", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  goAccount.RegisterRequest
		want error
	}{
		{"missing name", goAccount.RegisterRequest{Email: "a@x.io", Password: "Secret1!", Role: "User"}, goAccount.ErrMissingFields},
		{"missing role", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Password: "Secret1!"}, goAccount.ErrMissingFields},
		{"missing password", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Role: "User"}, goAccount.ErrMissingFields},
		{"bad email", goAccount.RegisterRequest{Name: "A", Email: "a@x", Password: "Secret1!", Role: "User"}, goAccount.ErrInvalidEmail},
		{"no digit", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Password: "Secret!!", Role: "User"}, goAccount.ErrWeakPassword},
		{"no special", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Password: "Secret11", Role: "User"}, goAccount.ErrWeakPassword},
		{"too short", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Password: "Se1!", Role: "User"}, goAccount.ErrWeakPassword},
		{"foreign char", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Password: "Secret1!#", Role: "User"}, goAccount.ErrWeakPassword},
		{"bad role", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Password: "Secret1!", Role: "Root"}, goAccount.ErrInvalidRole},
		{"lowercase role", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Password: "Secret1!", Role: "user"}, goAccount.ErrInvalidRole},
		{"admin signup", goAccount.RegisterRequest{Name: "A", Email: "a@x.io", Password: "Secret1!", Role: "Admin"}, goAccount.ErrRoleNotAllowed},
	}
	for _, tc := range cases {
		_, err := env.engine.Register(ctx, tc.req)
		if err == nil || err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	users, _ := env.users.ListUsers(ctx)
	if len(users) != 0 {
		t.Fatalf("validation failures must not touch the store, found %d users", len(users))
	}
}

func TestRegisterAdminWhenAllowed(t *testing.T) {
	env := newTestEnv(t, func(cfg *goAccount.Config) { cfg.Account.AllowAdminSignup = true })
	res := env.register(t, "Ann", "ann@x.io", "Admin")
	if res.User.Role != goAccount.RoleAdmin {
		t.Fatalf("expected Admin, got %s", res.User.Role)
	}
}

func TestEnsureAdminIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.engine.EnsureAdmin(ctx, "Root", "root@example.com", "Secret1!")
	if err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	second, err := env.engine.EnsureAdmin(ctx, "Root", "root@example.com", "Secret1!")
	if err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}
	if first.ID != second.ID || second.Role != goAccount.RoleAdmin {
		t.Fatalf("expected same admin, got %+v and %+v", first, second)
	}

	env.register(t, "Bob", "bob@x.io", "Guest")
	promoted, err := env.engine.EnsureAdmin(ctx, "Bob", "bob@x.io", "Secret1!")
	if err != nil {
		t.Fatalf("EnsureAdmin promote failed: %v", err)
	}
	if promoted.Role != goAccount.RoleAdmin {
		t.Fatalf("expected promotion to Admin, got %s", promoted.Role)
	}
}

func TestDeleteScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	ann := env.register(t, "Ann", "ann@x.io", "User")
	_, err := env.engine.Register(ctx, goAccount.RegisterRequest{Name: "Ann", Email: "ann@x.io", Password: "Secret1!", Role: "User"})
	expectErr(t, err, goAccount.ErrEmailExists)

	_, err = env.engine.Login(ctx, "ann@x.io", "Wrong11!")
	expectErr(t, err, goAccount.ErrInvalidCredentials)

	caller, err := env.engine.Authenticate(ctx, ann.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	expectErr(t, env.engine.DeleteUser(ctx, caller, ann.User.ID), goAccount.ErrForbidden)

	admin := env.admin(t)
	if err := env.engine.DeleteUser(ctx, admin, ann.User.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}

	_, err = env.engine.GetProfile(ctx, ann.User.ID)
	expectErr(t, err, goAccount.ErrUserNotFound)

	// The deleted user's token is still signed and unexpired but no longer
	// resolves to an account.
	_, err = env.engine.Authenticate(ctx, ann.Token)
	expectErr(t, err, goAccount.ErrUnauthorized)

	expectErr(t, env.engine.DeleteUser(ctx, admin, ann.User.ID), goAccount.ErrUserNotFound)
	expectErr(t, env.engine.DeleteUser(ctx, admin, admin.ID), goAccount.ErrSelfDelete)
	expectErr(t, env.engine.DeleteUser(ctx, nil, admin.ID), goAccount.ErrUnauthorized)
}

func TestProfileReadAndUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	ann := env.register(t, "Ann", "ann@x.io", "User")
	env.register(t, "Bob", "bob@x.io", "User")

	p, err := env.engine.GetProfile(ctx, ann.User.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.PasswordHash != "" {
		t.Fatal("profile must not carry the password hash")
	}

	_, err = env.engine.UpdateProfile(ctx, ann.User.ID, goAccount.ProfileUpdate{})
	expectErr(t, err, goAccount.ErrEmptyUpdate)

	bad := "not-an-email"
	_, err = env.engine.UpdateProfile(ctx, ann.User.ID, goAccount.ProfileUpdate{Email: &bad})
	expectErr(t, err, goAccount.ErrInvalidEmail)

	blank := "   "
	_, err = env.engine.UpdateProfile(ctx, ann.User.ID, goAccount.ProfileUpdate{Name: &blank})
	expectErr(t, err, goAccount.ErrInvalidName)

	taken := "bob@x.io"
	_, err = env.engine.UpdateProfile(ctx, ann.User.ID, goAccount.ProfileUpdate{Email: &taken})
	expectErr(t, err, goAccount.ErrEmailExists)

	name, email := "Ann Lee", "Ann.Lee@x.io"
	u, err := env.engine.UpdateProfile(ctx, ann.User.ID, goAccount.ProfileUpdate{Name: &name, Email: &email})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if u.Name != "Ann Lee" || u.Email != "ann.lee@x.io" || u.Role != goAccount.RoleUser {
		t.Fatalf("unexpected profile: %+v", u)
	}

	_, err = env.engine.UpdateProfile(ctx, "missing", goAccount.ProfileUpdate{Name: &name})
	expectErr(t, err, goAccount.ErrUserNotFound)
}

func TestListUsersAdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	ann := env.register(t, "Ann", "ann@x.io", "User")
	caller, _ := env.engine.Authenticate(ctx, ann.Token)
	_, err := env.engine.ListUsers(ctx, caller)
	expectErr(t, err, goAccount.ErrForbidden)

	admin := env.admin(t)
	users, err := env.engine.ListUsers(ctx, admin)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Fatalf("listed user %s carries a password hash", u.Email)
		}
	}
}
