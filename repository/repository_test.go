package repository

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/database"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

func openDB(t *testing.T) *database.DB {
	t.Helper()
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatal(err)
	}
	db, err := database.New(filepath.Join(t.TempDir(), "repo.db"), migrations, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo UserRepository, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "hash"}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestUserCreateAndLookup(t *testing.T) {
	repo := NewSQLiteUserRepo(openDB(t).Conn)
	ctx := context.Background()

	name := "Ada Lovelace"
	u := &models.User{Email: "ada@example.com", PasswordHash: "hash", FullName: &name}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() || u.Role != models.RoleUser {
		t.Errorf("created = %+v", u)
	}

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if byEmail.ID != u.ID || byEmail.FullName == nil || *byEmail.FullName != name {
		t.Errorf("by email = %+v", byEmail)
	}

	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil || byID.Email != "ada@example.com" {
		t.Errorf("by id = %+v, %v", byID, err)
	}

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("missing email err = %v", err)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	repo := NewSQLiteUserRepo(openDB(t).Conn)
	createUser(t, repo, "ada@example.com")

	err := repo.Create(context.Background(), &models.User{Email: "ada@example.com", PasswordHash: "x"})
	if !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestUserRoleUpdateAndList(t *testing.T) {
	repo := NewSQLiteUserRepo(openDB(t).Conn)
	ctx := context.Background()
	ada := createUser(t, repo, "ada@example.com")
	createUser(t, repo, "bob@example.com")

	if err := repo.UpdateRole(ctx, ada.ID, models.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateRole(ctx, "missing", models.RoleAdmin); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d", len(users))
	}
	roles := map[string]models.Role{}
	for _, u := range users {
		roles[u.Email] = u.Role
	}
	if roles["ada@example.com"] != models.RoleAdmin || roles["bob@example.com"] != models.RoleUser {
		t.Errorf("roles = %v", roles)
	}

	if n, err := repo.Count(ctx); err != nil || n != 2 {
		t.Errorf("count = %d, %v", n, err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := openDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	sessions := NewSQLiteSessionRepo(db.Conn)
	ctx := context.Background()
	u := createUser(t, users, "ada@example.com")
	now := time.Now()

	live := &models.SessionRecord{UserID: u.ID, RefreshToken: "live", ExpiresAt: now.Add(time.Hour)}
	dead := &models.SessionRecord{UserID: u.ID, RefreshToken: "dead", ExpiresAt: now.Add(-time.Minute)}
	for _, s := range []*models.SessionRecord{live, dead} {
		if err := sessions.Create(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	got, err := sessions.GetByRefreshToken(ctx, "live")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != live.ID || got.UserID != u.ID || got.ExpiresAt.Sub(live.ExpiresAt).Abs() > time.Millisecond {
		t.Errorf("got = %+v, want %+v", got, live)
	}

	n, err := sessions.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Errorf("DeleteExpired = %d, %v; want 1", n, err)
	}
	if _, err := sessions.GetByRefreshToken(ctx, "dead"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expired session still present: %v", err)
	}

	if err := sessions.Create(ctx, &models.SessionRecord{UserID: u.ID, RefreshToken: "live", ExpiresAt: now}); !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Errorf("duplicate token err = %v", err)
	}

	if err := sessions.DeleteByUserID(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if list, _ := sessions.ListByUserID(ctx, u.ID); len(list) != 0 {
		t.Errorf("sessions after DeleteByUserID = %d", len(list))
	}
}

func TestStoreWithTxRollsBackBothRepos(t *testing.T) {
	store := NewSQLiteStore(openDB(t).Conn)
	ctx := context.Background()
	u := createUser(t, store.Users(), "ada@example.com")

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx Store) error {
		if err := tx.Sessions().Create(ctx, &models.SessionRecord{
			UserID: u.ID, RefreshToken: "t1", ExpiresAt: time.Now().Add(time.Hour),
		}); err != nil {
			return err
		}
		if err := tx.Users().UpdateRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	if _, err := store.Sessions().GetByRefreshToken(ctx, "t1"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("session survived rollback: %v", err)
	}
	got, _ := store.Users().GetByID(ctx, u.ID)
	if got.Role != models.RoleUser {
		t.Errorf("role = %s after rollback", got.Role)
	}
}
