package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebastos1/auth/internal/store/core"
)

func seedCode(t *testing.T, s *Store, code string) *core.AuthorizationCode {
	t.Helper()
	now := time.Now().UTC()
	ac := &core.AuthorizationCode{
		Code:                code,
		ClientID:            "client-a",
		UserID:              "user-1",
		RedirectURI:         "https://app.test/cb",
		Scopes:              "openid profile",
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "S256",
		ExpiresAt:           now.Add(core.AuthCodeTTL),
		CreatedAt:           now,
	}
	if err := s.CreateAuthorizationCode(context.Background(), ac); err != nil {
		t.Fatalf("seed code: %v", err)
	}
	return ac
}

func pair(suffix string) (*core.AccessToken, *core.RefreshToken) {
	now := time.Now().UTC()
	at := &core.AccessToken{
		Token:     "at-" + suffix,
		ClientID:  "client-a",
		UserID:    "user-1",
		Scopes:    "openid profile",
		ExpiresAt: now.Add(core.AccessTokenTTL),
		CreatedAt: now,
	}
	rt := &core.RefreshToken{
		Token:       "rt-" + suffix,
		AccessToken: at.Token,
		ClientID:    "client-a",
		UserID:      "user-1",
		Scopes:      "openid profile",
		ExpiresAt:   now.Add(core.RefreshTokenTTL),
		CreatedAt:   now,
	}
	return at, rt
}

func TestRedeemAuthorizationCode_SingleUse(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedCode(t, s, "code-1")

	at1, rt1 := pair("1")
	if err := s.RedeemAuthorizationCode(ctx, "code-1", at1, rt1); err != nil {
		t.Fatalf("first redeem: %v", err)
	}

	// Segunda redención del mismo code tiene que fallar.
	at2, rt2 := pair("2")
	err := s.RedeemAuthorizationCode(ctx, "code-1", at2, rt2)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second redeem: got %v, want ErrNotFound", err)
	}

	// Y no tiene que haber dejado tokens del segundo intento.
	if _, err := s.GetAccessToken(ctx, at2.Token); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("second redeem leaked an access token")
	}
	if _, err := s.GetAccessToken(ctx, at1.Token); err != nil {
		t.Fatalf("first pair missing: %v", err)
	}
	if _, err := s.GetRefreshToken(ctx, rt1.Token); err != nil {
		t.Fatalf("first refresh missing: %v", err)
	}
}

func TestRotateRefreshToken(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedCode(t, s, "code-1")
	at1, rt1 := pair("1")
	if err := s.RedeemAuthorizationCode(ctx, "code-1", at1, rt1); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	at2, rt2 := pair("2")
	if err := s.RotateRefreshToken(ctx, rt1, at2, rt2); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// Par viejo muerto, par nuevo vivo.
	if _, err := s.GetRefreshToken(ctx, rt1.Token); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("old refresh token survived rotation")
	}
	if _, err := s.GetAccessToken(ctx, at1.Token); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("old access token survived rotation")
	}
	if _, err := s.GetAccessToken(ctx, at2.Token); err != nil {
		t.Fatalf("new access token missing: %v", err)
	}

	// Replay del refresh viejo.
	at3, rt3 := pair("3")
	if err := s.RotateRefreshToken(ctx, rt1, at3, rt3); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("stale rotation: got %v, want ErrNotFound", err)
	}
}

func TestRevokeAccessToken_CascadesToRefresh(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedCode(t, s, "code-1")
	at, rt := pair("1")
	if err := s.RedeemAuthorizationCode(ctx, "code-1", at, rt); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	ok, err := s.RevokeAccessToken(ctx, at.Token, "client-a")
	if err != nil || !ok {
		t.Fatalf("revoke: ok=%v err=%v", ok, err)
	}
	if _, err := s.GetAccessToken(ctx, at.Token); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("access token survived revocation")
	}
	if _, err := s.GetRefreshToken(ctx, rt.Token); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("paired refresh token survived revocation")
	}
}

func TestRevokeRefreshToken_CascadesToAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedCode(t, s, "code-1")
	at, rt := pair("1")
	if err := s.RedeemAuthorizationCode(ctx, "code-1", at, rt); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	ok, err := s.RevokeRefreshToken(ctx, rt.Token, "client-a")
	if err != nil || !ok {
		t.Fatalf("revoke: ok=%v err=%v", ok, err)
	}
	if _, err := s.GetAccessToken(ctx, at.Token); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("paired access token survived revocation")
	}
}

func TestRevoke_ForeignClientIsNoop(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedCode(t, s, "code-1")
	at, rt := pair("1")
	if err := s.RedeemAuthorizationCode(ctx, "code-1", at, rt); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	ok, err := s.RevokeAccessToken(ctx, at.Token, "client-b")
	if err != nil {
		t.Fatalf("revoke err: %v", err)
	}
	if ok {
		t.Fatal("foreign client revoked a token it does not own")
	}
	if _, err := s.GetAccessToken(ctx, at.Token); err != nil {
		t.Fatalf("token should still exist: %v", err)
	}

	ok, err = s.RevokeRefreshToken(ctx, rt.Token, "client-b")
	if err != nil || ok {
		t.Fatalf("foreign refresh revoke: ok=%v err=%v", ok, err)
	}
}

func TestExpiry_FilteredAtReadTime(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedCode(t, s, "code-1")
	at, rt := pair("1")
	if err := s.RedeemAuthorizationCode(ctx, "code-1", at, rt); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	seedCode(t, s, "code-2")

	// Adelantar el reloj más allá de todos los TTL.
	s.SetNow(func() time.Time {
		return time.Now().UTC().Add(core.RefreshTokenTTL + time.Hour)
	})

	if _, err := s.GetAuthorizationCode(ctx, "code-2"); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("expired code still readable")
	}
	if _, err := s.GetAccessToken(ctx, at.Token); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("expired access token still readable")
	}
	if _, err := s.GetRefreshToken(ctx, rt.Token); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("expired refresh token still readable")
	}
}

func TestCreateUser_UniqueEmailAndUsername(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := &core.User{ID: "u1", Email: "a@b.c", Username: "alpha", IsActive: true}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	dupEmail := &core.User{ID: "u2", Email: "A@B.C", Username: "beta"}
	if err := s.CreateUser(ctx, dupEmail); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("dup email: got %v, want ErrConflict", err)
	}
	dupName := &core.User{ID: "u3", Email: "c@d.e", Username: "alpha"}
	if err := s.CreateUser(ctx, dupName); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("dup username: got %v, want ErrConflict", err)
	}
}

func TestUpdateUser_UniqueEmailAndUsername(t *testing.T) {
	s := New()
	ctx := context.Background()
	u1 := &core.User{ID: "u1", Email: "a@b.c", Username: "alpha", IsActive: true}
	u2 := &core.User{ID: "u2", Email: "c@d.e", Username: "beta", IsActive: true}
	for _, u := range []*core.User{u1, u2} {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("create %s: %v", u.ID, err)
		}
	}

	stolen := *u2
	stolen.Email = "A@B.C"
	if err := s.UpdateUser(ctx, &stolen); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("dup email on update: got %v, want ErrConflict", err)
	}
	stolen = *u2
	stolen.Username = "alpha"
	if err := s.UpdateUser(ctx, &stolen); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("dup username on update: got %v, want ErrConflict", err)
	}

	// Actualizarse a sí mismo conservando email/username propios no es conflicto.
	self := *u2
	self.Username = "beta2"
	if err := s.UpdateUser(ctx, &self); err != nil {
		t.Fatalf("self update: %v", err)
	}
	if got, err := s.GetUserByID(ctx, "u2"); err != nil || got.Username != "beta2" {
		t.Fatalf("after update: got %v err %v", got, err)
	}
}

func TestGetUserByLogin(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := &core.User{ID: "u1", Email: "a@b.c", Username: "alpha", IsActive: true}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	if got, err := s.GetUserByLogin(ctx, "A@B.C"); err != nil || got.ID != "u1" {
		t.Fatalf("by email: got %v err %v", got, err)
	}
	if got, err := s.GetUserByLogin(ctx, "alpha"); err != nil || got.ID != "u1" {
		t.Fatalf("by username: got %v err %v", got, err)
	}
	if _, err := s.GetUserByLogin(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown login: got %v", err)
	}
}
