package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studio_production_backend/internal/auth/transport"
	identitydomain "studio_production_backend/internal/identity/domain"
	identityrepo "studio_production_backend/internal/identity/repository"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/logger"
)

const testSecret = "test-secret"

type fakeUsers struct {
	byEmail map[string]identityrepo.User
	byID    map[uuid.UUID]identityrepo.User
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (identityrepo.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return identityrepo.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (identityrepo.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return identityrepo.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

type fakeAuthConfig struct{}

func (fakeAuthConfig) GetJWTAccessSecret() string { return testSecret }

func (fakeAuthConfig) GetAccessTokenTTL() time.Duration { return 15 * time.Minute }

func newAuthService(t *testing.T) (*Service, identityrepo.User) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	user := identityrepo.User{
		ID:           uuid.New(),
		Name:         "Asha Producer",
		Email:        "asha@example.org",
		PasswordHash: string(hash),
		Role:         identitydomain.GlobalManagerProgram,
	}
	users := &fakeUsers{
		byEmail: map[string]identityrepo.User{user.Email: user},
		byID:    map[uuid.UUID]identityrepo.User{user.ID: user},
	}
	return New(users, fakeAuthConfig{}, logger.New("test")), user
}

func TestLoginIssuesAccessToken(t *testing.T) {
	svc, user := newAuthService(t)

	resp, err := svc.Login(context.Background(), transport.LoginRequest{
		Email: user.Email, Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.User.ID != user.ID || resp.User.Role != user.Role {
		t.Error("response must carry the user profile")
	}
	if resp.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("ExpiresIn = %d, want %d", resp.ExpiresIn, int64((15 * time.Minute).Seconds()))
	}

	parsed, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claims["sub"] != user.ID.String() {
		t.Errorf("sub = %v, want %s", claims["sub"], user.ID)
	}
	if claims["role"] != user.Role {
		t.Errorf("role = %v, want %s", claims["role"], user.Role)
	}
	if claims["type"] != "access" {
		t.Errorf("type = %v, want access", claims["type"])
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, user := newAuthService(t)

	_, err := svc.Login(context.Background(), transport.LoginRequest{
		Email: user.Email, Password: "wrong-password-here",
	})
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

// Unknown emails and wrong passwords must be indistinguishable.
func TestLoginUnknownEmailSameError(t *testing.T) {
	svc, user := newAuthService(t)

	_, wrongPass := svc.Login(context.Background(), transport.LoginRequest{
		Email: user.Email, Password: "wrong-password-here",
	})
	_, unknownEmail := svc.Login(context.Background(), transport.LoginRequest{
		Email: "nobody@example.org", Password: "correct-horse-battery",
	})
	if wrongPass == nil || unknownEmail == nil {
		t.Fatal("both attempts must fail")
	}
	if wrongPass.Error() != unknownEmail.Error() {
		t.Errorf("error messages differ: %q vs %q", wrongPass, unknownEmail)
	}
}

func TestMe(t *testing.T) {
	svc, user := newAuthService(t)

	resp, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Email != user.Email || resp.Name != user.Name {
		t.Error("profile mismatch")
	}

	if _, err := svc.Me(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
