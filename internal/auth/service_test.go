package auth

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/atelierjamel/traiteur-backend/pkg/auth"
	"github.com/atelierjamel/traiteur-backend/pkg/config"
	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*models.User{}}
}

func (s *stubUserRepo) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[strings.ToLower(email)]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindUser(_ context.Context, userID uuid.UUID) (*models.User, error) {
	for _, user := range s.byEmail {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "traiteur-backend", ExpirationMinutes: 60}
}

// Small parameters keep the Argon2id work cheap in tests.
func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16}
}

func newAuthService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, testJWTConfig(), testPasswordConfig(), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestRegisterThenLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		Email:    " Jamel@Atelier.dz ",
		Password: "correct horse",
		Name:     "Jamel",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Email != "jamel@atelier.dz" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.PasswordHash == "correct horse" || created.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}

	result, err := svc.Login(ctx, LoginInput{Email: "JAMEL@atelier.dz", Password: "correct horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if result.User.ID != created.ID {
		t.Fatalf("expected user %s, got %s", created.ID, result.User.ID)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != created.ID || claims.Email != created.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "staff@atelier.dz", Password: "correct horse"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name  string
		input LoginInput
	}{
		{"unknownEmail", LoginInput{Email: "nobody@atelier.dz", Password: "correct horse"}},
		{"wrongPassword", LoginInput{Email: "staff@atelier.dz", Password: "wrong horse"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			coded := pkgerrors.As(err)
			if coded == nil || coded.Message() != "invalid credentials" {
				t.Fatalf("expected the uniform message, got %v", err)
			}
		})
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "staff@atelier.dz", Password: "correct horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user.IsActive = false

	_, err = svc.Login(ctx, LoginInput{Email: "staff@atelier.dz", Password: "correct horse"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "", Password: "correct horse"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty email, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "staff@atelier.dz", Password: "short"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}
