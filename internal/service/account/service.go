package account

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/oggyb/bubbles/internal/app"
	"github.com/oggyb/bubbles/internal/auth"
	"github.com/oggyb/bubbles/internal/db"
	svcErr "github.com/oggyb/bubbles/internal/errors"
	"github.com/oggyb/bubbles/internal/repository"
)

// Service handles signup and login. Session tokens are HS256 JWTs carrying
// the user id; everything else in the API authenticates through them.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
	secret   string
}

func NewService(appCtx *app.AppContext, jwtSecret string) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
		secret:   jwtSecret,
	}
}

// Signup creates an account and returns the user plus a session token.
// The email must be unused; the username defaults to the email.
func (s *Service) Signup(ctx context.Context, email, password, username string) (*db.User, string, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", svcErr.InvalidArgument("email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	if username == "" {
		username = email
	}

	user := &db.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Version:      1,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := auth.Issue(s.secret, user)
	if err != nil {
		return nil, "", err
	}
	s.appCtx.Logger.Info("user signed up", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials and returns the user plus a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*db.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", svcErr.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", svcErr.ErrUnauthorized
	}

	token, err := auth.Issue(s.secret, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
