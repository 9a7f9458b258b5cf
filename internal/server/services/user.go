// Package services contains server-side business logic. This file implements
// UserService: signup, login and access-token issuance.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/server/auth"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/repomanager"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

const (
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is what a successful login or refresh returns.
type Session struct {
	AccessToken string
	ExpiresIn   int64
	User        *models.User
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenIssuer
}

func NewUserService(m repomanager.RepositoryManager, tokens *auth.TokenIssuer) *UserService {
	return &UserService{repomanager: m, tokens: tokens}
}

// Signup validates the input and creates the user. Email and username
// uniqueness is checked in the same transaction as the insert.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username, email, err := validateSignup(in)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, internalError("hash password", err)
	}

	var created *models.User
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx repomanager.Tx) error {
		repo := tx.Users()

		if _, err := repo.GetUserByEmail(ctx, email); err == nil {
			return common.Errorf(common.ErrorAlreadyExists, "Email already registered")
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if _, err := repo.GetUserByUsername(ctx, username); err == nil {
			return common.Errorf(common.ErrorAlreadyExists, "Username already taken")
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		u, err := repo.Create(ctx, &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.Errorf(common.ErrorAlreadyExists, "Email or username already registered")
			}
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Login checks the credentials and issues an access token. Unknown email,
// wrong password and inactive accounts all look the same to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Errorf(common.ErrorUnauthorized, "Incorrect email or password")
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) || !user.IsActive {
		return nil, common.Errorf(common.ErrorUnauthorized, "Incorrect email or password")
	}

	return s.session(user)
}

// Me returns the user behind an authenticated request.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Errorf(common.ErrorNotFound, "User not found")
		}
		return nil, err
	}
	return user, nil
}

// Refresh issues a fresh access token for an already authenticated user.
func (s *UserService) Refresh(ctx context.Context, userID string) (*Session, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, common.Errorf(common.ErrorUnauthorized, "Inactive user")
	}
	return s.session(user)
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, expiresIn, err := s.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, internalError("sign token", err)
	}
	return &Session{AccessToken: token, ExpiresIn: expiresIn, User: user}, nil
}

// internalError reports ErrorInternal to callers and keeps cause in the
// chain for the server log.
func internalError(op string, cause error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(common.ErrorInternal, cause))
}

func validateSignup(in SignupInput) (username, email string, err error) {
	username = strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return "", "", common.Errorf(common.ErrorValidation, "Username must be 3-50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return "", "", common.Errorf(common.ErrorValidation, "Username must contain only letters, numbers, and underscores")
	}

	email = normalizeEmail(in.Email)
	addr, perr := mail.ParseAddress(email)
	if perr != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", "", common.Errorf(common.ErrorValidation, "Invalid email address")
	}

	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return "", "", common.Errorf(common.ErrorValidation, "Password must be at least %d characters", minPasswordLen)
	}
	if len(in.Password) > maxPasswordBytes {
		return "", "", common.Errorf(common.ErrorValidation, "Password must be at most %d bytes", maxPasswordBytes)
	}

	return strings.ToLower(username), email, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
