package biz

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/crypto/bcrypt"
)

// Lengths count characters, not bytes.
const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 6
)

// UserUseCase handles registration, login and preferences
type UserUseCase struct {
	repo     UserRepo
	tx       Transaction
	hashCost int
	log      *log.Helper
}

// NewUserUseCase creates a new UserUseCase instance
func NewUserUseCase(repo UserRepo, tx Transaction, logger log.Logger) *UserUseCase {
	return &UserUseCase{
		repo:     repo,
		tx:       tx,
		hashCost: bcrypt.DefaultCost,
		log:      log.NewHelper(logger),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. The email and username must both be unused.
func (uc *UserUseCase) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidArgument, minUsernameLen, maxUsernameLen)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		exists, err := uc.repo.UserExists(ctx, email, username)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if exists {
			return ErrDuplicateRegistration
		}
		return uc.repo.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Infof("registered user %s", user.ID)
	return user, nil
}

// Login checks credentials and returns the matching user.
func (uc *UserUseCase) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := uc.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetPreference stores the user's preferred genre, creating the preference
// on first use. A nil genre clears it.
func (uc *UserUseCase) SetPreference(ctx context.Context, userID string, genre *string) (*UserPreference, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if genre != nil {
		g := strings.TrimSpace(*genre)
		genre = &g
	}

	var pref *UserPreference
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := uc.repo.GetUser(ctx, userID); err != nil {
			return err
		}
		var err error
		pref, err = uc.repo.GetPreference(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			pref = &UserPreference{UserID: userID}
		} else if err != nil {
			return err
		}
		pref.Genre = genre
		return uc.repo.SavePreference(ctx, pref)
	})
	if err != nil {
		return nil, err
	}
	return pref, nil
}

// GetPreference returns the user's preference or ErrNotFound.
func (uc *UserUseCase) GetPreference(ctx context.Context, userID string) (*UserPreference, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return uc.repo.GetPreference(ctx, userID)
}
