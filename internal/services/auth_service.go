package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	allowedEmailDomain = "@nd.edu"
	minPasswordLength  = 6
)

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type AuthService struct {
	DB     *gorm.DB
	Tokens TokenIssuer
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func NewAuthService(db *gorm.DB, tokens TokenIssuer) *AuthService {
	return &AuthService{DB: db, Tokens: tokens}
}

// ValidateSignUp checks a sign-up form and returns the first problem found.
func ValidateSignUp(req *dtos.SignUpRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" || req.ConfirmPassword == "" {
		return invalid("Please fill in all fields")
	}
	if !strings.HasSuffix(normalizeEmail(req.Email), allowedEmailDomain) {
		return invalid("Only Notre Dame (@nd.edu) email addresses are allowed")
	}
	if req.Password != req.ConfirmPassword {
		return invalid("Passwords do not match")
	}
	if len(req.Password) < minPasswordLength {
		return invalid("Password must be at least 6 characters long")
	}
	if !req.Terms {
		return invalid("Please agree to the Terms and Conditions")
	}
	return nil
}

// SignUp creates the account and its empty profile and returns a session token.
func (s *AuthService) SignUp(ctx context.Context, req *dtos.SignUpRequest) (string, *models.User, error) {
	if err := ValidateSignUp(req); err != nil {
		return "", nil, err
	}
	email := normalizeEmail(req.Email)
	db := s.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", nil, err
	}
	if count > 0 {
		return "", nil, ErrEmailTaken
	}

	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		return "", nil, err
	}

	user := &models.User{Email: email, Name: strings.TrimSpace(req.Name), PasswordHash: string(hash)}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{ID: user.ID, Email: user.Email, Name: user.Name}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", nil, ErrEmailTaken
	}
	if err != nil {
		return "", nil, err
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// SignIn checks the password and returns a fresh session token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrBadCredentials
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
