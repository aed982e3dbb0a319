package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/korsetof/chatmod/internal/models"
	"github.com/korsetof/chatmod/internal/repositories/postgres"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBanned         = errors.New("account is banned")
)

// UserStore is the persistence surface UserService needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error)
	SetBanned(ctx context.Context, id uint, banned bool) error
	List(ctx context.Context, offset, limit int) ([]models.User, int64, error)
}

// UserService implements registration, login and profile management.
type UserService struct {
	users     UserStore
	jwtSecret []byte
	jwtExpiry time.Duration
}

func NewUserService(users UserStore, jwtSecret string, jwtExpiry time.Duration) *UserService {
	if jwtExpiry <= 0 {
		jwtExpiry = 24 * time.Hour
	}
	return &UserService{users: users, jwtSecret: []byte(jwtSecret), jwtExpiry: jwtExpiry}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		Role:     models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := models.NewUserResponse(user)
	return &resp, nil
}

// Login verifies credentials and issues a signed JWT.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBanned() {
		return nil, ErrUserBanned
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, User: models.NewUserResponse(user)}, nil
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.NewUserResponse(user)
	return &resp, nil
}

// UpdateProfile applies the fields set in req to the user.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, req *models.UpdateProfileRequest) (*models.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := models.NewUserResponse(user)
	return &resp, nil
}

func (s *UserService) Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.UserResponse, error) {
	users, err := s.users.Search(ctx, query, excludeID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, models.NewUserResponse(&users[i]))
	}
	return out, nil
}

func (s *UserService) SetBanned(ctx context.Context, id uint, banned bool) error {
	return s.users.SetBanned(ctx, id, banned)
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]models.UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, models.NewUserResponse(&users[i]))
	}
	return out, total, nil
}
