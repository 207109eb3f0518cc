package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL bounds the validity of issued session tokens. Tokens are stateless;
// logout does not revoke them, they simply age out.
const TokenTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials signals wrong email, password or claimed role. The
	// message is deliberately generic so callers cannot tell which part failed.
	ErrInvalidCredentials = errors.New("auth: incorrect email, password or role")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters with an uppercase letter, a lowercase letter, a number and a symbol")
	// ErrValidation signals missing or malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrMissingToken signals the request carried no session token.
	ErrMissingToken = errors.New("auth: missing session token")
	// ErrInvalidToken signals a token whose signature or expiry check failed.
	ErrInvalidToken = errors.New("auth: invalid or expired session token")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service handles identity and session business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new identity service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
	}
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	if name == "" || email == "" || req.Password == "" || phone == "" || req.Role == "" {
		return nil, fmt.Errorf("auth: %w: name, email, password, phoneNumber and role are all required", ErrValidation)
	}
	if !isValidRole(req.Role) {
		return nil, fmt.Errorf("auth: %w: role must be either 'Owner' or 'Seeker'", ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("auth: %w: invalid email address", ErrValidation)
	}
	if !isValidPhone(phone) {
		return nil, fmt.Errorf("auth: %w: phone number must be exactly 10 digits", ErrValidation)
	}
	if !isStrongPassword(req.Password) {
		return nil, ErrWeakPassword
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Phone:        phone,
		Role:         req.Role,
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Login authenticates a user and returns a session token. Email, password and
// the claimed role must all match the stored record; any mismatch yields the
// same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	if req.Email == "" || req.Password == "" || req.Role == "" {
		return LoginResult{}, fmt.Errorf("auth: %w: email, password and role are required", ErrValidation)
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if user.Role != req.Role {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token: token,
		User:  user,
	}, nil
}

// GetUserByID retrieves user information by ID.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial update of the caller's own profile. Only
// name and phone are mutable; at least one must be present.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*User, error) {
	params := UpdateProfileParams{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("auth: %w: name cannot be empty", ErrValidation)
		}
		params.Name = &name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if !isValidPhone(phone) {
			return nil, fmt.Errorf("auth: %w: phone number must be exactly 10 digits", ErrValidation)
		}
		params.Phone = &phone
	}
	if params.Name == nil && params.Phone == nil {
		return nil, fmt.Errorf("auth: %w: at least one of name or phoneNumber is required", ErrValidation)
	}

	user, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Identify resolves a raw session token to the user it was issued for. It is
// the single entry point for authenticating protected requests.
func (s *Service) Identify(ctx context.Context, tokenString string) (*User, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	userID, _, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// VerifyToken validates a session token and returns the embedded user ID and role.
func (s *Service) VerifyToken(tokenString string) (string, Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(string)
		if !ok {
			return "", "", fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
		}
		roleStr, ok := claims["role"].(string)
		if !ok {
			return "", "", fmt.Errorf("%w: missing role claim", ErrInvalidToken)
		}
		role := Role(roleStr)
		if !isValidRole(role) {
			return "", "", fmt.Errorf("%w: unknown role %q", ErrInvalidToken, roleStr)
		}
		return userID, role, nil
	}

	return "", "", ErrInvalidToken
}

// generateToken creates a signed session token for the user.
func (s *Service) generateToken(userID string, role Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(TokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func isValidRole(role Role) bool {
	switch role {
	case RoleOwner, RoleSeeker:
		return true
	default:
		return false
	}
}

func isValidPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
