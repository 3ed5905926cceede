package services

import (
	"errors"
	"time"

	"github.com/lucasbeniti/todo-api/internal/config"
	"github.com/lucasbeniti/todo-api/internal/models"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidToken       = errors.New("token is invalid or expired")
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type AuthService interface {
	RegisterUser(db *gorm.DB, input RegisterInput) (*models.User, error)
	LoginUser(db *gorm.DB, email, password string) (*models.User, error)
	IssueTokens(db *gorm.DB, userID uuid.UUID) (TokenPair, error)
	ResolveActor(tokenStr string) (uuid.UUID, error)
	RevokeRefreshToken(db *gorm.DB, refreshToken string) error
	CleanupExpiredTokens(db *gorm.DB) (int64, error)
}

type AuthServiceImpl struct {
	secret          []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	bcryptCost      int
}

func NewAuthService(cfg config.AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{
		secret:          []byte(cfg.JWTSecret),
		issuer:          cfg.Issuer,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		bcryptCost:      cfg.BCryptCost,
	}
}

func (s *AuthServiceImpl) RegisterUser(db *gorm.DB, input RegisterInput) (*models.User, error) {
	var existing models.User
	if err := db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthServiceImpl) LoginUser(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthServiceImpl) IssueTokens(db *gorm.DB, userID uuid.UUID) (TokenPair, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"iss":     s.issuer,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(s.accessTokenTTL).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := uuid.NewV4()
	if err != nil {
		return TokenPair{}, err
	}
	record := models.RefreshToken{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    userID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.refreshTokenTTL),
	}
	if err := db.Create(&record).Error; err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.String(),
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
	}, nil
}

// ResolveActor validates a bearer token and returns the actor identity it
// carries. It never touches the database.
func (s *AuthServiceImpl) ResolveActor(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	if iss, ok := claims["iss"].(string); ok && iss != s.issuer {
		return uuid.Nil, ErrInvalidToken
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	actorID, err := uuid.FromString(userIDStr)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return actorID, nil
}

func (s *AuthServiceImpl) RevokeRefreshToken(db *gorm.DB, refreshToken string) error {
	tokenID, err := uuid.FromString(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}
	return db.Where("token = ?", tokenID).Delete(&models.RefreshToken{}).Error
}

func (s *AuthServiceImpl) CleanupExpiredTokens(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
