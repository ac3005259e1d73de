package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tienda-next/internal/cache"
	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const passwordResetTokenTTL = 30 * time.Minute

// UserAuthService 商城用户认证服务
type UserAuthService struct {
	cfg          *config.Config
	userRepo     repository.UserRepository
	emailService *EmailService
	queueClient  *queue.Client

	// Redis 未启用时的重置令牌兜底存储
	mu             sync.Mutex
	fallbackTokens map[string]fallbackResetToken
}

type fallbackResetToken struct {
	userID    uint
	expiresAt time.Time
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, emailService *EmailService, queueClient *queue.Client) *UserAuthService {
	return &UserAuthService{
		cfg:            cfg,
		userRepo:       userRepo,
		emailService:   emailService,
		queueClient:    queueClient,
		fallbackTokens: make(map[string]fallbackResetToken),
	}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User, expireHours int) (string, time.Time, error) {
	resolvedHours := expireHours
	if resolvedHours <= 0 {
		resolvedHours = resolveUserJWTExpireHours(s.cfg.UserJWT)
	}
	expiresAt := time.Now().Add(time.Duration(resolvedHours) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// RegisterInput 注册请求
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	LastName string
	Phone    string
}

// Register 用户注册（级联创建个人资料，异步发送欢迎邮件）
func (s *UserAuthService) Register(input RegisterInput) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, "", time.Time{}, err
	}

	exist, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if exist != nil {
		return nil, "", time.Time{}, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user := &models.User{
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		Role:         constants.RoleClient,
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
		Person: &models.Person{
			Name:     strings.TrimSpace(input.Name),
			LastName: strings.TrimSpace(input.LastName),
			Phone:    strings.TrimSpace(input.Phone),
		},
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.GenerateUserJWT(user, 0)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	s.notifyRegistered(user)

	return user, token, expiresAt, nil
}

// notifyRegistered 注册欢迎邮件：优先异步队列，队列关闭时直接发送
func (s *UserAuthService) notifyRegistered(user *models.User) {
	if s.queueClient != nil && s.queueClient.Enabled() {
		_ = s.queueClient.EnqueueUserRegisterEmail(queue.UserRegisterEmailPayload{UserID: user.ID}, 0)
		return
	}
	if s.emailService == nil {
		return
	}
	name := ""
	if user.Person != nil {
		name = user.Person.Name
	}
	_ = s.emailService.SendRegisterEmail(user.Email, name)
}

// Login 用户登录
func (s *UserAuthService) Login(email, password string) (*models.User, string, time.Time, error) {
	return s.LoginWithRememberMe(email, password, false)
}

// LoginWithRememberMe 用户登录（支持记住我）
func (s *UserAuthService) LoginWithRememberMe(email, password string, rememberMe bool) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	expireHours := resolveUserJWTExpireHours(s.cfg.UserJWT)
	if rememberMe {
		expireHours = resolveRememberMeExpireHours(s.cfg.UserJWT)
	}
	token, expiresAt, err := s.GenerateUserJWT(user, expireHours)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	return user, token, expiresAt, nil
}

// RequestPasswordReset 发起找回密码：签发重置令牌并发送邮件
func (s *UserAuthService) RequestPasswordReset(email, redirectURL string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := randomResetToken()
	if err != nil {
		return err
	}
	if err := s.storeResetToken(token, user.ID); err != nil {
		return err
	}

	if s.emailService == nil {
		return ErrEmailServiceNotConfigured
	}
	return s.emailService.SendResetPasswordEmail(user.Email, buildResetURL(redirectURL, token))
}

// ResetPassword 用重置令牌设置新密码，旧 Token 全部失效
func (s *UserAuthService) ResetPassword(token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}

	userID, ok, err := s.lookupResetToken(token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResetTokenInvalid
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now()
	user.PasswordHash = string(hashedPassword)
	user.UpdatedAt = now
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	s.discardResetToken(token)
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return nil
}

// ChangePassword 登录态修改密码
func (s *UserAuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	if userID == 0 {
		return ErrUserNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now()
	user.PasswordHash = string(hashedPassword)
	user.UpdatedAt = now
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return nil
}

// ProfileUpdateInput 个人资料更新
type ProfileUpdateInput struct {
	Name      *string
	LastName  *string
	Phone     *string
	BirthDate *time.Time
}

// UpdateProfile 更新个人资料
func (s *UserAuthService) UpdateProfile(userID uint, input ProfileUpdateInput) (*models.User, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	person := user.Person
	if person == nil {
		person = &models.Person{UserID: user.ID}
	}
	if input.Name != nil {
		person.Name = strings.TrimSpace(*input.Name)
	}
	if input.LastName != nil {
		person.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		person.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.BirthDate != nil {
		person.BirthDate = input.BirthDate
	}
	person.UserID = user.ID
	if err := s.userRepo.SavePerson(person); err != nil {
		return nil, err
	}
	user.Person = person
	return user, nil
}

// GetUserByID 获取用户信息
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}
	return s.userRepo.GetByID(id)
}

// AddressInput 收货地址输入
type AddressInput struct {
	Street     string
	City       string
	Province   string
	PostalCode string
	Lat        float64
	Lng        float64
}

// CreateAddress 新增收货地址
func (s *UserAuthService) CreateAddress(userID uint, input AddressInput) (*models.Address, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	address := &models.Address{
		UserID:     userID,
		Street:     strings.TrimSpace(input.Street),
		City:       strings.TrimSpace(input.City),
		Province:   strings.TrimSpace(input.Province),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Lat:        input.Lat,
		Lng:        input.Lng,
	}
	if err := s.userRepo.CreateAddress(address); err != nil {
		return nil, err
	}
	return address, nil
}

// ListAddresses 收货地址列表
func (s *UserAuthService) ListAddresses(userID uint) ([]models.Address, error) {
	return s.userRepo.ListAddresses(userID)
}

// UpdateAddress 更新收货地址
func (s *UserAuthService) UpdateAddress(userID, addressID uint, input AddressInput) (*models.Address, error) {
	address, err := s.userRepo.GetAddress(userID, addressID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}
	address.Street = strings.TrimSpace(input.Street)
	address.City = strings.TrimSpace(input.City)
	address.Province = strings.TrimSpace(input.Province)
	address.PostalCode = strings.TrimSpace(input.PostalCode)
	address.Lat = input.Lat
	address.Lng = input.Lng
	if err := s.userRepo.UpdateAddress(address); err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress 删除收货地址
func (s *UserAuthService) DeleteAddress(userID, addressID uint) error {
	address, err := s.userRepo.GetAddress(userID, addressID)
	if err != nil {
		return err
	}
	if address == nil {
		return ErrAddressNotFound
	}
	return s.userRepo.DeleteAddress(userID, addressID)
}

func (s *UserAuthService) storeResetToken(token string, userID uint) error {
	if cache.Enabled() {
		return cache.SetPasswordResetToken(context.Background(), token, userID, passwordResetTokenTTL)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for key, entry := range s.fallbackTokens {
		if entry.expiresAt.Before(now) {
			delete(s.fallbackTokens, key)
		}
	}
	s.fallbackTokens[token] = fallbackResetToken{userID: userID, expiresAt: now.Add(passwordResetTokenTTL)}
	return nil
}

func (s *UserAuthService) lookupResetToken(token string) (uint, bool, error) {
	if cache.Enabled() {
		return cache.GetPasswordResetToken(context.Background(), token)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.fallbackTokens[token]
	if !ok || entry.expiresAt.Before(time.Now()) {
		return 0, false, nil
	}
	return entry.userID, true, nil
}

func (s *UserAuthService) discardResetToken(token string) {
	if cache.Enabled() {
		_ = cache.DelPasswordResetToken(context.Background(), token)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fallbackTokens, token)
}

func randomResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func buildResetURL(redirectURL, token string) string {
	redirectURL = strings.TrimSpace(redirectURL)
	if redirectURL == "" {
		return token
	}
	sep := "?"
	if strings.Contains(redirectURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%stoken=%s", redirectURL, sep, url.QueryEscape(token))
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

func resolveUserJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours <= 0 {
		return 24
	}
	return cfg.ExpireHours
}

func resolveRememberMeExpireHours(cfg config.JWTConfig) int {
	if cfg.RememberMeExpireHours <= 0 {
		return resolveUserJWTExpireHours(cfg)
	}
	return cfg.RememberMeExpireHours
}
