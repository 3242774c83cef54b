package service

import (
	"errors"
	"fmt"

	"sft-go/internal/config"
	"sft-go/internal/dto"
	"sft-go/internal/models"
	"sft-go/internal/repository"
	"sft-go/internal/utils"
)

// AuthService 认证服务
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *utils.JWTManager
	cfg        *config.Config
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *repository.UserRepository, jwtManager *utils.JWTManager, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		cfg:        cfg,
	}
}

// Register 用户注册
func (s *AuthService) Register(req *dto.RegisterRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, fmt.Errorf("检查用户名失败: %w", err)
	}
	if exists {
		return nil, errors.New("用户名已存在")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hashedPassword,
		IsActive:     true,
		IsAdmin:      false,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	return user, nil
}

// Login 用户登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		return nil, errors.New("用户名或密码错误")
	}

	if err := utils.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, errors.New("用户名或密码错误")
	}

	if !user.IsActive {
		return nil, errors.New("用户已被禁用")
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("生成Token失败: %w", err)
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.jwtManager.ExpireSeconds(),
		User:        buildUserInfo(user),
	}, nil
}

func buildUserInfo(user *models.User) dto.UserInfo {
	return dto.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		IsActive:  user.IsActive,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GetMe 获取当前用户信息
func (s *AuthService) GetMe(userID uint) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, errors.New("用户不存在")
	}

	info := buildUserInfo(user)
	return &info, nil
}

// InitAdmin 初始化管理员账户
func (s *AuthService) InitAdmin() error {
	admin, err := s.userRepo.GetAdmin()
	if err == nil && admin != nil {
		return nil // 已存在管理员
	}

	// 配置中的密码可能已经是bcrypt哈希
	passwordHash := s.cfg.Admin.Password
	if !utils.IsBcryptHash(passwordHash) {
		hashedPassword, err := utils.HashPassword(s.cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("密码哈希失败: %w", err)
		}
		passwordHash = hashedPassword
	}

	user := &models.User{
		Username:     s.cfg.Admin.Username,
		PasswordHash: passwordHash,
		IsActive:     true,
		IsAdmin:      true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("创建管理员失败: %w", err)
	}

	return nil
}
