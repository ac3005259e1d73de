package service

import (
	"strings"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"
)

// UserAdminService 后台用户管理服务
type UserAdminService struct {
	userRepo repository.UserRepository
}

// NewUserAdminService 创建后台用户管理服务
func NewUserAdminService(userRepo repository.UserRepository) *UserAdminService {
	return &UserAdminService{userRepo: userRepo}
}

// List 分页查询用户
func (s *UserAdminService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// Get 获取用户详情
func (s *UserAdminService) Get(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetRole 调整用户角色
func (s *UserAdminService) SetRole(id uint, role string) (*models.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case constants.RoleSuperAdmin, constants.RoleAdmin, constants.RoleClient:
	default:
		return nil, ErrInvalidRole
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	user.Role = role
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdjustPoints 人工调整积分（正数增加，负数扣减）
func (s *UserAdminService) AdjustPoints(id uint, delta int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	switch {
	case delta > 0:
		if err := s.userRepo.AddPoints(id, delta); err != nil {
			return nil, err
		}
	case delta < 0:
		affected, err := s.userRepo.DeductPoints(id, -delta)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrInsufficientPoints
		}
	}
	return s.userRepo.GetByID(id)
}

// Delete 逻辑删除用户
func (s *UserAdminService) Delete(id uint) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.userRepo.SoftDelete(id)
}
