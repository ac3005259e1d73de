package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	List(filter UserListFilter) ([]models.User, int64, error)
	Count() (int64, error)
	Create(user *models.User) error
	Update(user *models.User) error
	SoftDelete(id uint) error
	AddPoints(userID uint, points int64) error
	DeductPoints(userID uint, points int64) (int64, error)
	SavePerson(person *models.Person) error
	CreateAddress(address *models.Address) error
	ListAddresses(userID uint) ([]models.Address, error)
	GetAddress(userID, addressID uint) (*models.Address, error)
	UpdateAddress(address *models.Address) error
	DeleteAddress(userID, addressID uint) error
	WithTx(tx *gorm.DB) UserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByID 根据 ID 获取用户（带资料与地址）
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, errors.New("invalid user id")
	}
	var user models.User
	err := r.db.Preload("Person").Preload("Addresses").
		Where("is_deleted = ?", false).
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("invalid email")
	}
	var user models.User
	err := r.db.Preload("Person").Preload("Addresses").
		Where("email = ? AND is_deleted = ?", email, false).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// List 分页查询用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{}).Where("users.is_deleted = ?", false)

	if filter.Role != "" {
		query = query.Where("users.role = ?", filter.Role)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		op := likeOperator(r.db)
		query = query.Joins("LEFT JOIN persons ON persons.user_id = users.id").
			Where(fmt.Sprintf("users.email %s ? OR persons.name %s ? OR persons.last_name %s ?", op, op, op), like, like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("users.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("users.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Person").Order("users.created_at DESC")
	query = applyPagination(query, filter.Page, filter.PageSize)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Count 统计未删除用户总数
func (r *GormUserRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&models.User{}).Where("is_deleted = ?", false).Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Create 创建用户（级联写入个人资料/地址）
func (r *GormUserRepository) Create(user *models.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	return r.db.Create(user).Error
}

// Update 保存用户
func (r *GormUserRepository) Update(user *models.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	return r.db.Omit("Person", "Addresses").Save(user).Error
}

// SoftDelete 逻辑删除用户
func (r *GormUserRepository) SoftDelete(id uint) error {
	if id == 0 {
		return errors.New("invalid user id")
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("is_deleted", true).Error
}

// AddPoints 增加积分
func (r *GormUserRepository) AddPoints(userID uint, points int64) error {
	if userID == 0 || points <= 0 {
		return errors.New("invalid points params")
	}
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", points)).Error
}

// DeductPoints 条件扣减积分，余额不足时不生效，返回受影响行数
func (r *GormUserRepository) DeductPoints(userID uint, points int64) (int64, error) {
	if userID == 0 || points <= 0 {
		return 0, errors.New("invalid points params")
	}
	result := r.db.Model(&models.User{}).
		Where("id = ? AND points >= ?", userID, points).
		Update("points", gorm.Expr("points - ?", points))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SavePerson 保存个人资料（存在则更新）
func (r *GormUserRepository) SavePerson(person *models.Person) error {
	if person == nil || person.UserID == 0 {
		return errors.New("person is nil")
	}
	if person.ID == 0 {
		var existing models.Person
		err := r.db.Where("user_id = ?", person.UserID).First(&existing).Error
		if err == nil {
			person.ID = existing.ID
			person.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return r.db.Save(person).Error
}

// CreateAddress 新增收货地址
func (r *GormUserRepository) CreateAddress(address *models.Address) error {
	if address == nil {
		return errors.New("address is nil")
	}
	return r.db.Create(address).Error
}

// ListAddresses 获取用户地址列表
func (r *GormUserRepository) ListAddresses(userID uint) ([]models.Address, error) {
	if userID == 0 {
		return nil, errors.New("invalid user id")
	}
	var addresses []models.Address
	if err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// GetAddress 获取用户指定地址
func (r *GormUserRepository) GetAddress(userID, addressID uint) (*models.Address, error) {
	if userID == 0 || addressID == 0 {
		return nil, errors.New("invalid address id")
	}
	var address models.Address
	err := r.db.Where("user_id = ? AND id = ?", userID, addressID).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// UpdateAddress 保存收货地址
func (r *GormUserRepository) UpdateAddress(address *models.Address) error {
	if address == nil || address.ID == 0 {
		return errors.New("address is nil")
	}
	return r.db.Save(address).Error
}

// DeleteAddress 删除用户指定地址
func (r *GormUserRepository) DeleteAddress(userID, addressID uint) error {
	if userID == 0 || addressID == 0 {
		return errors.New("invalid address id")
	}
	return r.db.Where("user_id = ? AND id = ?", userID, addressID).Delete(&models.Address{}).Error
}
