package models

import (
	"time"

	"gorm.io/gorm"
)

// User 商城用户表
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                          // 主键
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`             // 邮箱
	PasswordHash       string         `gorm:"not null" json:"-"`                             // 密码哈希（不返回给前端）
	Role               string         `gorm:"type:varchar(20);default:'client'" json:"role"` // 角色（superadmin/admin/client）
	Points             int64          `gorm:"not null;default:0" json:"points"`              // 积分余额
	IsDeleted          bool           `gorm:"not null;default:false;index" json:"-"`         // 逻辑删除标记
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                   // Token 版本号（递增使旧 Token 失效）
	TokenInvalidBefore *time.Time     `json:"-"`                                             // 在此时间之前签发的 Token 一律失效
	LastLoginAt        *time.Time     `json:"last_login_at"`                                 // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	// 关联
	Person    *Person   `gorm:"foreignKey:UserID" json:"person,omitempty"`    // 个人资料
	Addresses []Address `gorm:"foreignKey:UserID" json:"addresses,omitempty"` // 收货地址列表
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Person 用户个人资料表
type Person struct {
	ID        uint       `gorm:"primarykey" json:"id"`                // 主键
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"` // 用户ID
	Name      string     `gorm:"type:varchar(100)" json:"name"`       // 名
	LastName  string     `gorm:"type:varchar(100)" json:"last_name"`  // 姓
	Phone     string     `gorm:"type:varchar(30)" json:"phone"`       // 电话
	BirthDate *time.Time `json:"birth_date"`                          // 出生日期
	CreatedAt time.Time  `json:"created_at"`                          // 创建时间
	UpdatedAt time.Time  `json:"updated_at"`                          // 更新时间
}

// TableName 指定表名
func (Person) TableName() string {
	return "persons"
}

// Address 收货地址表
type Address struct {
	ID         uint      `gorm:"primarykey" json:"id"`                // 主键
	UserID     uint      `gorm:"not null;index" json:"user_id"`       // 用户ID
	Street     string    `gorm:"type:varchar(200)" json:"street"`     // 街道
	City       string    `gorm:"type:varchar(100)" json:"city"`       // 城市
	Province   string    `gorm:"type:varchar(100)" json:"province"`   // 省份
	PostalCode string    `gorm:"type:varchar(20)" json:"postal_code"` // 邮编
	Lat        float64   `gorm:"default:0" json:"lat"`                // 纬度
	Lng        float64   `gorm:"default:0" json:"lng"`                // 经度
	CreatedAt  time.Time `json:"created_at"`                          // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                          // 更新时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}
