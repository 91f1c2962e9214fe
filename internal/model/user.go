package model

import "time"

// Роли пользователей консоли.
const (
	RoleAdmin = "admin"
)

// User - учётная запись администратора консоли.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"not null;default:admin" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
