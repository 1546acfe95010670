package model

// Account types
const (
	UserTypeCustomer = "customer"
	UserTypeDealer   = "dealer"
	UserTypeEmployee = "employee"
	UserTypeAdmin    = "admin"
)

// User account, table users
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"                  json:"id"`
	UserID       string `gorm:"type:varchar(8);not null;uniqueIndex"      json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"    json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                json:"-"`
	Phone        string `gorm:"type:varchar(32);not null"                 json:"phone"`
	Type         string `gorm:"type:varchar(20);not null;default:'customer';index" json:"type"`
	BaseModel
}

// TableName table name
func (User) TableName() string { return "users" }

// IsValidUserType reports whether t is a known account type
func IsValidUserType(t string) bool {
	switch t {
	case UserTypeCustomer, UserTypeDealer, UserTypeEmployee, UserTypeAdmin:
		return true
	}
	return false
}
