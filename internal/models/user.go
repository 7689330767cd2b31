package models

type User struct {
	BaseModel
	Name           string   `gorm:"size:255" json:"name"`
	Email          string   `gorm:"size:255;uniqueIndex" json:"email"`
	Phone          string   `gorm:"size:32" json:"phone"`
	City           string   `gorm:"size:120" json:"city"`
	ProfilePicture string   `json:"profilePicture"`
	Role           UserRole `gorm:"type:varchar(20);not null" json:"role"`
	IsVerified     bool     `json:"isVerified"`

	// Кэш "есть активная подписка". Ставится платёжным сервисом,
	// снимается при истечении подписки. При чтении не пересчитывается.
	IsPremiumUser bool `gorm:"index" json:"isPremiumUser"`

	Ads                 []Ad                 `gorm:"foreignKey:UserID" json:"-"`
	Subscriptions       []Subscription       `gorm:"foreignKey:UserID" json:"-"`
	PaymentTransactions []PaymentTransaction `gorm:"foreignKey:UserID" json:"-"`
}
