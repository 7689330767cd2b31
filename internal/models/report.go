package models

// Report - жалоба на объявление. Данные автора копируются,
// чтобы админка не ходила за ними отдельно.
type Report struct {
	BaseModel
	AdID          string `gorm:"type:varchar(36);index;not null" json:"adId"`
	AdNumber      string `gorm:"size:20" json:"adNumber"`
	ReporterID    string `gorm:"type:varchar(36);index;not null" json:"reporterId"`
	ReporterName  string `gorm:"size:255" json:"reporterName"`
	ReporterEmail string `gorm:"size:255" json:"reporterEmail"`
	Reason        string `gorm:"size:120;not null" json:"reason"`
	Message       string `gorm:"type:text" json:"message"`
}

// AllModels - порядок важен для AutoMigrate (users раньше ads)
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Ad{},
		&AdPromotion{},
		&Subscription{},
		&PaymentTransaction{},
		&Report{},
	}
}
