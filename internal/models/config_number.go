package models

// ConfigNumber backs the named transaction sequences (EMPATTSEQ, WOSEQ, NOTES).
type ConfigNumber struct {
	Code       string `gorm:"primaryKey;size:30" json:"code"`
	LastNumber int64  `gorm:"not null;default:0" json:"last_number"`
}

func (ConfigNumber) TableName() string { return "config_numbers" }
