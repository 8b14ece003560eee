package notification

import "time"

const TypeChampionRecognition = "champion_recognition"

type Notification struct {
	ID       string    `gorm:"column:id;primaryKey" json:"id"`
	ClientID string    `gorm:"column:client_id;index" json:"client_id"`
	Type     string    `gorm:"column:type" json:"type"`
	Content  string    `gorm:"column:content" json:"content"`
	SentAt   time.Time `gorm:"column:sent_at" json:"sent_at"`
}

func (Notification) TableName() string { return "client_notifications" }
