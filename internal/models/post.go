package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType is the kind of on-chain action a post refers to.
type ActivityType string

const (
	ActivityMint    ActivityType = "mint"
	ActivitySwap    ActivityType = "swap"
	ActivityDeposit ActivityType = "deposit"
)

// Valid reports whether t is a supported activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityMint, ActivitySwap, ActivityDeposit:
		return true
	}
	return false
}

// Metadata is a free-form JSON object persisted in a text column.
type Metadata map[string]interface{}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	*m = out
	return nil
}

// OnchainActivity describes a transaction a post is attached to.
type OnchainActivity struct {
	ID            string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Web3AccountID string       `json:"web3AccountId" gorm:"type:varchar(36);index;not null"`
	ActivityType  ActivityType `json:"activityType" gorm:"type:varchar(16);not null"`
	TxHash        string       `json:"txHash" gorm:"type:varchar(128);not null"`
	Chain         Chain        `json:"chain" gorm:"type:varchar(16);not null"`
	Metadata      Metadata     `json:"metadata" gorm:"type:text"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Post is a feed entry authored by a user.
type Post struct {
	ID                string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID            string           `json:"userId" gorm:"type:varchar(36);index;not null"`
	Content           string           `json:"content" gorm:"type:text;not null"`
	MediaURL          *string          `json:"mediaUrl,omitempty" gorm:"type:varchar(512)"`
	OnchainActivityID string           `json:"onchainActivityId" gorm:"type:varchar(36)"`
	OnchainActivity   *OnchainActivity `json:"onchainActivity,omitempty" gorm:"foreignKey:OnchainActivityID"`
	User              *User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Web3Account{},
		&Follow{},
		&UsedNonce{},
		&OnchainActivity{},
		&Post{},
	}
}
