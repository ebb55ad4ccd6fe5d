package models

import "time"

// User is a registered member of the network. Usernames are stored
// lowercased; email is optional and only collected for embedded wallets.
type User struct {
	ID            string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username      string        `json:"username" gorm:"uniqueIndex;type:varchar(20);not null"`
	Email         *string       `json:"email,omitempty" gorm:"uniqueIndex;type:varchar(255)"`
	Bio           *string       `json:"bio,omitempty" gorm:"type:text"`
	Avatar        *string       `json:"avatar,omitempty" gorm:"type:varchar(512)"`
	TurnkeyWallet *string       `json:"-" gorm:"type:varchar(128)"`
	Nonce         string        `json:"-" gorm:"type:varchar(128)"`
	Web3Accounts  []Web3Account `json:"web3Accounts,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
