package models

import "time"

// Chain identifies the blockchain family a wallet belongs to.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
)

// Valid reports whether c is a supported chain.
func (c Chain) Valid() bool {
	return c == ChainEthereum || c == ChainSolana
}

// Web3Account links a blockchain address to a user. The pair
// (address, chain) is unique across the whole store.
type Web3Account struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     *string   `json:"userId" gorm:"type:varchar(36);index"`
	Address    string    `json:"address" gorm:"type:varchar(128);not null;uniqueIndex:idx_web3_address_chain"`
	Chain      Chain     `json:"chain" gorm:"type:varchar(16);not null;uniqueIndex:idx_web3_address_chain"`
	IsVerified bool      `json:"isVerified" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"createdAt"`
	User       *User     `json:"-" gorm:"foreignKey:UserID"`
}
