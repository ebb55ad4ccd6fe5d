package models

import "time"

// Follow is a directed edge in the social graph.
type Follow struct {
	FollowerID  string    `json:"followerId" gorm:"primaryKey;type:varchar(36)"`
	FollowingID string    `json:"followingId" gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt   time.Time `json:"createdAt"`
}
