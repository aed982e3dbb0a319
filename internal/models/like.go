package models

import "gorm.io/gorm"

/** --------------------ENTITIES-------------------- */

// Like records that one user liked another. A mutual pair of likes is a
// match; matching itself is derived, never stored.
type Like struct {
	gorm.Model
	LikerID  uint `gorm:"not null;uniqueIndex:idx_likes_pair" json:"likerId"`
	TargetID uint `gorm:"not null;uniqueIndex:idx_likes_pair" json:"targetId"`
}

/** -------------------- DTOs -------------------- */

type LikeResponse struct {
	TargetID uint `json:"targetId"`
	// Matched is true when the target had already liked the liker back.
	Matched bool `json:"matched"`
}
