package models

// Blacklist stores tokens revoked by logout. Entries become irrelevant once
// the token's own 24h expiry passes.
type Blacklist struct {
	Model
	Token string `gorm:"type:text;index" json:"token"`
}
