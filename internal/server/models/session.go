package models

// RefreshSlot is the single refresh token anchor of an identity. TokenHash
// is nil when no session is active; Version increases on every write.
type RefreshSlot struct {
	UserID    string
	TokenHash *string
	Version   int64
}

func (s RefreshSlot) Active() bool {
	return s.TokenHash != nil
}
