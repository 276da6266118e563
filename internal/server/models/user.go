// Package models defines server-side data models persisted in the database
// and the projections returned to callers.
package models

import "time"

// User is an identity row. PasswordHash is only populated on insert;
// reads go through Account() before leaving the service layer.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Account is the sanitized identity: no password hash, no refresh slot.
type Account struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) Account() Account {
	return Account{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// Owner is the minimal projection embedded into media listings.
type Owner struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func (u *User) Owner() Owner {
	return Owner{ID: u.ID, FullName: u.FullName, Username: u.Username, Avatar: u.Avatar}
}

// ChannelProfile is a user seen as a channel by a particular viewer.
type ChannelProfile struct {
	ID                        string `json:"id"`
	FullName                  string `json:"fullName"`
	Username                  string `json:"username"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}
