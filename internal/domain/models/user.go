package models

import (
	"strings"
	"time"
)

// User is the identity returned by a successful sign-in or sign-up.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// UserProfile is the profile document created the first time a user signs up.
type UserProfile struct {
	ID           string    `bson:"_id" json:"id"`
	IsAnonymous  bool      `bson:"isAnonymous" json:"isAnonymous"`
	Name         string    `bson:"name" json:"name"`
	PhotoURL     string    `bson:"photoURL" json:"photoURL"`
	EmailAddress string    `bson:"emailAddress" json:"emailAddress"`
	FirstName    string    `bson:"firstName" json:"firstName"`
	LastName     string    `bson:"lastName" json:"lastName"`
	IsSubscribed bool      `bson:"isSubscribed" json:"isSubscribed"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// NewUserProfile derives a profile from an identity, splitting the display
// name at the first space.
func NewUserProfile(user User, now time.Time) UserProfile {
	first, last := "", ""
	if parts := strings.Fields(user.DisplayName); len(parts) > 0 {
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	}

	return UserProfile{
		ID:           user.ID,
		Name:         user.DisplayName,
		PhotoURL:     user.PhotoURL,
		EmailAddress: user.Email,
		FirstName:    first,
		LastName:     last,
		IsSubscribed: true,
		CreatedAt:    now,
	}
}
