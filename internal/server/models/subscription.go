package models

import "time"

// Subscription is a directed edge from a subscriber to a channel.
type Subscription struct {
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}
