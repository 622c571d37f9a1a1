// Package push stores browser push subscriptions and delivers Web Push
// notifications to them.
package push

type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

type Subscription struct {
	ID        int    `json:"subscriptionId"`
	UserID    int    `json:"userId"`
	Endpoint  string `json:"endpoint"`
	Keys      Keys   `json:"keys"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Notification is the JSON payload the service worker receives.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}
