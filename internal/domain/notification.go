package domain

// NotificationCounts summarises pending work for a user. Every field is
// computed independently; none includes another.
type NotificationCounts struct {
	Chats          int
	Notifications  int
	Complaints     int
	ShopComplaints int
	ShopChats      int
}
