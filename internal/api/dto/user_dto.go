package dto

import (
	"time"

	"github.com/spec-kit/moderation-service/internal/domain"
)

// BlockUserRequest payload. An empty duration blocks indefinitely.
type BlockUserRequest struct {
	Reason   string  `json:"reason"`
	Duration *string `json:"duration"`
}

// UserResponse is the public view of an account including block state.
type UserResponse struct {
	ID            string      `json:"id"`
	Username      string      `json:"username"`
	Role          domain.Role `json:"role"`
	IsBlocked     bool        `json:"is_blocked"`
	BlockReason   *string     `json:"block_reason"`
	BlockedAt     *time.Time  `json:"blocked_at"`
	BlockDuration *string     `json:"block_duration"`
	BlockedByID   *string     `json:"blocked_by_id"`
}

// BlockLogEntryResponse is one block log row.
type BlockLogEntryResponse struct {
	ID        string             `json:"id"`
	Action    domain.BlockAction `json:"action"`
	ActorID   *string            `json:"actor_id"`
	Reason    *string            `json:"reason"`
	Duration  *string            `json:"duration"`
	CreatedAt time.Time          `json:"created_at"`
}

// NotificationCountsResponse is the polled badge payload.
type NotificationCountsResponse struct {
	Chats          int `json:"chats"`
	Notifications  int `json:"notifications"`
	Complaints     int `json:"complaints"`
	ShopComplaints int `json:"shop_complaints"`
	ShopChats      int `json:"shop_chats"`
}

func NewUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Role:          user.Role,
		IsBlocked:     user.IsBlocked,
		BlockReason:   user.BlockReason,
		BlockedAt:     user.BlockedAt,
		BlockDuration: user.BlockDuration,
		BlockedByID:   user.BlockedByID,
	}
}

func NewBlockLog(entries []domain.BlockLogEntry) []BlockLogEntryResponse {
	items := make([]BlockLogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, BlockLogEntryResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			ActorID:   entry.ActorID,
			Reason:    entry.Reason,
			Duration:  entry.Duration,
			CreatedAt: entry.CreatedAt,
		})
	}
	return items
}

func NewNotificationCounts(counts domain.NotificationCounts) NotificationCountsResponse {
	return NotificationCountsResponse{
		Chats:          counts.Chats,
		Notifications:  counts.Notifications,
		Complaints:     counts.Complaints,
		ShopComplaints: counts.ShopComplaints,
		ShopChats:      counts.ShopChats,
	}
}
