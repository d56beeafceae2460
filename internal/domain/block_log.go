package domain

import "time"

// BlockAction identifies a block log entry kind.
type BlockAction string

const (
	BlockActionBlock   BlockAction = "BLOCK"
	BlockActionUnblock BlockAction = "UNBLOCK"
)

// BlockLogEntry is an append-only record of a block or unblock.
type BlockLogEntry struct {
	ID        string
	UserID    string
	Action    BlockAction
	ActorID   *string
	Reason    *string
	Duration  *string
	CreatedAt time.Time
}
