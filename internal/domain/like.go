package domain

import "time"

// LikeTarget is the kind of entity a like attaches to.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetPost    LikeTarget = "post"
)

// Valid reports whether t is a known like target.
func (t LikeTarget) Valid() bool {
	switch t {
	case LikeTargetVideo, LikeTargetComment, LikeTargetPost:
		return true
	}
	return false
}

// Like records that a user liked a video, comment, or post. At most one like
// exists per (user, target).
type Like struct {
	UserID     string     `json:"user_id"`
	TargetType LikeTarget `json:"target_type"`
	TargetID   string     `json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}
