package models

// LikeState is the client's shadow copy of a likeable entity (a collection or a place).
type LikeState struct {
	ID         int64
	LikesCount int
	Liked      bool
}

// NewLikeState builds a shadow copy from server values, clamping the count at zero.
func NewLikeState(id int64, count int, liked bool) LikeState {
	return LikeState{ID: id, LikesCount: max(0, count), Liked: liked}
}

// LikeIntent is the direction of a pending like call.
type LikeIntent int

const (
	Like LikeIntent = iota + 1
	Unlike
)

func (i LikeIntent) String() string {
	switch i {
	case Like:
		return "like"
	case Unlike:
		return "unlike"
	default:
		return "none"
	}
}

// Toggled returns the state after flipping the like and the intent that flip implies.
func (s LikeState) Toggled() (LikeState, LikeIntent) {
	if s.Liked {
		return LikeState{ID: s.ID, LikesCount: max(0, s.LikesCount-1), Liked: false}, Unlike
	}
	return LikeState{ID: s.ID, LikesCount: s.LikesCount + 1, Liked: true}, Like
}

// Likeable is implemented by resources that carry like counters.
type Likeable interface {
	LikeState() LikeState
}
