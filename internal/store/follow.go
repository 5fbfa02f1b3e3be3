package store

// ScrollState says whether a view is pinned to its newest entry
type ScrollState int

const (
	// Following views scroll to the newest entry on every append
	Following ScrollState = iota
	// Overridden views stay where the user scrolled them
	Overridden
)

// String returns the string representation of ScrollState
func (s ScrollState) String() string {
	switch s {
	case Following:
		return "following"
	case Overridden:
		return "overridden"
	default:
		return "unknown"
	}
}

// Follower is the scroll-follow state machine of one bucket view. Only an
// explicit jump to latest returns an overridden view to following.
type Follower struct {
	state  ScrollState
	unseen int
}

// NewFollower returns a follower in the Following state
func NewFollower() *Follower {
	return &Follower{state: Following}
}

// State returns the current state
func (f *Follower) State() ScrollState {
	return f.state
}

// OnUserScroll records a user scroll gesture inside the view
func (f *Follower) OnUserScroll() {
	f.state = Overridden
}

// JumpToLatest returns the view to Following. The caller must scroll to the
// newest entry immediately.
func (f *Follower) JumpToLatest() {
	f.state = Following
	f.unseen = 0
}

// OnAppend records a successful append to the view's bucket and reports
// whether a scroll to the newest entry must be scheduled
func (f *Follower) OnAppend() bool {
	if f.state == Following {
		return true
	}
	f.unseen++
	return false
}

// ShowJumpControl reports whether the jump-to-latest control is rendered
func (f *Follower) ShowJumpControl() bool {
	return f.state == Overridden
}

// Unseen returns how many entries arrived since the view was overridden
func (f *Follower) Unseen() int {
	return f.unseen
}
