// Package post holds the review workflow of a single post: authors append
// text at any time, but readers only see it once the post has been reviewed
// and approved.
package post

// Post is a piece of text moving through draft, review and publication.
// The zero value is a usable empty draft and a Post may be copied freely.
// It is not safe for concurrent use; callers sharing one must serialize
// access to it as a whole.
type Post struct {
	state   State
	content string
}

// New returns an empty post in the Draft state.
func New() *Post {
	return &Post{state: Draft}
}

// Restore rebuilds a post from stored content and state. Invalid states are
// treated as Draft so content is never revealed by accident.
func Restore(content string, state State) *Post {
	p := &Post{state: state, content: content}
	if !state.IsValid() {
		p.state = Draft
	}
	return p
}

// AddText appends text to the post in any state.
func (p *Post) AddText(text string) {
	p.content += text
}

// RequestReview moves a draft to pending review.
func (p *Post) RequestReview() {
	p.Apply(ActionRequestReview)
}

// Approve publishes a post that is pending review. Approving a draft does
// nothing: review comes first.
func (p *Post) Approve() {
	p.Apply(ActionApprove)
}

// Apply runs a lifecycle action and reports the state before and after.
// from == to means the action had no effect.
func (p *Post) Apply(action Action) (from, to State) {
	from = p.state
	p.state = from.Next(action)
	return from, p.state
}

// Content returns the text readers may see: everything once published,
// nothing before.
func (p *Post) Content() string {
	if p.state == Published {
		return p.content
	}
	return ""
}

// Draft returns the accumulated text regardless of state, for the author.
func (p *Post) Draft() string {
	return p.content
}

// State returns the current lifecycle state.
func (p *Post) State() State {
	return p.state
}
