package post

import "time"

// Record is the stored form of a post. State is kept as its name so stored
// documents stay readable and survive reordering of the State constants.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	State     string    `json:"state" bson:"state"`
	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Post rebuilds the workflow object held by the record.
func (r *Record) Post() *Post {
	st, _ := ParseState(r.State)
	return Restore(r.Content, st)
}

// Store copies the post's content and state back into the record.
func (r *Record) Store(p *Post) {
	r.Content = p.Draft()
	r.State = p.State().String()
}
