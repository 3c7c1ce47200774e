package entities

// Email is a transient inbox message handed to the reply classifier.
// It is never persisted.
type Email struct {
	ID      string
	From    string
	Subject string
	Snippet string
	Body    string
}
