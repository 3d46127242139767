package domain

// ChatMessage is one entry in the transient call chat. The log lives only
// for the duration of the current call and is cleared on any disconnect.
type ChatMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// Valid reports whether the message may enter the log. Both fields must be
// non-empty strings; the empty string counts as absent.
func (m ChatMessage) Valid() bool {
	return m.Sender != "" && m.Content != ""
}
