// Package telegram abstracts the messaging transport behind a Provider
// interface and implements it against the Telegram Bot API.
package telegram

// Update is one inbound event: a text message, a document attachment or an
// inline-button selection.
type Update struct {
	ChatID      int64
	UserID      int64
	DisplayName string
	Text        string
	Document    *Document
	Callback    string
	MessageID   int
}

// Document describes an attached file.
type Document struct {
	FileID   string
	FileName string
	MimeType string
}

// Button is a keyboard button. Data empty means a reply-keyboard button
// whose text comes back as a plain message; non-empty means an inline
// button delivering Data as a callback.
type Button struct {
	Text string
	Data string
}

// Provider is the messaging transport the bot speaks through.
type Provider interface {
	// SendMessage delivers plain text and returns the message id.
	SendMessage(chatID int64, text string) (int, error)

	// SendKeyboard delivers text with a keyboard attached.
	SendKeyboard(chatID int64, text string, rows [][]Button) (int, error)

	// DeleteMessage removes a previously sent message. Deleting an already
	// gone message returns an error the caller may ignore.
	DeleteMessage(chatID int64, messageID int) error

	// DownloadDocument fetches the raw bytes of an attached file.
	DownloadDocument(fileID string) ([]byte, error)

	// Updates returns the inbound event stream.
	Updates() (<-chan Update, error)

	// Close stops receiving updates.
	Close()
}
