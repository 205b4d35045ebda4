// Package line implements the messaging-platform surface: reply payload
// types, the reply API client and a bounded outbound dispatcher.
package line

// Action is one tappable choice of a template message. Tapping it sends
// Text back through the webhook as the next command.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Template is the inner body of a confirm or buttons message.
type Template struct {
	Type              string   `json:"type"`
	Title             string   `json:"title,omitempty"`
	Text              string   `json:"text"`
	Actions           []Action `json:"actions"`
	DefaultAction     *Action  `json:"defaultAction,omitempty"`
	ThumbnailImageURL string   `json:"thumbnailImageUrl,omitempty"`
	ImageSize         string   `json:"imageSize,omitempty"`
}

// Message is a single outbound reply payload.
type Message struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	AltText  string    `json:"altText,omitempty"`
	Template *Template `json:"template,omitempty"`
}

// NewText builds a plain text message.
func NewText(text string) Message {
	return Message{Type: "text", Text: text}
}

// NewConfirm builds a binary confirm dialog. The two labels map to the two
// command tokens sent back when tapped.
func NewConfirm(title, text, label1, label2, cmd1, cmd2 string) Message {
	return Message{
		Type:    "template",
		AltText: title,
		Template: &Template{
			Type:  "confirm",
			Title: title,
			Text:  text,
			Actions: []Action{
				{Type: "message", Label: label1, Text: cmd1},
				{Type: "message", Label: label2, Text: cmd2},
			},
		},
	}
}

// NewButtons builds a button-list message. defaultAction and thumbnailURL
// may be zero values and are then omitted from the wire payload.
func NewButtons(altText, title, text string, actions []Action, defaultAction *Action, thumbnailURL string) Message {
	t := &Template{
		Type:          "buttons",
		Title:         title,
		Text:          text,
		Actions:       actions,
		DefaultAction: defaultAction,
	}
	if thumbnailURL != "" {
		t.ThumbnailImageURL = thumbnailURL
		t.ImageSize = "cover"
	}
	return Message{Type: "template", AltText: altText, Template: t}
}
