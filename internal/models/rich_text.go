package models

// Annotation holds the inline styling of a rich text run
type Annotation struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// Link is the target of a text run
type Link struct {
	URL string `json:"url"`
}

// Text is literal content with an optional link target
type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Equation is an inline or block level math expression
type Equation struct {
	Expression string `json:"expression"`
}

// Reference points at another page by id
type Reference struct {
	ID string `json:"id"`
}

// Mention is an inline reference. Only page mentions carry a target.
type Mention struct {
	Type string     `json:"type"`
	Page *Reference `json:"page,omitempty"`
}

// RichText is one styled run. Exactly one of Text, Equation or Mention is set.
type RichText struct {
	PlainText  string     `json:"plain_text"`
	Href       string     `json:"href,omitempty"`
	Annotation Annotation `json:"annotation"`
	Text       *Text      `json:"text,omitempty"`
	Equation   *Equation  `json:"equation,omitempty"`
	Mention    *Mention   `json:"mention,omitempty"`
}
