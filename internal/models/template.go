package models

// Template is a reusable canned response, also fed to the live agent as knowledge.
type Template struct {
	ID      string `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Content string `bson:"content" json:"content"`
}

func DefaultTemplates() []Template {
	return []Template{
		{ID: "1", Name: "Pricing Info", Content: "Our standard package starts at $99/mo."},
		{ID: "2", Name: "Booking", Content: "You can book a call at calendly.com/our-business"},
	}
}
