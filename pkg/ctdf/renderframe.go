package ctdf

// DisplayLine is the only kind of line the board produces
type DisplayLine struct {
	Text   string `json:"text" groups:"basic,detailed"`
	Colour Colour `json:"colour" groups:"basic,detailed"`
}

func NewDisplayLine(text string, colour Colour) DisplayLine {
	return DisplayLine{Text: text, Colour: colour}
}

// RenderFrame is everything a renderer needs to draw one frame
type RenderFrame struct {
	Lines          []DisplayLine `json:"lines"`
	VerticalOffset int           `json:"verticaloffset"`
	Brightness     uint8         `json:"brightness"`
}
