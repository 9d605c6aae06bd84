package ctdf

type DataSource struct {
	OriginalFormat string `json:"originalformat" groups:"detailed"` // eg. sbb-json, gtfs-rt
	Provider       string `json:"provider" groups:"detailed"`
	Dataset        string `json:"dataset" groups:"detailed"`
	Identifier     string `json:"identifier" groups:"detailed"`
}
