package normalizetext

const (
	ModeQuery   = "query"
	ModeContent = "content"
)

type Input struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

type Output struct {
	NormalizedText    string   `json:"normalizedText"`
	Variations        []string `json:"variations"`
	MentionedEntities []string `json:"mentionedEntities"`
}
