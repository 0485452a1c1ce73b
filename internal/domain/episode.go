package domain

type Episode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	AirDate string `json:"air_date"`
	// Code est le code saison/épisode (ex: S01E01).
	Code       string   `json:"episode"`
	Characters []string `json:"characters"`
	URL        string   `json:"url"`
}

func (e Episode) CharacterIDs() []int {
	return ExtractIDs(e.Characters)
}
