package domain

type Place struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type Character struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Species  string `json:"species"`
	Type     string `json:"type,omitempty"`
	Gender   string `json:"gender"`
	Image    string `json:"image"`
	Origin   Place  `json:"origin"`
	Location Place  `json:"location"`

	// Episode contient les URLs de référence des épisodes, dans l'ordre de l'API.
	Episode []string `json:"episode"`
	URL     string   `json:"url,omitempty"`
}

// EpisodeIDs renvoie les ids numériques des références d'épisodes.
// Les références sans chiffre sont ignorées.
func (c Character) EpisodeIDs() []int {
	return ExtractIDs(c.Episode)
}

// SameContent indique si a et b contiennent les mêmes personnages dans le même
// ordre, en ne comparant que les noms. Réservé à la suppression des résultats
// de recherche identiques, pas à l'identité: deux personnages peuvent partager un nom.
func SameContent(a, b []Character) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

type PageInfo struct {
	Count int    `json:"count"`
	Pages int    `json:"pages"`
	Next  string `json:"next,omitempty"`
	Prev  string `json:"prev,omitempty"`
}

// CharacterPage est une page de la collection de personnages.
type CharacterPage struct {
	Info       PageInfo    `json:"info"`
	Characters []Character `json:"results"`
}

// NextPageURL renvoie le curseur de la page suivante, ou "" en fin de collection.
func (p CharacterPage) NextPageURL() string {
	return p.Info.Next
}
