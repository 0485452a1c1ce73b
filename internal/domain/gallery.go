package domain

import "errors"

type Mode string

const (
	ModeInitial   Mode = "initial"
	ModeBrowsing  Mode = "browsing"
	ModeSearching Mode = "searching"
)

var ErrInvalidTransition = errors.New("invalid gallery transition")

func CanTransition(from, to Mode) bool {
	if from == to {
		return from != ModeInitial
	}
	switch from {
	case ModeInitial:
		return to == ModeBrowsing
	case ModeBrowsing:
		return to == ModeSearching
	case ModeSearching:
		return to == ModeBrowsing
	default:
		return false
	}
}

// DetailRow est une ligne libellée d'un écran de détail.
type DetailRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CharacterDetail est un personnage enrichi de ses épisodes résolus.
type CharacterDetail struct {
	Character Character `json:"character"`
	Episodes  []Episode `json:"episodes,omitempty"`
	// Resolved vaut false si la résolution des épisodes a échoué ou n'a pas eu lieu.
	Resolved bool `json:"resolved"`
}

func (d CharacterDetail) Rows() []DetailRow {
	c := d.Character
	return []DetailRow{
		{Label: "name", Value: c.Name},
		{Label: "status", Value: c.Status},
		{Label: "species", Value: c.Species},
		{Label: "gender", Value: c.Gender},
		{Label: "origin", Value: c.Origin.Name},
		{Label: "location", Value: c.Location.Name},
	}
}

// EpisodeRows liste les épisodes résolus en lignes (code, nom).
func (d CharacterDetail) EpisodeRows() []DetailRow {
	out := make([]DetailRow, 0, len(d.Episodes))
	for _, e := range d.Episodes {
		out = append(out, DetailRow{Label: e.Code, Value: e.Name})
	}
	return out
}

// EpisodeDetail est un épisode enrichi des noms de ses personnages.
type EpisodeDetail struct {
	Episode        Episode  `json:"episode"`
	CharacterNames []string `json:"characterNames,omitempty"`
	Resolved       bool     `json:"resolved"`
}

func (d EpisodeDetail) Rows() []DetailRow {
	e := d.Episode
	return []DetailRow{
		{Label: "name", Value: e.Name},
		{Label: "air date", Value: e.AirDate},
		{Label: "episode", Value: e.Code},
	}
}
