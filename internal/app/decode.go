package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/Guilhem-Bonnet/rmg/internal/domain"
)

type Shape string

const (
	ShapeCharacterPage Shape = "character-page"
	ShapeCharacterList Shape = "character-list"
	ShapeEpisode       Shape = "episode"
	ShapeEpisodeList   Shape = "episode-list"
	ShapeImage         Shape = "image"
)

func DecodeCharacterPage(b []byte) (domain.CharacterPage, error) {
	var page domain.CharacterPage
	if err := json.Unmarshal(b, &page); err != nil {
		return domain.CharacterPage{}, &DecodeError{Shape: ShapeCharacterPage, Err: err}
	}
	return page, nil
}

// DecodeCharacters décode une réponse à un lot d'ids. L'API renvoie un objet
// pour un seul id et un tableau sinon: on branche sur le nombre d'ids demandés.
func DecodeCharacters(b []byte, requested int) ([]domain.Character, error) {
	if requested == 1 {
		var c domain.Character
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, &DecodeError{Shape: ShapeCharacterList, Err: err}
		}
		return []domain.Character{c}, nil
	}
	var list []domain.Character
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, &DecodeError{Shape: ShapeCharacterList, Err: err}
	}
	return list, nil
}

// DecodeEpisodes applique la même règle de cardinalité que DecodeCharacters.
func DecodeEpisodes(b []byte, requested int) ([]domain.Episode, error) {
	if requested == 1 {
		var e domain.Episode
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, &DecodeError{Shape: ShapeEpisode, Err: err}
		}
		return []domain.Episode{e}, nil
	}
	var list []domain.Episode
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, &DecodeError{Shape: ShapeEpisodeList, Err: err}
	}
	return list, nil
}

// DecodeImage renvoie l'image décodée et son format (jpeg, png, gif, webp).
func DecodeImage(b []byte) (image.Image, string, error) {
	if len(b) == 0 {
		return nil, "", &DecodeError{Shape: ShapeImage, Err: errors.New("empty payload")}
	}
	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", &DecodeError{Shape: ShapeImage, Err: err}
	}
	return img, format, nil
}
