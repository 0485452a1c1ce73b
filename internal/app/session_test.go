package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guilhem-Bonnet/rmg/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/rmg/internal/domain"
	"github.com/Guilhem-Bonnet/rmg/internal/ports"
)

// fakeCatalogue implémente les deux ports catalogue. Une gate enregistrée pour
// une URL de page ou un nom de recherche bloque l'appel jusqu'à sa fermeture.
type fakeCatalogue struct {
	mu sync.Mutex

	pages       map[string]domain.CharacterPage
	pageErr     error
	search      map[string]domain.CharacterPage
	searchErr   error
	episodes    map[int]domain.Episode
	episodesErr error
	names       map[string][]string

	pageGates   map[string]chan struct{}
	searchGates map[string]chan struct{}

	pageCalls    []string
	searchCalls  []string
	episodeCalls [][]int
	nameCalls    []string
}

func newFakeCatalogue() *fakeCatalogue {
	return &fakeCatalogue{
		pages:       map[string]domain.CharacterPage{},
		search:      map[string]domain.CharacterPage{},
		episodes:    map[int]domain.Episode{},
		names:       map[string][]string{},
		pageGates:   map[string]chan struct{}{},
		searchGates: map[string]chan struct{}{},
	}
}

func (f *fakeCatalogue) ListCharacters(ctx context.Context, pageURL string) (domain.CharacterPage, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, pageURL)
	gate := f.pageGates[pageURL]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageErr != nil {
		return domain.CharacterPage{}, f.pageErr
	}
	page, ok := f.pages[pageURL]
	if !ok {
		return domain.CharacterPage{}, &TransportError{URL: pageURL, Status: 404}
	}
	return page, nil
}

func (f *fakeCatalogue) SearchCharacters(ctx context.Context, name string) (domain.CharacterPage, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, name)
	gate := f.searchGates[name]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return domain.CharacterPage{}, f.searchErr
	}
	if page, ok := f.search[name]; ok {
		return page, nil
	}
	return domain.CharacterPage{Characters: []domain.Character{}}, nil
}

func (f *fakeCatalogue) GetEpisodes(ctx context.Context, ids []int) ([]domain.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.episodeCalls = append(f.episodeCalls, append([]int(nil), ids...))
	if f.episodesErr != nil {
		return nil, f.episodesErr
	}
	out := make([]domain.Episode, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.episodes[id])
	}
	return out, nil
}

func (f *fakeCatalogue) ResolveCharacterNames(ctx context.Context, episode domain.Episode) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nameCalls = append(f.nameCalls, episode.URL)
	return f.names[episode.URL], nil
}

func (f *fakeCatalogue) gatePage(pageURL string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.pageGates[pageURL] = ch
	return ch
}

func (f *fakeCatalogue) gateSearch(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.searchGates[name] = ch
	return ch
}

func (f *fakeCatalogue) calls(which *[]string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), (*which)...)
}

func makeCharacters(prefix string, from, n int) []domain.Character {
	out := make([]domain.Character, 0, n)
	for i := from; i < from+n; i++ {
		out = append(out, domain.Character{
			ID:    i,
			Name:  fmt.Sprintf("%s %d", prefix, i),
			Image: fmt.Sprintf("https://rickandmortyapi.com/api/character/avatar/%d.jpeg", i),
		})
	}
	return out
}

func characterPage(next string, chars []domain.Character) domain.CharacterPage {
	return domain.CharacterPage{Info: domain.PageInfo{Next: next}, Characters: chars}
}

const (
	page2URL = "https://rickandmortyapi.com/api/character?page=2"
	page3URL = "https://rickandmortyapi.com/api/character?page=3"
)

// twoPageCatalogue sert 20 personnages en racine et 20 de plus en page 2.
func twoPageCatalogue() *fakeCatalogue {
	f := newFakeCatalogue()
	f.pages[""] = characterPage(page2URL, makeCharacters("Character", 1, 20))
	f.pages[page2URL] = characterPage(page3URL, makeCharacters("Character", 21, 20))
	return f
}

func newTestSession(f *fakeCatalogue) *GallerySession {
	return NewGallerySession(zerolog.Nop(), f, f, nil)
}

func TestGallerySession_InitialLoadEntersBrowsing(t *testing.T) {
	f := twoPageCatalogue()
	s := newTestSession(f)
	require.Equal(t, domain.ModeInitial, s.View().Mode)

	outcome, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PageAppended, outcome)

	view := s.View()
	assert.Equal(t, domain.ModeBrowsing, view.Mode)
	assert.Len(t, view.Characters, 20)
	assert.Equal(t, page2URL, view.NextPageURL)
}

func TestGallerySession_PagesAppendInOrder(t *testing.T) {
	f := twoPageCatalogue()
	s := newTestSession(f)

	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	_, err = s.LoadNextPage(context.Background())
	require.NoError(t, err)

	view := s.View()
	require.Len(t, view.Characters, 40)
	for i, c := range view.Characters {
		assert.Equal(t, i+1, c.ID)
	}
	assert.Equal(t, page3URL, view.NextPageURL)
	assert.Equal(t, []string{"", page2URL}, f.calls(&f.pageCalls))
}

func TestGallerySession_ExhaustedCursorIsNoop(t *testing.T) {
	f := newFakeCatalogue()
	f.pages[""] = characterPage("", makeCharacters("Character", 1, 3))
	s := newTestSession(f)

	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	outcome, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PageSkipped, outcome)
	assert.Len(t, f.calls(&f.pageCalls), 1)
	assert.Len(t, s.View().Characters, 3)
}

func TestGallerySession_PageRequestsAreSerialized(t *testing.T) {
	f := twoPageCatalogue()
	gate := f.gatePage("")
	s := newTestSession(f)

	done := make(chan PageOutcome, 1)
	go func() {
		outcome, _ := s.LoadNextPage(context.Background())
		done <- outcome
	}()

	require.Eventually(t, func() bool { return len(f.calls(&f.pageCalls)) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.View().Loading)

	outcome, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PageSkipped, outcome)

	close(gate)
	assert.Equal(t, PageAppended, <-done)
	assert.Len(t, f.calls(&f.pageCalls), 1)
	assert.False(t, s.View().Loading)
}

func TestGallerySession_PageFailureKeepsData(t *testing.T) {
	f := twoPageCatalogue()
	var reported []string
	s := newTestSession(f).WithHooks(SessionHooks{
		OnError: func(op string, err error) { reported = append(reported, op) },
	})

	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	f.mu.Lock()
	f.pageErr = &TransportError{URL: page2URL, Status: 500}
	f.mu.Unlock()

	outcome, err := s.LoadNextPage(context.Background())
	require.Error(t, err)
	assert.Equal(t, PageFailed, outcome)
	assert.Equal(t, []string{"load_page"}, reported)

	view := s.View()
	assert.Len(t, view.Characters, 20)
	assert.Equal(t, page2URL, view.NextPageURL)
}

func TestGallerySession_SearchReplacesAndClearRestores(t *testing.T) {
	f := twoPageCatalogue()
	f.search["rick"] = characterPage("", []domain.Character{{ID: 1, Name: "Rick Sanchez"}, {ID: 8, Name: "Adjudicator Rick"}})
	s := newTestSession(f)
	ctx := context.Background()

	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)
	_, err = s.LoadNextPage(ctx)
	require.NoError(t, err)
	before := s.View()

	outcome, err := s.Search(ctx, "rick")
	require.NoError(t, err)
	assert.Equal(t, SearchApplied, outcome)

	view := s.View()
	assert.Equal(t, domain.ModeSearching, view.Mode)
	assert.Equal(t, "rick", view.Query)
	assert.True(t, view.HasSnapshot)
	require.Len(t, view.Characters, 2)
	assert.Equal(t, "Rick Sanchez", view.Characters[0].Name)

	require.NoError(t, s.ClearSearch())
	after := s.View()
	assert.Equal(t, domain.ModeBrowsing, after.Mode)
	assert.Equal(t, before.Characters, after.Characters)
	assert.Equal(t, before.NextPageURL, after.NextPageURL)
	assert.False(t, after.HasSnapshot)
	assert.Empty(t, after.Query)
}

func TestGallerySession_SnapshotCapturedOnce(t *testing.T) {
	f := twoPageCatalogue()
	f.search["r"] = characterPage("", makeCharacters("R", 100, 5))
	f.search["ri"] = characterPage("", makeCharacters("Ri", 200, 3))
	f.search["ric"] = characterPage("", makeCharacters("Ric", 300, 2))
	s := newTestSession(f)
	ctx := context.Background()

	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)
	original := s.View()

	for _, q := range []string{"r", "ri", "ric"} {
		_, err := s.Search(ctx, q)
		require.NoError(t, err)
	}
	assert.Len(t, s.View().Characters, 2)

	require.NoError(t, s.ClearSearch())
	restored := s.View()
	assert.Equal(t, original.Characters, restored.Characters)
	assert.Equal(t, original.NextPageURL, restored.NextPageURL)
}

func TestGallerySession_IdenticalSearchResultIsSuppressed(t *testing.T) {
	f := twoPageCatalogue()
	result := characterPage("", []domain.Character{{ID: 1, Name: "Rick Sanchez"}})
	f.search["rick"] = result
	f.search["rick s"] = result

	var changes []GalleryView
	s := newTestSession(f).WithHooks(SessionHooks{
		OnChange: func(v GalleryView) { changes = append(changes, v) },
	})
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	outcome, err := s.Search(ctx, "rick")
	require.NoError(t, err)
	require.Equal(t, SearchApplied, outcome)
	applied := len(changes)

	outcome, err = s.Search(ctx, "rick s")
	require.NoError(t, err)
	assert.Equal(t, SearchSuppressed, outcome)
	// Seul le passage en mode recherche notifie; le dataset n'est pas réappliqué.
	assert.Equal(t, applied+1, len(changes))
	assert.Len(t, s.View().Characters, 1)
}

func TestGallerySession_SearchWithoutMatchShowsEmpty(t *testing.T) {
	f := twoPageCatalogue()
	s := newTestSession(f)
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	outcome, err := s.Search(ctx, "zzzz")
	require.NoError(t, err)
	assert.Equal(t, SearchApplied, outcome)
	assert.Empty(t, s.View().Characters)
	assert.Equal(t, domain.ModeSearching, s.View().Mode)
}

func TestGallerySession_StaleSearchIsDropped(t *testing.T) {
	f := twoPageCatalogue()
	f.search["ri"] = characterPage("", makeCharacters("Ri", 200, 3))
	f.search["ric"] = characterPage("", makeCharacters("Ric", 300, 2))
	slow := f.gateSearch("ri")
	s := newTestSession(f)
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	done := make(chan SearchOutcome, 1)
	go func() {
		outcome, _ := s.Search(ctx, "ri")
		done <- outcome
	}()
	require.Eventually(t, func() bool { return len(f.calls(&f.searchCalls)) == 1 }, time.Second, 5*time.Millisecond)

	outcome, err := s.Search(ctx, "ric")
	require.NoError(t, err)
	require.Equal(t, SearchApplied, outcome)

	close(slow)
	assert.Equal(t, SearchStale, <-done)

	view := s.View()
	assert.Equal(t, "ric", view.Query)
	require.Len(t, view.Characters, 2)
	assert.Equal(t, "Ric 300", view.Characters[0].Name)
}

func TestGallerySession_PageCompletingAfterSearchIsDropped(t *testing.T) {
	f := twoPageCatalogue()
	f.search["rick"] = characterPage("", []domain.Character{{ID: 1, Name: "Rick Sanchez"}})
	s := newTestSession(f)
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	gate := f.gatePage(page2URL)
	done := make(chan PageOutcome, 1)
	go func() {
		outcome, _ := s.LoadNextPage(ctx)
		done <- outcome
	}()
	require.Eventually(t, func() bool { return len(f.calls(&f.pageCalls)) == 2 }, time.Second, 5*time.Millisecond)

	_, err = s.Search(ctx, "rick")
	require.NoError(t, err)
	close(gate)
	assert.Equal(t, PageStale, <-done)

	// Le snapshot a été pris avant la page 2: clear revient à 20 personnages.
	require.Len(t, s.View().Characters, 1)
	require.NoError(t, s.ClearSearch())
	assert.Len(t, s.View().Characters, 20)
	assert.Equal(t, page2URL, s.View().NextPageURL)
}

func TestGallerySession_LoadNextPageWhileSearchingIsNoop(t *testing.T) {
	f := twoPageCatalogue()
	f.search["rick"] = characterPage(page2URL, []domain.Character{{ID: 1, Name: "Rick Sanchez"}})
	s := newTestSession(f)
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)
	_, err = s.Search(ctx, "rick")
	require.NoError(t, err)

	outcome, err := s.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, PageSkipped, outcome)
	assert.Len(t, s.View().Characters, 1)
}

func TestGallerySession_BlankSearch(t *testing.T) {
	f := twoPageCatalogue()
	f.search["rick"] = characterPage("", []domain.Character{{ID: 1, Name: "Rick Sanchez"}})
	s := newTestSession(f)
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	outcome, err := s.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, SearchSkipped, outcome)
	assert.Empty(t, f.calls(&f.searchCalls))

	_, err = s.Search(ctx, "rick")
	require.NoError(t, err)
	outcome, err = s.Search(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, SearchCleared, outcome)
	assert.Equal(t, domain.ModeBrowsing, s.View().Mode)
	assert.Len(t, s.View().Characters, 20)
}

func TestGallerySession_InvalidTransitions(t *testing.T) {
	f := twoPageCatalogue()
	s := newTestSession(f)
	ctx := context.Background()

	_, err := s.Search(ctx, "rick")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Empty(t, f.calls(&f.searchCalls))

	assert.ErrorIs(t, s.ClearSearch(), domain.ErrInvalidTransition)

	_, err = s.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, s.ClearSearch(), domain.ErrInvalidTransition)
	assert.Equal(t, domain.ModeBrowsing, s.View().Mode)
}

func TestGallerySession_SearchFailureKeepsData(t *testing.T) {
	f := twoPageCatalogue()
	f.searchErr = &TransportError{URL: "x", Status: 500}
	s := newTestSession(f)
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	outcome, err := s.Search(ctx, "rick")
	require.Error(t, err)
	assert.Equal(t, SearchFailed, outcome)
	assert.Len(t, s.View().Characters, 20)

	require.NoError(t, s.ClearSearch())
	assert.Len(t, s.View().Characters, 20)
}

func TestGallerySession_SelectCharacterResolvesEpisodes(t *testing.T) {
	f := newFakeCatalogue()
	f.pages[""] = characterPage("", []domain.Character{{
		ID:   1,
		Name: "Rick Sanchez",
		Episode: []string{
			"https://rickandmortyapi.com/api/episode/1",
			"https://rickandmortyapi.com/api/episode/2",
		},
	}})
	f.episodes[1] = domain.Episode{ID: 1, Name: "Pilot", Code: "S01E01"}
	f.episodes[2] = domain.Episode{ID: 2, Name: "Lawnmower Dog", Code: "S01E02"}

	var selected []domain.CharacterDetail
	s := newTestSession(f).WithHooks(SessionHooks{
		OnCharacter: func(d domain.CharacterDetail) { selected = append(selected, d) },
	})
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	detail, err := s.SelectCharacter(ctx, 0)
	require.NoError(t, err)
	assert.True(t, detail.Resolved)
	require.Len(t, detail.Episodes, 2)
	assert.Equal(t, "S01E02", detail.Episodes[1].Code)
	assert.Equal(t, [][]int{{1, 2}}, f.episodeCalls)

	// Deuxième sélection: servie par le cache d'enrichissement.
	_, err = s.SelectCharacter(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, f.episodeCalls, 1)
	assert.Len(t, selected, 2)
}

func TestGallerySession_SelectCharacterOutOfRange(t *testing.T) {
	f := twoPageCatalogue()
	var selected int
	s := newTestSession(f).WithHooks(SessionHooks{
		OnCharacter: func(domain.CharacterDetail) { selected++ },
	})
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	_, err = s.SelectCharacter(ctx, 20)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.SelectCharacter(ctx, -1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Zero(t, selected)
	assert.Len(t, s.View().Characters, 20)
}

func TestGallerySession_SelectCharacterAfterSearchUsesCurrentDataset(t *testing.T) {
	f := twoPageCatalogue()
	f.search["rick"] = characterPage("", []domain.Character{{ID: 1, Name: "Rick Sanchez"}})
	s := newTestSession(f)
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)
	_, err = s.Search(ctx, "rick")
	require.NoError(t, err)

	_, err = s.SelectCharacter(ctx, 5)
	assert.ErrorIs(t, err, ErrOutOfRange)

	detail, err := s.SelectCharacter(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Rick Sanchez", detail.Character.Name)
	assert.True(t, detail.Resolved)
	assert.Empty(t, f.episodeCalls)
}

func TestGallerySession_SelectCharacterFailureStillNavigates(t *testing.T) {
	f := newFakeCatalogue()
	f.pages[""] = characterPage("", []domain.Character{{
		ID:      1,
		Name:    "Rick Sanchez",
		Episode: []string{"https://rickandmortyapi.com/api/episode/1"},
	}})
	f.episodesErr = &DecodeError{Shape: ShapeEpisode, Err: errors.New("unexpected EOF")}

	var selected []domain.CharacterDetail
	var failures []string
	s := newTestSession(f).WithHooks(SessionHooks{
		OnCharacter: func(d domain.CharacterDetail) { selected = append(selected, d) },
		OnError:     func(op string, err error) { failures = append(failures, op) },
	})
	ctx := context.Background()
	_, err := s.LoadNextPage(ctx)
	require.NoError(t, err)

	detail, err := s.SelectCharacter(ctx, 0)
	require.Error(t, err)
	assert.False(t, detail.Resolved)
	assert.Equal(t, "Rick Sanchez", detail.Character.Name)
	require.Len(t, selected, 1)
	assert.Equal(t, []string{"select_character"}, failures)
}

func TestGallerySession_OpenEpisodeCachesNames(t *testing.T) {
	f := newFakeCatalogue()
	ep := domain.Episode{ID: 1, Name: "Pilot", URL: "https://rickandmortyapi.com/api/episode/1"}
	f.names[ep.URL] = []string{"Rick Sanchez", "Morty Smith"}
	s := newTestSession(f)

	detail, err := s.OpenEpisode(context.Background(), ep)
	require.NoError(t, err)
	assert.True(t, detail.Resolved)
	assert.Equal(t, []string{"Rick Sanchez", "Morty Smith"}, detail.CharacterNames)

	_, err = s.OpenEpisode(context.Background(), ep)
	require.NoError(t, err)
	assert.Len(t, f.nameCalls, 1)
}

func TestGallerySession_PublishesEvents(t *testing.T) {
	bus := memorybus.New()
	defer bus.Close()
	ch, cancel := bus.Subscribe("gallery.")
	defer cancel()

	f := twoPageCatalogue()
	s := NewGallerySession(zerolog.Nop(), f, f, bus)
	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	var evt ports.Event
	select {
	case evt = <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for gallery event")
	}
	require.Equal(t, TopicGalleryChanged, evt.Topic)

	var view GalleryView
	require.NoError(t, json.Unmarshal(evt.Payload, &view))
	assert.Equal(t, domain.ModeBrowsing, view.Mode)
	assert.Len(t, view.Characters, 20)

	_, err = s.Search(context.Background(), "")
	require.NoError(t, err)
	require.ErrorIs(t, s.ClearSearch(), domain.ErrInvalidTransition)
	select {
	case evt = <-ch:
		t.Fatalf("unexpected event %s", evt.Topic)
	default:
	}
}

func TestGallerySession_ViewIsACopy(t *testing.T) {
	f := twoPageCatalogue()
	s := newTestSession(f)
	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	view := s.View()
	view.Characters[0].Name = "Mutated"
	assert.Equal(t, "Character 1", s.View().Characters[0].Name)
}
