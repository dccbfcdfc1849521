package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/fridgechef/internal/config"
	"github.com/lehigh-university-libraries/fridgechef/internal/generation"
	"github.com/lehigh-university-libraries/fridgechef/internal/models"
	"github.com/lehigh-university-libraries/fridgechef/internal/storage"
)

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR fridge")

type reply struct {
	result *models.RecipeResult
	err    error
}

type fakeGenerator struct {
	mu      sync.Mutex
	replies []reply
	calls   [][]string
	block   chan struct{}
	panics  bool
}

func (f *fakeGenerator) Generate(ctx context.Context, image []byte, mimeType string, priorNames []string) (*models.RecipeResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), priorNames...))
	if f.panics {
		panic("generator exploded")
	}
	if len(f.replies) == 0 {
		return nil, errors.New("no reply queued")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.result, r.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type failingStore struct {
	*storage.MemoryStore
}

func (s failingStore) Save(sets []models.RecipeSet) error {
	return errors.New("quota exceeded")
}

func recipes(names ...string) *models.RecipeResult {
	out := &models.RecipeResult{}
	for _, n := range names {
		out.Recipes = append(out.Recipes, models.Recipe{
			Name:         n,
			Ingredients:  []string{n + " ingredient"},
			Instructions: []string{"Cook " + n},
		})
	}
	return out
}

func fixedClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time { return t }
}

func newController(t *testing.T, gen *fakeGenerator, store storage.Store, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock())}, opts...)
	return New(gen, store, opts...)
}

func TestAnalyzeCreatesSession(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{result: &models.RecipeResult{Recipes: []models.Recipe{{
		Name:         "Veggie Omelette",
		Ingredients:  []string{"eggs", "spinach"},
		Instructions: []string{"Whisk eggs", "Cook with spinach"},
	}}}}}}
	store := storage.NewMemoryStore()
	c := newController(t, gen, store)

	if err := c.LoadImage(pngImage); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	saved := store.Load()
	if len(saved) != 1 {
		t.Fatalf("Expected 1 persisted set, got %d", len(saved))
	}
	set := saved[0]
	if set.ID == "" {
		t.Error("Expected a session id")
	}
	if set.CreatedAt != 1_700_000_000_000 {
		t.Errorf("Expected createdAt from clock, got %d", set.CreatedAt)
	}
	if set.Image != models.EncodeDataURI("image/png", pngImage) {
		t.Errorf("Unexpected image: %s", set.Image)
	}
	want := []models.Recipe{{Name: "Veggie Omelette", Ingredients: []string{"eggs", "spinach"}, Instructions: []string{"Whisk eggs", "Cook with spinach"}}}
	if !reflect.DeepEqual(set.Recipes, want) {
		t.Errorf("Expected %+v, got %+v", want, set.Recipes)
	}

	view := c.View()
	if view.Phase != PhaseReady || view.ActiveID != set.ID || view.Error != "" {
		t.Errorf("Unexpected view: phase=%s active=%s error=%q", view.Phase, view.ActiveID, view.Error)
	}
	if len(view.History) != 1 || view.History[0].ID != set.ID {
		t.Errorf("Expected view history to contain the new set")
	}
	if len(gen.calls) != 1 || len(gen.calls[0]) != 0 {
		t.Errorf("Expected one call with no prior names, got %v", gen.calls)
	}
}

func TestAnalyzeThenSuggestMoreAppends(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{
		{result: recipes("Veggie Omelette")},
		{result: recipes("Fruit Salad", "Veggie Omelette")},
		{result: recipes("Yogurt Parfait")},
	}}
	store := storage.NewMemoryStore()
	c := newController(t, gen, store)

	if err := c.LoadImage(pngImage); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	first := store.Load()[0]

	for i := 0; i < 2; i++ {
		if err := c.SuggestMore(context.Background()); err != nil {
			t.Fatalf("SuggestMore #%d failed: %v", i+1, err)
		}
	}

	saved := store.Load()
	if len(saved) != 1 {
		t.Fatalf("Expected the session to be updated in place, got %d sets", len(saved))
	}
	got := saved[0]
	if got.ID != first.ID || got.CreatedAt != first.CreatedAt || got.Image != first.Image {
		t.Errorf("Session identity changed: before %+v after %+v", first, got)
	}

	var names []string
	for _, r := range got.Recipes {
		names = append(names, r.Name)
	}
	wantNames := []string{"Veggie Omelette", "Fruit Salad", "Veggie Omelette", "Yogurt Parfait"}
	if !reflect.DeepEqual(names, wantNames) {
		t.Errorf("Expected %v, got %v", wantNames, names)
	}

	// Every earlier name must have been passed as an exclusion
	if !reflect.DeepEqual(gen.calls[1], []string{"Veggie Omelette"}) {
		t.Errorf("Unexpected exclusions for first suggest: %v", gen.calls[1])
	}
	if !reflect.DeepEqual(gen.calls[2], []string{"Veggie Omelette", "Fruit Salad", "Veggie Omelette"}) {
		t.Errorf("Unexpected exclusions for second suggest: %v", gen.calls[2])
	}

	if view := c.View(); len(view.Recipes) != 4 || view.Phase != PhaseReady {
		t.Errorf("Unexpected view after suggestions: %+v", view)
	}
}

func TestAnalyzeExplicitErrorLeavesHistory(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{result: &models.RecipeResult{Recipes: []models.Recipe{}, Error: "not enough ingredients"}}}}
	store := storage.NewMemoryStore()
	c := newController(t, gen, store)

	if err := c.LoadImage(pngImage); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	err := c.Analyze(context.Background())

	var noResults *NoResultsError
	if !errors.As(err, &noResults) {
		t.Fatalf("Expected NoResultsError, got %v", err)
	}
	if noResults.Message != "not enough ingredients" {
		t.Errorf("Expected exact message, got %q", noResults.Message)
	}
	if store.Saves() != 0 || len(store.Load()) != 0 {
		t.Errorf("Expected no persistence write")
	}
	view := c.View()
	if view.Error != "not enough ingredients" || view.Phase != PhaseImageLoaded || view.ActiveID != "" {
		t.Errorf("Unexpected view: %+v", view)
	}
}

func TestAnalyzeErrorWinsOverRecipes(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{result: &models.RecipeResult{Recipes: recipes("Soup").Recipes, Error: "blurry photo"}}}}
	store := storage.NewMemoryStore()
	c := newController(t, gen, store)
	_ = c.LoadImage(pngImage)

	if err := c.Analyze(context.Background()); err == nil || err.Error() != "blurry photo" {
		t.Errorf("Expected explicit error to win, got %v", err)
	}
	if len(store.Load()) != 0 {
		t.Error("Expected nothing persisted")
	}
}

func TestAnalyzeNoRecipes(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{result: &models.RecipeResult{}}}}
	c := newController(t, gen, storage.NewMemoryStore())
	_ = c.LoadImage(pngImage)

	err := c.Analyze(context.Background())
	var noResults *NoResultsError
	if !errors.As(err, &noResults) || noResults.Message != msgNoIngredients {
		t.Errorf("Expected no-ingredients message, got %v", err)
	}
}

func TestAnalyzeServiceFailure(t *testing.T) {
	svcErr := &generation.ServiceError{Message: "malformed response"}
	gen := &fakeGenerator{replies: []reply{{err: svcErr}}}
	store := storage.NewMemoryStore()
	c := newController(t, gen, store)
	_ = c.LoadImage(pngImage)

	err := c.Analyze(context.Background())
	if err == nil || err.Error() != "Failed to get recipes: malformed response" {
		t.Fatalf("Unexpected error: %v", err)
	}
	var target *generation.ServiceError
	if !errors.As(err, &target) {
		t.Error("Expected the service error to be reachable with errors.As")
	}
	if c.View().Error != "Failed to get recipes: malformed response" {
		t.Errorf("Unexpected view error: %q", c.View().Error)
	}
	if store.Saves() != 0 {
		t.Error("Expected no persistence write")
	}
}

func TestSuggestMoreWithoutSession(t *testing.T) {
	gen := &fakeGenerator{}
	store := storage.NewMemoryStore()
	c := newController(t, gen, store)

	if err := c.SuggestMore(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Expected ErrNoActiveSession, got %v", err)
	}

	_ = c.LoadImage(pngImage)
	if err := c.SuggestMore(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Expected ErrNoActiveSession with image but no session, got %v", err)
	}

	if gen.callCount() != 0 {
		t.Errorf("Expected no generation call, got %d", gen.callCount())
	}
	if store.Saves() != 0 {
		t.Errorf("Expected no persistence write, got %d", store.Saves())
	}
}

func TestSuggestMoreFailuresKeepSession(t *testing.T) {
	tests := []struct {
		name    string
		reply   reply
		message string
	}{
		{name: "explicit error", reply: reply{result: &models.RecipeResult{Error: "no more ideas"}}, message: "no more ideas"},
		{name: "empty", reply: reply{result: &models.RecipeResult{}}, message: msgNoMoreIdeas},
		{name: "call failure", reply: reply{err: &generation.ServiceError{Message: "empty response"}}, message: "Failed to get more recipes: empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{replies: []reply{{result: recipes("Soup")}, tt.reply}}
			store := storage.NewMemoryStore()
			c := newController(t, gen, store)
			_ = c.LoadImage(pngImage)
			if err := c.Analyze(context.Background()); err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			before := store.Load()

			err := c.SuggestMore(context.Background())
			if err == nil || err.Error() != tt.message {
				t.Errorf("Expected %q, got %v", tt.message, err)
			}

			view := c.View()
			if view.Phase != PhaseReady || view.Error != tt.message || len(view.Recipes) != 1 {
				t.Errorf("Unexpected view: %+v", view)
			}
			if !reflect.DeepEqual(store.Load(), before) || store.Saves() != 1 {
				t.Errorf("Persisted collection changed after failed suggest")
			}
		})
	}
}

func TestLoadImageStartsNewSession(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{result: recipes("Soup")}, {result: recipes("Stew")}}}
	store := storage.NewMemoryStore()
	c := newController(t, gen, store)

	_ = c.LoadImage(pngImage)
	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if err := c.LoadImage(pngImage); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}

	view := c.View()
	if view.Phase != PhaseImageLoaded || view.ActiveID != "" || len(view.Recipes) != 0 {
		t.Errorf("Expected fresh session state, got %+v", view)
	}

	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	saved := store.Load()
	if len(saved) != 2 {
		t.Fatalf("Expected two sessions, got %d", len(saved))
	}
	if saved[0].Recipes[0].Name != "Stew" || saved[0].CreatedAt <= saved[1].CreatedAt {
		t.Errorf("Expected newest session first with a later createdAt: %+v", saved)
	}
	if saved[0].ID == saved[1].ID {
		t.Error("Expected distinct session ids")
	}
}

func TestLoadImageRejectsNonImage(t *testing.T) {
	c := newController(t, &fakeGenerator{}, storage.NewMemoryStore())
	if err := c.LoadImage([]byte("hello, world")); !errors.Is(err, generation.ErrUnsupportedImage) {
		t.Errorf("Expected ErrUnsupportedImage, got %v", err)
	}
	if c.View().Phase != PhaseIdle {
		t.Errorf("Expected idle phase")
	}
}

func TestAnalyzeWithoutImage(t *testing.T) {
	gen := &fakeGenerator{}
	c := newController(t, gen, storage.NewMemoryStore())
	if err := c.Analyze(context.Background()); !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
	if gen.callCount() != 0 {
		t.Error("Expected no generation call")
	}
}

func TestConfigurationErrorGatesGeneration(t *testing.T) {
	gen := &fakeGenerator{}
	cfgErr := &config.ConfigurationError{Message: "API Key is not configured."}
	c := newController(t, gen, storage.NewMemoryStore(), WithConfigError(cfgErr))

	if err := c.LoadImage(pngImage); err != nil {
		t.Fatalf("LoadImage should still work: %v", err)
	}
	if err := c.Analyze(context.Background()); err != cfgErr {
		t.Errorf("Expected configuration error from Analyze, got %v", err)
	}
	if err := c.SuggestMore(context.Background()); err != cfgErr {
		t.Errorf("Expected configuration error from SuggestMore, got %v", err)
	}
	if gen.callCount() != 0 {
		t.Error("Expected no generation call")
	}
	if c.View().ConfigError != "API Key is not configured." {
		t.Errorf("Expected persistent config error in view, got %q", c.View().ConfigError)
	}
}

func TestBusyRefusesSecondRequest(t *testing.T) {
	gen := &fakeGenerator{
		replies: []reply{{result: recipes("Soup")}},
		block:   make(chan struct{}),
	}
	c := newController(t, gen, storage.NewMemoryStore())
	_ = c.LoadImage(pngImage)

	done := make(chan error, 1)
	go func() {
		done <- c.Analyze(context.Background())
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.View().Phase != PhaseGenerating {
		if time.Now().After(deadline) {
			t.Fatal("Analyze never entered the generating phase")
		}
		time.Sleep(time.Millisecond)
	}

	if !c.View().Loading {
		t.Error("Expected loading flag while generating")
	}
	if err := c.Analyze(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy from Analyze, got %v", err)
	}
	if err := c.SuggestMore(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy from SuggestMore, got %v", err)
	}
	if err := c.LoadImage(pngImage); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy from LoadImage, got %v", err)
	}

	close(gen.block)
	if err := <-done; err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if gen.callCount() != 1 {
		t.Errorf("Expected exactly one generation call, got %d", gen.callCount())
	}
}

func TestSelectHistoryItemContinuesSession(t *testing.T) {
	store := storage.NewMemoryStore()
	older := models.RecipeSet{
		ID:        "older",
		Image:     models.EncodeDataURI("image/png", pngImage),
		Recipes:   recipes("Soup").Recipes,
		CreatedAt: 1000,
	}
	if err := store.Save([]models.RecipeSet{older}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	gen := &fakeGenerator{replies: []reply{{result: recipes("Stew")}}}
	c := newController(t, gen, store)

	if err := c.SelectHistoryItem("missing"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Expected ErrUnknownSession, got %v", err)
	}
	if err := c.SelectHistoryItem("older"); err != nil {
		t.Fatalf("SelectHistoryItem failed: %v", err)
	}
	view := c.View()
	if view.ActiveID != "older" || view.Phase != PhaseReady || view.Image != older.Image {
		t.Errorf("Unexpected view after select: %+v", view)
	}

	if err := c.SuggestMore(context.Background()); err != nil {
		t.Fatalf("SuggestMore failed: %v", err)
	}
	if !reflect.DeepEqual(gen.calls[0], []string{"Soup"}) {
		t.Errorf("Expected Soup as exclusion, got %v", gen.calls[0])
	}
	saved := store.Load()
	if len(saved) != 1 || len(saved[0].Recipes) != 2 || saved[0].CreatedAt != 1000 {
		t.Errorf("Expected in-place update of the selected session, got %+v", saved)
	}
}

func TestClearHistory(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{result: recipes("Soup")}}}
	store := storage.NewMemoryStore()
	c := newController(t, gen, store)
	_ = c.LoadImage(pngImage)
	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	c.ClearHistory()

	if len(store.Load()) != 0 {
		t.Error("Expected empty store after clear")
	}
	view := c.View()
	if len(view.History) != 0 {
		t.Error("Expected empty cached history")
	}
	if len(view.Recipes) != 1 || view.ActiveID == "" {
		t.Errorf("Clearing history should not touch the current view: %+v", view)
	}
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{result: recipes("Soup")}}}
	c := newController(t, gen, failingStore{storage.NewMemoryStore()})
	_ = c.LoadImage(pngImage)

	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze should succeed even when saving fails: %v", err)
	}
	view := c.View()
	if view.Error != "" || len(view.History) != 1 || view.Phase != PhaseReady {
		t.Errorf("Expected in-memory state to survive the failed save: %+v", view)
	}
}

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic")
		}
	}()
	fn()
}

func TestGeneratorPanicDoesNotLeaveControllerBusy(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{result: recipes("Soup")}}}
	c := newController(t, gen, storage.NewMemoryStore())

	if err := c.LoadImage(pngImage); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	gen.panics = true
	mustPanic(t, func() { _ = c.SuggestMore(context.Background()) })
	if phase := c.View().Phase; phase != PhaseReady {
		t.Errorf("Expected ready after suggest-more panic, got %s", phase)
	}

	mustPanic(t, func() { _ = c.Analyze(context.Background()) })
	if phase := c.View().Phase; phase != PhaseImageLoaded {
		t.Errorf("Expected image_loaded after analyze panic, got %s", phase)
	}

	gen.panics = false
	if err := c.LoadImage(pngImage); err != nil {
		t.Errorf("Expected LoadImage to work after a panic, got %v", err)
	}
}
