package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/fridgechef/internal/config"
	"github.com/lehigh-university-libraries/fridgechef/internal/generation"
	"github.com/lehigh-university-libraries/fridgechef/internal/models"
	"github.com/lehigh-university-libraries/fridgechef/internal/storage"
)

// Generator is the recipe generation client as seen by the controller
type Generator interface {
	Generate(ctx context.Context, image []byte, mimeType string, priorNames []string) (*models.RecipeResult, error)
}

type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseImageLoaded    Phase = "image_loaded"
	PhaseGenerating     Phase = "generating"
	PhaseReady          Phase = "ready"
	PhaseSuggestingMore Phase = "suggesting_more"
)

// View is a snapshot of everything the UI renders
type View struct {
	Phase          Phase              `json:"phase"`
	Image          string             `json:"image,omitempty"`
	Recipes        []models.Recipe    `json:"recipes"`
	ActiveID       string             `json:"active_id,omitempty"`
	Error          string             `json:"error,omitempty"`
	ConfigError    string             `json:"config_error,omitempty"`
	Loading        bool               `json:"loading"`
	SuggestingMore bool               `json:"suggesting_more"`
	History        []models.RecipeSet `json:"history"`
}

// Controller owns the state of the current recipe session and the cached history.
// At most one generation call is in flight at a time; the lock is released
// while it runs so the view can still be read.
type Controller struct {
	generator Generator
	store     storage.Store
	configErr *config.ConfigurationError
	now       func() time.Time

	mu        sync.Mutex
	phase     Phase
	image     string
	imageData []byte
	mimeType  string
	recipes   []models.Recipe
	activeID  string
	errMsg    string
	history   []models.RecipeSet
}

type Option func(*Controller)

// WithConfigError disables analyze and suggest-more for the controller's lifetime
func WithConfigError(err *config.ConfigurationError) Option {
	return func(c *Controller) {
		c.configErr = err
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func New(generator Generator, store storage.Store, opts ...Option) *Controller {
	c := &Controller{
		generator: generator,
		store:     store,
		now:       time.Now,
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.history = store.Load()
	return c
}

func (c *Controller) busy() bool {
	return c.phase == PhaseGenerating || c.phase == PhaseSuggestingMore
}

// LoadImage starts a new session from a photo. Any previous recipes, error
// and active session reference are dropped.
func (c *Controller) LoadImage(data []byte) error {
	mimeType, err := generation.DetectImageType(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return ErrBusy
	}

	c.imageData = data
	c.mimeType = mimeType
	c.image = models.EncodeDataURI(mimeType, data)
	c.recipes = nil
	c.errMsg = ""
	c.activeID = ""
	c.phase = PhaseImageLoaded

	slog.Info("Image loaded", "mime_type", mimeType, "bytes", len(data))
	return nil
}

// Analyze asks for recipes for the loaded image and, on success, records a new session
func (c *Controller) Analyze(ctx context.Context) error {
	c.mu.Lock()
	if c.configErr != nil {
		c.mu.Unlock()
		return c.configErr
	}
	if c.busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.imageData == nil {
		c.mu.Unlock()
		return ErrNoImage
	}
	c.phase = PhaseGenerating
	c.errMsg = ""
	image, mimeType, dataURI := c.imageData, c.mimeType, c.image
	c.mu.Unlock()

	result, err := c.generate(ctx, image, mimeType, nil, PhaseImageLoaded)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		slog.Error("Failed to get recipes", "err", err)
		return c.failAnalyze(&RequestError{Message: "Failed to get recipes: " + err.Error(), Err: err})
	}
	if result.HasError() {
		return c.failAnalyze(&NoResultsError{Message: result.Error})
	}
	if len(result.Recipes) == 0 {
		return c.failAnalyze(&NoResultsError{Message: msgNoIngredients})
	}

	created := c.now().UnixMilli()
	if len(c.history) > 0 && created <= c.history[0].CreatedAt {
		created = c.history[0].CreatedAt + 1
	}
	set := models.RecipeSet{
		ID:        newSessionID(created),
		Image:     dataURI,
		Recipes:   models.CloneRecipes(result.Recipes),
		CreatedAt: created,
	}

	c.history = append([]models.RecipeSet{set}, c.history...)
	c.persist()

	c.recipes = models.CloneRecipes(result.Recipes)
	c.activeID = set.ID
	c.phase = PhaseReady

	slog.Info("Recipe session created", "session_id", set.ID, "recipes", len(set.Recipes))
	return nil
}

// generate runs the generator without holding the lock. If it panics the phase
// is reset to fallback so the controller doesn't stay busy forever.
func (c *Controller) generate(ctx context.Context, image []byte, mimeType string, prior []string, fallback Phase) (*models.RecipeResult, error) {
	completed := false
	defer func() {
		if !completed {
			c.mu.Lock()
			c.phase = fallback
			c.mu.Unlock()
		}
	}()

	result, err := c.generator.Generate(ctx, image, mimeType, prior)
	completed = true
	return result, err
}

func (c *Controller) failAnalyze(err error) error {
	c.phase = PhaseImageLoaded
	c.recipes = nil
	c.activeID = ""
	c.errMsg = err.Error()
	return err
}

// SuggestMore asks for recipes that differ from the ones already in the active
// session and appends them. The persisted entry keeps its id, image and createdAt.
func (c *Controller) SuggestMore(ctx context.Context) error {
	c.mu.Lock()
	if c.configErr != nil {
		c.mu.Unlock()
		return c.configErr
	}
	if c.busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.phase != PhaseReady || c.activeID == "" {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	c.phase = PhaseSuggestingMore
	c.errMsg = ""
	image, mimeType := c.imageData, c.mimeType
	prior := make([]string, 0, len(c.recipes))
	for _, r := range c.recipes {
		prior = append(prior, r.Name)
	}
	c.mu.Unlock()

	result, err := c.generate(ctx, image, mimeType, prior, PhaseReady)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseReady

	if err != nil {
		slog.Error("Failed to get more recipes", "session_id", c.activeID, "err", err)
		return c.failSuggest(&RequestError{Message: "Failed to get more recipes: " + err.Error(), Err: err})
	}
	if result.HasError() {
		return c.failSuggest(&NoResultsError{Message: result.Error})
	}
	if len(result.Recipes) == 0 {
		return c.failSuggest(&NoResultsError{Message: msgNoMoreIdeas})
	}

	c.recipes = append(c.recipes, models.CloneRecipes(result.Recipes)...)

	found := false
	for i := range c.history {
		if c.history[i].ID == c.activeID {
			c.history[i].Recipes = models.CloneRecipes(c.recipes)
			found = true
			break
		}
	}
	if found {
		c.persist()
	} else {
		slog.Debug("Active session no longer in history, not persisting", "session_id", c.activeID)
	}

	slog.Info("Added recipes to session", "session_id", c.activeID, "added", len(result.Recipes), "total", len(c.recipes))
	return nil
}

func (c *Controller) failSuggest(err error) error {
	c.errMsg = err.Error()
	return err
}

// SelectHistoryItem makes a saved session the current one so it can be continued
func (c *Controller) SelectHistoryItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return ErrBusy
	}

	for _, set := range c.history {
		if set.ID != id {
			continue
		}
		mimeType, data, err := models.DecodeDataURI(set.Image)
		if err != nil {
			return fmt.Errorf("failed to decode saved image: %w", err)
		}
		c.image = set.Image
		c.imageData = data
		c.mimeType = mimeType
		c.recipes = models.CloneRecipes(set.Recipes)
		c.activeID = set.ID
		c.errMsg = ""
		c.phase = PhaseReady
		return nil
	}
	return ErrUnknownSession
}

// ClearHistory empties the persisted collection. The current view is left alone.
func (c *Controller) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		slog.Warn("Failed to clear saved recipes", "err", err)
	}
	c.history = []models.RecipeSet{}
	slog.Info("Recipe history cleared")
}

// History returns a copy of the cached history, newest first
func (c *Controller) History() []models.RecipeSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneHistory(c.history)
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Phase:          c.phase,
		Image:          c.image,
		Recipes:        models.CloneRecipes(c.recipes),
		ActiveID:       c.activeID,
		Error:          c.errMsg,
		Loading:        c.phase == PhaseGenerating,
		SuggestingMore: c.phase == PhaseSuggestingMore,
		History:        cloneHistory(c.history),
	}
	if v.Recipes == nil {
		v.Recipes = []models.Recipe{}
	}
	if c.configErr != nil {
		v.ConfigError = c.configErr.Error()
	}
	return v
}

// persist writes the cached history. Failures are logged and otherwise ignored:
// the in-memory history stays authoritative for this process.
func (c *Controller) persist() {
	if err := c.store.Save(c.history); err != nil {
		slog.Warn("Failed to save recipes to storage", "err", err)
	}
}

func cloneHistory(sets []models.RecipeSet) []models.RecipeSet {
	out := make([]models.RecipeSet, len(sets))
	for i, s := range sets {
		out[i] = s.Clone()
	}
	return out
}

// newSessionID returns a time-ordered UUIDv7, falling back to the timestamp itself
func newSessionID(createdAt int64) string {
	id, err := uuid.NewV7()
	if err != nil {
		return strconv.FormatInt(createdAt, 10)
	}
	return id.String()
}
