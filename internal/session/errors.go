package session

import "errors"

// Precondition failures. None of these make a network call or write to storage.
var (
	ErrNoImage         = errors.New("no image loaded")
	ErrNoActiveSession = errors.New("no active recipe session")
	ErrBusy            = errors.New("a recipe request is already in progress")
	ErrUnknownSession  = errors.New("recipe session not found")
)

const (
	msgNoIngredients = "I couldn't find enough ingredients to suggest a recipe. Please try a clearer photo or a fridge with more items."
	msgNoMoreIdeas   = "I couldn't come up with any more recipes. Looks like we've used all our ideas!"
)

// NoResultsError means the service answered but gave no usable recipes
type NoResultsError struct {
	Message string
}

func (e *NoResultsError) Error() string {
	return e.Message
}

// RequestError means the generation call itself failed. Message is what the user sees.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
