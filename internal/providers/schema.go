package providers

// Schema is a provider-neutral subset of JSON schema used to request
// structured output. Each provider converts it to its own representation.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

const (
	TypeObject = "object"
	TypeArray  = "array"
	TypeString = "string"
)
