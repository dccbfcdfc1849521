package generation

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/fridgechef/internal/providers"
)

// NoIngredientsMessage is what the model is told to put in the error field
const NoIngredientsMessage = "I couldn't find enough ingredients to suggest a recipe. Please try a clearer photo."

// BuildPrompt generates the cooking assistant instructions. With prior names the
// model is asked for recipes different from those; otherwise for 1 or 2 from scratch.
func BuildPrompt(priorNames []string) string {
	var suggestion string
	if len(priorNames) > 0 {
		suggestion = fmt.Sprintf("You have already suggested the following recipes: %s. Please provide 2 new and different recipes.", strings.Join(priorNames, ", "))
	} else {
		suggestion = "Based *only* on the identified ingredients, suggest 1 or 2 simple recipes."
	}

	return fmt.Sprintf(`You are a helpful cooking assistant. Your task is to analyze the provided image of the inside of a fridge.

Follow these steps:
1.  Identify only the visible food ingredients (e.g., eggs, milk, vegetables, sauces, fruits, leftovers).
2.  Ignore all non-food items like containers, packaging, bottles, or background objects.
3.  %s
4.  Each recipe must include a recipe name, a list of the required ingredients from the image, and easy-to-follow, step-by-step instructions (maximum 4 steps).
5.  If you cannot identify enough ingredients to create at least one sensible new recipe, set the 'error' field in your response.

OUTPUT FORMAT:
Respond with ONLY a JSON object in the following format:

{
  "recipes": [
    {"name": "...", "ingredients": ["..."], "instructions": ["..."]}
  ],
  "error": "only present when no recipe can be suggested"
}

Your response must be friendly, concise, and suitable for beginner cooks.`, suggestion)
}

// RecipeSchema declares the structured output the service must produce
func RecipeSchema() *providers.Schema {
	return &providers.Schema{
		Type: providers.TypeObject,
		Properties: map[string]*providers.Schema{
			"recipes": {
				Type:        providers.TypeArray,
				Description: "An array of 1 or 2 simple recipes.",
				Items: &providers.Schema{
					Type: providers.TypeObject,
					Properties: map[string]*providers.Schema{
						"name": {
							Type:        providers.TypeString,
							Description: "The name of the recipe.",
						},
						"ingredients": {
							Type:        providers.TypeArray,
							Description: "List of required ingredients identified from the image.",
							Items:       &providers.Schema{Type: providers.TypeString},
						},
						"instructions": {
							Type:        providers.TypeArray,
							Description: "Easy step-by-step cooking instructions, maximum 4 steps.",
							Items:       &providers.Schema{Type: providers.TypeString},
						},
					},
					Required: []string{"name", "ingredients", "instructions"},
				},
			},
			"error": {
				Type:        providers.TypeString,
				Description: fmt.Sprintf("Set to '%s' if no new recipes can be generated. Otherwise, this field should not be present.", NoIngredientsMessage),
			},
		},
	}
}
