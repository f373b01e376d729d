package gemini

import (
	"google.golang.org/genai"

	"veribuy/models"
)

func productSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":           {Type: genai.TypeString},
			"brand":          {Type: genai.TypeString},
			"category":       {Type: genai.TypeString},
			"estimatedPrice": {Type: genai.TypeString},
			"description":    {Type: genai.TypeString},
			"imageUrl":       {Type: genai.TypeString, Description: "Leave empty when unknown"},
		},
		Required: []string{"name", "brand", "category", "estimatedPrice", "description"},
	}
}

func authenticitySchema() *genai.Schema {
	verdicts := make([]string, len(models.Verdicts))
	for i, v := range models.Verdicts {
		verdicts[i] = string(v)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":     {Type: genai.TypeNumber},
			"verdict":   {Type: genai.TypeString, Enum: verdicts},
			"flags":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"reasoning": {Type: genai.TypeString},
		},
		Required: []string{"score", "verdict", "flags", "reasoning"},
	}
}

func reviewSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"sentiment": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"positive": {Type: genai.TypeInteger},
					"neutral":  {Type: genai.TypeInteger},
					"negative": {Type: genai.TypeInteger},
				},
				Required: []string{"positive", "neutral", "negative"},
			},
			"pros":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"cons":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"fakeReviewCount": {Type: genai.TypeInteger},
			"summary":         {Type: genai.TypeString},
		},
		Required: []string{"sentiment", "pros", "cons", "fakeReviewCount", "summary"},
	}
}
