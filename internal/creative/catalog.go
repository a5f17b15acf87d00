package creative

import "encoding/json"

// Option is one selectable theme, style or scene type.
type Option struct {
	Name        string
	Description string
}

// StyleCatalog lists what phrase requests can ask for, in display order.
type StyleCatalog struct {
	TextThemes []Option
	Styles     []Option
	SceneTypes []Option
}

func Catalog() StyleCatalog {
	return StyleCatalog{
		TextThemes: []Option{
			{string(ThemeContextual), "Contextual text that enhances the scene and feels part of the story"},
			{string(ThemeCTA), "Call-to-action (≤ 5 words) that motivates action"},
		},
		Styles: []Option{
			{string(ToneProfessional), "Professional and business-focused"},
			{string(ToneCasual), "Relaxed and conversational"},
			{string(ToneFunny), "Humorous and light-hearted"},
			{string(ToneInspirational), "Motivational and uplifting"},
			{string(ToneTechnical), "Technical and precise"},
		},
		SceneTypes: []Option{
			{"product_demo", "Product demonstration or showcase"},
			{"lifestyle", "Lifestyle or aspirational content"},
			{"tutorial", "Educational or how-to content"},
			{"testimonial", "Customer testimonial or review"},
		},
	}
}

// MarshalJSON renders each list as a name to description object.
func (c StyleCatalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]string{
		"textThemes": optionMap(c.TextThemes),
		"styles":     optionMap(c.Styles),
		"sceneTypes": optionMap(c.SceneTypes),
	})
}

func optionMap(opts []Option) map[string]string {
	m := make(map[string]string, len(opts))
	for _, o := range opts {
		m[o.Name] = o.Description
	}
	return m
}
