package creative

import (
	"context"
	"regexp"
	"slices"
	"strings"
)

// scene type -> tone -> phrases
type phraseTable map[string]map[Tone][]string

// fallback keys for unknown scene types and tones
const (
	defaultSceneType = "product_demo"
	defaultTone      = ToneProfessional
)

var ctaTemplates = phraseTable{
	"product_demo": {
		ToneProfessional: {"Get Started Today", "Try It Free", "Download Now", "Learn More", "Get Your Copy", "Start Free Trial", "Buy Now", "Order Today"},
		ToneCasual:       {"Give It a Try", "Check It Out", "Get Started", "Join Us", "Try It Out", "See How", "Take a Look", "Get Going"},
		ToneFunny:        {"Don't Wait", "Jump In", "Go For It", "Why Not?", "Let's Do This", "Ready? Go!", "Make It Happen", "Just Do It"},
	},
	"lifestyle": {
		ToneProfessional: {"Join Our Community", "Start Your Journey", "Transform Today", "Begin Now", "Take Action", "Get Started", "Change Your Life", "Make It Happen"},
		ToneCasual:       {"Come Along", "Join the Fun", "Be Part of It", "Get Involved", "Come On In", "Jump On Board", "Be There", "Don't Miss Out"},
		ToneFunny:        {"Don't Be Left Out", "Join the Party", "Come Play", "Get In On This", "Be Cool Like Us", "Don't Be Square", "Come On Over", "Be Awesome"},
	},
	"tutorial": {
		ToneProfessional: {"Learn More", "Master This", "Get Skilled", "Become Expert", "Study Now", "Improve Skills", "Level Up", "Advance Today"},
		ToneCasual:       {"Learn This", "Try It Yourself", "Give It a Go", "Practice Now", "Have a Go", "Test It Out", "See If You Can", "Challenge Yourself"},
		ToneFunny:        {"Be a Pro", "Show Off", "Impress Friends", "Be Amazing", "Look Smart", "Be Cool", "Stand Out", "Be Awesome"},
	},
	"testimonial": {
		ToneProfessional: {"Join Success Stories", "Be Like Them", "Start Your Success", "Achieve Results", "Get Results", "See Success", "Win Like Them", "Succeed Today"},
		ToneCasual:       {"Be Like Them", "Join Winners", "Get Results Too", "Be Successful", "Win Like This", "Join Success", "Be a Winner", "Get There"},
		ToneFunny:        {"Be a Winner", "Join the Winners", "Be Like Them", "Win Too", "Be Successful", "Join Success", "Be Awesome", "Win Big"},
	},
}

var contextualTemplates = phraseTable{
	"product_demo": {
		ToneProfessional: {"See how it works in real-time", "Experience the difference", "Watch the magic happen", "See the results instantly", "Experience seamless performance", "Watch innovation in action", "See quality in motion", "Experience excellence"},
		ToneCasual:       {"Pretty cool, right?", "See how easy that was?", "That's how it's done", "Pretty neat, huh?", "See what I mean?", "That's the magic", "Pretty awesome stuff", "See how smooth?"},
		ToneFunny:        {"Boom! Just like that", "Easy peasy, lemon squeezy", "That's how we roll", "Pretty slick, right?", "That's what I'm talking about", "Boom! Problem solved", "That's how you do it", "Pretty sweet, huh?"},
	},
	"lifestyle": {
		ToneProfessional: {"This is what success looks like", "See the transformation", "Experience the change", "This is your future", "See what's possible", "This is the lifestyle", "Experience the difference", "See the results"},
		ToneCasual:       {"This is the life", "Pretty amazing, right?", "This is living", "See what I mean?", "This is awesome", "Pretty cool lifestyle", "This is it", "See the difference?"},
		ToneFunny:        {"Living the dream", "This is how it's done", "Pretty sweet life", "This is living", "Living large", "This is awesome", "Pretty cool, right?", "This is the way"},
	},
	"tutorial": {
		ToneProfessional: {"Follow these simple steps", "Watch and learn", "Master this technique", "Learn the process", "See the method", "Follow the steps", "Learn the skill", "Master the art"},
		ToneCasual:       {"Here's how you do it", "Watch this closely", "Pretty simple, right?", "See how easy?", "That's how it works", "Pretty straightforward", "See the technique?", "That's the trick"},
		ToneFunny:        {"Easy as pie", "Piece of cake", "Nothing to it", "Child's play", "No big deal", "Super simple", "Easy peasy", "No sweat"},
	},
	"testimonial": {
		ToneProfessional: {"Real results from real people", "See what customers say", "Hear their success story", "This is their experience", "See the transformation", "Real customer feedback", "Hear their journey", "See their results"},
		ToneCasual:       {"Pretty amazing story", "See what they say", "Pretty cool results", "That's their experience", "Pretty awesome feedback", "See their story", "Pretty great results", "That's what they say"},
		ToneFunny:        {"Pretty awesome, right?", "That's what they say", "Pretty cool story", "That's their experience", "Pretty amazing results", "That's the truth", "Pretty sweet feedback", "That's real talk"},
	},
}

// phrases for a scene and tone, falling back to product_demo and professional
func (t phraseTable) lookup(sceneType string, tone Tone) []string {
	byTone, ok := t[sceneType]
	if !ok {
		byTone = t[defaultSceneType]
	}
	phrases, ok := byTone[tone]
	if !ok {
		phrases = byTone[defaultTone]
	}
	return phrases
}

// TemplateGenerator picks canned phrases. It never fails and never returns
// an empty phrase.
type TemplateGenerator struct {
	pick Picker
}

func NewTemplateGenerator(pick Picker) *TemplateGenerator {
	if pick == nil {
		pick = RandomPicker
	}
	return &TemplateGenerator{pick: pick}
}

func (g *TemplateGenerator) Generate(_ context.Context, req Request) (string, error) {
	return g.Phrase(req), nil
}

// Phrase is Generate without the context and error.
func (g *TemplateGenerator) Phrase(req Request) string {
	if req.Theme == ThemeCTA {
		phrases := ctaTemplates.lookup(req.Scene.SceneType, req.Tone)
		return enhanceCTA(phrases[g.pick(len(phrases))], req.Context)
	}
	phrases := contextualTemplates.lookup(req.Scene.SceneType, req.Tone)
	return enhanceLine(phrases[g.pick(len(phrases))], req.Context)
}

var (
	ctaVerbs   = regexp.MustCompile(`\b(Get|Try|Start)\b`)
	prettyWord = regexp.MustCompile(`\b[Pp]retty\b`)
)

func contextWords(context string) []string {
	return strings.Fields(strings.ToLower(context))
}

// "free" in the context turns Get/Try/Start into Get Free/Try Free/Start Free,
// otherwise "now" appends Now
func enhanceCTA(cta, context string) string {
	words := contextWords(context)
	if slices.Contains(words, "free") {
		return ctaVerbs.ReplaceAllString(cta, "$1 Free")
	}
	if slices.Contains(words, "now") {
		return cta + " Now"
	}
	return cta
}

// "amazing" in the context swaps pretty for amazing, keeping the case
func enhanceLine(line, context string) string {
	if !slices.Contains(contextWords(context), "amazing") {
		return line
	}
	return prettyWord.ReplaceAllStringFunc(line, func(w string) string {
		if w[0] == 'P' {
			return "Amazing"
		}
		return "amazing"
	})
}
