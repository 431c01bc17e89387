package templates

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
)

const blankMarkup = `<!DOCTYPE html>
<html>
<head>
<title>Untitled</title>
</head>
<body>
<h1>Untitled page</h1>
<p>Start writing here.</p>
</body>
</html>`

const landingMarkup = `<!DOCTYPE html>
<html>
<head>
<title>Landing</title>
<style>
body { font-family: sans-serif; margin: 0; }
.hero { padding: 80px 24px; text-align: center; background: #1a1a2e; color: #fff; }
.features { display: flex; gap: 24px; padding: 48px 24px; }
.feature { flex: 1; }
.cta { display: inline-block; margin-top: 24px; padding: 12px 32px; background: #e94560; color: #fff; }
</style>
</head>
<body>
<div class="hero">
<h1>Your product name</h1>
<p>One sentence that explains what it does and why it matters.</p>
<a class="cta" href="#">Get started</a>
</div>
<div class="features">
<div class="feature">
<h2>Fast</h2>
<p>Describe the first thing your product does well.</p>
</div>
<div class="feature">
<h2>Simple</h2>
<p>Describe the second thing your product does well.</p>
</div>
<div class="feature">
<h2>Reliable</h2>
<p>Describe the third thing your product does well.</p>
</div>
</div>
</body>
</html>`

const articleMarkup = `<!DOCTYPE html>
<html>
<head>
<title>Article</title>
<style>
body { font-family: Georgia, serif; max-width: 680px; margin: 0 auto; padding: 48px 24px; line-height: 1.6; }
h1 { line-height: 1.2; }
.byline { color: #666; font-style: italic; }
img { max-width: 100%; }
</style>
</head>
<body>
<h1>Article headline</h1>
<p class="byline">By an author, on a date</p>
<p>Opening paragraph that hooks the reader and sets up the piece.</p>
<h2>First section</h2>
<p>Body text for the first section of the article.</p>
<h2>Second section</h2>
<p>Body text for the second section of the article.</p>
</body>
</html>`

// SeedDefaults registers the built-in starter templates. Already
// present entries are left untouched so edits via the API survive
// restarts within a process lifetime.
func (s *Scanner) SeedDefaults() error {
	defaults := []types.Template{
		{
			ID:          "blank",
			Name:        "Blank Page",
			Description: "An empty page with a heading and a paragraph",
			Category:    "starter",
			Author:      "builtin",
			Tags:        []string{"starter", "minimal"},
			Markup:      blankMarkup,
		},
		{
			ID:          "landing",
			Name:        "Landing Page",
			Description: "Hero section with a three column feature row",
			Category:    "marketing",
			Author:      "builtin",
			Tags:        []string{"starter", "marketing", "hero"},
			Markup:      landingMarkup,
		},
		{
			ID:          "article",
			Name:        "Article",
			Description: "Single column long-form article layout",
			Category:    "editorial",
			Author:      "builtin",
			Tags:        []string{"starter", "editorial", "blog"},
			Markup:      articleMarkup,
		},
	}

	var seeded int
	for i := range defaults {
		tpl := defaults[i]
		if s.library.Exists(tpl.ID) {
			continue
		}
		if err := s.library.Save(&tpl); err != nil {
			s.logger.Warn("failed to seed template",
				zap.String("name", tpl.Name),
				zap.Error(err))
			continue
		}
		seeded++
	}

	s.logger.Info("seeded default templates", zap.Int("count", seeded))
	return nil
}
