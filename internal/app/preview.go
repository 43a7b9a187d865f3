package app

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/dk/stagecraft/internal/block"
	"github.com/dk/stagecraft/internal/ctxlog"
	"github.com/dk/stagecraft/internal/depscan"
	"github.com/dk/stagecraft/internal/services"
)

// generationSystemPrompt steers providers toward fenced output the parse
// stage can mine.
const generationSystemPrompt = "You generate web content. Answer with fenced code blocks " +
	"(```html, ```css, ```js, ```react) containing complete, runnable fragments."

func (a *App) generationRequest(prompt string) services.Request {
	return services.Request{Prompt: prompt, System: generationSystemPrompt}
}

// buildPreview produces the final self-contained document. A component block
// goes to the render service when one is configured; everything else is
// assembled locally from the session's blocks. Either way, sources pass
// through the optimizer first.
func (a *App) buildPreview(ctx context.Context, sess *session) (string, error) {
	logger := ctxlog.FromContext(ctx)

	if component := firstBlockOfType(sess.blocks, block.TypeComponent); component != nil && a.renderer != nil {
		logger.Debug("Rendering component preview remotely.", "block", component.ID)
		return a.renderer.Render(ctx, services.RenderRequest{
			Source: a.optimizer.Clean(component.Code),
		})
	}

	logger.Debug("Assembling preview locally.", "blocks", len(sess.blocks))
	return a.assembleDocument(sess), nil
}

// assembleDocument stitches the session's blocks into one HTML page: markup
// in the body, stylesheets in a style tag, scripts at the end, CDN resources
// as script tags in the head. A full markup document short-circuits and is
// returned as-is.
func (a *App) assembleDocument(sess *session) string {
	if markup := firstBlockOfType(sess.blocks, block.TypeMarkup); markup != nil {
		if strings.Contains(strings.ToLower(markup.Code), "<html") {
			return a.optimizer.Clean(markup.Code)
		}
	}

	var head, body, scripts strings.Builder
	for _, d := range depscan.CDNResources(sess.deps) {
		fmt.Fprintf(&head, "  <script src=%q></script>\n", cdnURL(d))
	}
	for _, b := range sess.blocks {
		code := a.optimizer.Clean(b.Code)
		switch b.Type {
		case block.TypeMarkup:
			body.WriteString(code)
			body.WriteString("\n")
		case block.TypeStylesheet:
			fmt.Fprintf(&head, "  <style>\n%s  </style>\n", code)
		case block.TypeScript, block.TypeComponent:
			fmt.Fprintf(&scripts, "  <script>\n%s  </script>\n", code)
		case block.TypePlain:
			fmt.Fprintf(&body, "<pre>%s</pre>\n", html.EscapeString(b.Code))
		}
	}

	return fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n%s</head>\n<body>\n%s%s</body>\n</html>\n",
		head.String(), body.String(), scripts.String())
}

// cdnURL rebuilds a loadable URL for a CDN dependency. Only the hosts the
// analyzer recognizes appear here, so unpkg is a safe default shape.
func cdnURL(d depscan.Dependency) string {
	if d.Name == "tailwindcss" {
		return "https://cdn.tailwindcss.com"
	}
	if d.Version != "" {
		return fmt.Sprintf("https://unpkg.com/%s@%s", d.Name, d.Version)
	}
	return fmt.Sprintf("https://unpkg.com/%s", d.Name)
}

func firstBlockOfType(blocks []block.ContentBlock, kind block.Type) *block.ContentBlock {
	for i := range blocks {
		if blocks[i].Type == kind {
			return &blocks[i]
		}
	}
	return nil
}
