package browser

import (
	"context"
	"strings"

	"pkt.systems/pslog"
)

// Page text extraction strategies, in priority order. Each evaluates to a
// string in the page; an empty result or a script error falls through to
// the next strategy. Character caps keep the payload inside prompt limits.
type extractStrategy struct {
	name string
	expr string
}

var extractStrategies = []extractStrategy{
	{name: "pdf_text_layer", expr: `(() => {
  const spans = document.querySelectorAll('.textLayer span');
  if (spans.length <= 5) return '';
  let text = '';
  for (const span of spans) text += span.textContent + ' ';
  return text.slice(0, 12000);
})()`},
	{name: "embedded_viewer", expr: `(() => {
  for (const frame of document.querySelectorAll('iframe')) {
    let doc = null;
    try { doc = frame.contentDocument; } catch (err) { continue; }
    if (!doc) continue;
    const spans = doc.querySelectorAll('.textLayer span');
    if (spans.length > 10) {
      let text = '';
      for (const span of spans) text += span.textContent + ' ';
      return text.slice(0, 12000);
    }
    const slides = doc.querySelectorAll('.slide, .slide-content, [class*="slide"]');
    if (slides.length > 0) {
      let text = '';
      for (const slide of slides) text += slide.innerText + '\n';
      if (text.trim()) return text.slice(0, 12000);
    }
  }
  return '';
})()`},
	{name: "lms_content", expr: `(() => {
  const selectors = ['.user_content', '.show-content', '#wiki_page_show .user_content', '.module-item-content', '#content article'];
  for (const selector of selectors) {
    const el = document.querySelector(selector);
    if (el && el.innerText && el.innerText.trim()) return el.innerText.slice(0, 10000);
  }
  return '';
})()`},
	{name: "main_content", expr: `(() => {
  const selectors = ['main', '[role="main"]', 'article', '.main-content', '#main-content'];
  for (const selector of selectors) {
    const el = document.querySelector(selector);
    if (el && el.innerText && el.innerText.trim()) return el.innerText.slice(0, 10000);
  }
  return '';
})()`},
	{name: "stripped_body", expr: `(() => {
  if (!document.body) return '';
  const clone = document.body.cloneNode(true);
  for (const el of clone.querySelectorAll('nav, header, footer, [role="navigation"], aside, script, style')) el.remove();
  return (clone.innerText || clone.textContent || '').slice(0, 8000);
})()`},
}

// extractPageText runs the strategies against one surface and returns the
// first non-empty result. Every failure path yields an empty string; card
// generation proceeds with whatever text is available.
func extractPageText(ctx context.Context, surface Surface, logger pslog.Logger) string {
	for _, strategy := range extractStrategies {
		var text string
		if err := surface.Evaluate(ctx, strategy.expr, &text); err != nil {
			logger.Debug("browser extract strategy failed", "strategy", strategy.name, "err", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			logger.Debug("browser extract ok", "strategy", strategy.name, "chars", len(text))
			return text
		}
	}
	logger.Debug("browser extract empty")
	return ""
}
