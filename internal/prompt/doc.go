// Package prompt assembles the text sent to the image model.
//
// Prompts are built from embedded text/template sections: the subject's
// biography, optional reference guidance, fixed composition rules, the
// per-style instructions and the boilerplate a capable model benefits from
// (text rendering, physics-aware synthesis, fact checking). Models without
// advanced features get a shorter prompt from BuildSimple. Prompts are stored
// as Markdown next to the image and can be rendered to HTML with RenderHTML.
package prompt
