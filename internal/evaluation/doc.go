// Package evaluation scores generated portraits.
//
// Every image gets local checks: technical requirements (size, opacity,
// content, title bar) and pixel heuristics for visual quality, style
// adherence and a coarse historical accuracy estimate. When the model
// profile enables holistic reasoning and a text model is available, a
// rubric is additionally scored by the model over several passes and, with
// grounding, historical accuracy is fact-checked.
package evaluation
