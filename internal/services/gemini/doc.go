// Package gemini wraps the Google Gemini API for the video annotation and
// adverse event detection stages.
package gemini
