// Package gemini implements the generation.ImageGenerator and
// generation.TextQuerier ports on top of Google's Gemini API.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the portrait pipeline to Google's external Gemini AI service.
// It translates between the application's request types and the genai SDK
// without exposing the details of the external service to the core
// application.
//
// Key components:
//
// 1. Client:
//   - Implements ImageGenerator (text + inline reference images in, PNG bytes out)
//   - Implements TextQuerier (plain and Google Search grounded text queries)
//   - Offers a pre-generation feasibility check and model information
//
// 2. Throttling:
//   - Bounds the number of in-flight calls with a weighted semaphore
//   - Smooths bursts with a token bucket limiter
//
// 3. Error Handling:
//   - Implements retry logic with exponential backoff for transient errors
//   - Categorizes vendor errors into the sentinel errors of the generation package
//   - Handles content filtering and responses without an image
package gemini
