// Package server exposes the transformation service as a small HTTP
// API.
//
// Endpoints:
//
//	GET  /v1/healthz
//	POST /v1/transform          apply the transformation pipeline
//	POST /v1/thumbnail          aspect-preserving thumbnail (size=WxH)
//	POST /v1/remove-background  delegate to the segmentation service
//	GET  /v1/info               format, dimensions, size (+color analysis)
//
// The image source for every endpoint is a "url" query parameter, a
// multipart "file" field, or the raw request body. Transformation
// options travel as query parameters with the same names and semantics
// as the service API (width, height, format, quality, crop_x, crop_y,
// crop_width, crop_height, rotate, watermark, grayscale, enhance,
// compress).
//
// Authentication, rate limiting, and persistence are deliberately
// absent: this surface is a stateless front over the core.
package server
