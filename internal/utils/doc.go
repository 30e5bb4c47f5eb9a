// Package utils holds the small helpers shared by providers and the client:
// a generic JSON POST round-trip ([DoPostSync]), lenient JSON decoding backed
// by jsonrepair ([ParseJSONAs]), string truncation for logs and a stopwatch.
package utils
