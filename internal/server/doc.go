// Package server exposes the detector over HTTP.
//
// Routes:
//
//	GET  /healthz           liveness and the loaded model fingerprint
//	POST /v1/detect         {"url": "..."}     -> {"phishing": bool, "detection": {...}}
//	POST /v1/detect/batch   {"urls": ["..."]}  -> {"results": [{"phishing": bool, "detection": {...}}]}
//
// Request bodies are decoded strictly and validated with go-playground/validator.
package server
