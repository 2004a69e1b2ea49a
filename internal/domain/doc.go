// Package domain reduces URLs to the canonical domain used for denylist matching.
package domain
