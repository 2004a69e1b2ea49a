// Package main provides the entry point for the phishscan CLI.
//
// phishscan decides whether a URL is a phishing attempt. It follows
// redirects, checks the final domain against a denylist, looks for
// suspicious words and finally asks a Naive Bayes classifier trained on a
// labeled corpus.
//
// Usage:
//
//	phishscan detect <url>...
//	phishscan detect --list <file>
//	phishscan train --corpus <file>
//	phishscan serve --addr :8080
//
// See --help for all available options.
package main

func main() {
	Execute()
}
