// Package corpus provides labelled training URLs.
//
// Sample returns the built-in six-example corpus. Larger corpora are read
// from YAML files of the form:
//
//	examples:
//	  - url: http://example.com/login
//	    label: phishing
//	  - url: http://example.com/shop
//	    label: legitimate
//
// Split divides a corpus into deterministic train and test partitions for
// evaluation.
package corpus
