// Package textfeat turns URLs into token-count vectors.
//
// Tokenize splits a URL into lowercase runs of two or more word characters
// (letters, digits, underscore); everything else is a separator, so
// "https://login.example.com/a" yields https, login, example, com.
//
// A Vocabulary is fitted once on a training corpus and then maps any URL to a
// fixed-width Vector of per-token counts. Column order is the sorted token
// order, so two vocabularies fitted on the same corpus are identical.
package textfeat
