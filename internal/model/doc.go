// Package model defines the data structures shared across phishscan.
//
// This package contains the following main types:
//   - Label: the classifier classes (phishing, legitimate)
//   - Detection: the record of one URL check, stage by stage
//   - Evaluation: the held-out quality report of a trained classifier
//   - FailurePolicy and HeuristicMode: the two verdict policies
//
// The models live in their own package so detector, pipeline, report and
// database can share them without import cycles. All of them serialize to JSON
// for reports, the HTTP API and history storage.
package model
