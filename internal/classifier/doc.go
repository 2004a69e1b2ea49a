// Package classifier implements a multinomial naive Bayes classifier over
// token-count vectors.
//
// Each class keeps its document count and per-token counts. With additive
// (Laplace) smoothing alpha, the log-likelihood of token j under class c is
//
//	log((count[c][j] + alpha) / (total[c] + alpha*width))
//
// and the class score of a vector x is log P(c) + sum_j x[j]*loglik[c][j].
// Scores are computed in log space to avoid underflow. When both classes
// score equally the URL is labelled phishing.
//
// A fitted Model is read-only and safe for concurrent use.
package classifier
