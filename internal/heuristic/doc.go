// Package heuristic flags URLs that contain suspicious words.
//
// A pattern matches only as a whole word, case-insensitively, anywhere in the
// URL: "login" matches "/login" and "login.example.com" but not "logins",
// "blogin" or "éaccount". Letters and digits of any script and the
// underscore join words; everything else separates them. Input is
// NFKC-normalized first so full-width and compatibility forms match their
// plain ASCII equivalents.
package heuristic
