// Package query validates audit queries and fills in their defaults.
//
// Storage backends trust the SortBy and SortOrder fields they receive, so
// every query built from user input passes through Validate first.
package query
