// Package insights produces a short Italian-language summary of the harvest
// dataset through a generative model.
//
// The summary is an opaque collaborator of the dashboard: callers always get
// a string back. Empty input yields NoDataMessage and any failure (missing
// key, quota, network, empty answer) yields FallbackMessage.
package insights
