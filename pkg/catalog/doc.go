// Package catalog turns the two denormalized data dictionaries (the presentation export and the
// source listing of reports) into normalized catalog tables with surrogate keys and bridge tables.
//
// Everything here is a pure, in-memory transform: inputs are never modified, nothing is logged,
// and non-fatal findings come back as models.Diagnostic values next to the tables they concern.
package catalog
