// Package design defines the shared data model of the designflow engine:
// proposals, opinions, suggestions, validation and consensus records, and
// the DesignAgent contract implemented by pluggable specialist evaluators.
//
// Types in this package are plain records. The coordination and session
// packages own all aggregation logic; agents produce opinions and never
// mutate a proposal they evaluate.
package design
