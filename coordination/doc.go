// Package coordination owns the registry of active design agents and the
// consensus and validation algorithms that reduce independent agent
// opinions to a single approve/reject decision.
//
// The coordinator fans evaluation out to every active agent concurrently,
// applies the critical-issue veto, and classifies the mean score into
// consensus, majority, or disagreement. Registration and unregistration
// are safe to interleave with in-flight consensus rounds: the agent list
// is snapshotted before dispatch.
package coordination
