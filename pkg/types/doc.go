// Package types defines the trip record entity model, the pending change-set
// model, the Store interface for the key-value persistence primitive, and the
// standard error types shared by every WanderPlan package.
package types
