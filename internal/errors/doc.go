// Package errors defines the error kinds shared by every stage of the shadowenv pipeline.
//
// Lower layers return errors matching one of the sentinels; the pipeline hands them to
// the caller unchanged, so errors.Is works end to end.
package errors
