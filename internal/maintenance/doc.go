// Package maintenance defines the artifact maintenance task model shared by the
// store, lifecycle engine, aggregator, and reconciliation pollers.
//
// Task statuses form a closed enumeration. Values arriving from callers or from
// storage pass through ParseStatus or ParseStatusCode and anything outside the
// known set is rejected at that boundary. The storage encoding (Status.Code) is
// kept stable so existing rows written by the previous system stay readable.
//
// Transition rules live in CanTransition; the lifecycle engine consults it
// before every write so no operation is partially applied.
package maintenance
