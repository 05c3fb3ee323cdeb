// Package models defines the expense aggregate and its split engine.
//
// # Aggregate
//
// An Expense is the unit of consistency. It owns its Items and People; nothing outside
// the aggregate holds references to them, and every mutation of the claim relation goes
// through Expense methods:
//   - Expense: one shared bill with its charges (subtotal, tax, service charge, discount)
//   - Item: a line entry; Item.ClaimedBy is the only stored side of the claim relation
//   - Person: a participant; the items a person claimed are derived with Expense.ItemsClaimed
//
// # Recomputation
//
// Claim and Unclaim recompute every person's amounts from scratch (see calculator.CalculateSplit).
// RecomputeAmounts is idempotent and can be called any number of times.
//
// # Errors
//
// Lookups fail with ErrNotFound; business-rule violations wrap ErrValidation.
package models
