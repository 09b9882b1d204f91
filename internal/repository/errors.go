// Package repository implements the data-access layer: one repo per
// entity, hand-written SQL against MySQL. This file defines the
// sentinel errors shared across repositories so handlers can map
// failures onto HTTP statuses. Absence of a row is always reported
// as sql.ErrNoRows; handlers translate it to 404 (or 401 for login).
package repository

import "errors"

// ErrEmailExists is returned when an insert violates the unique
// email constraint on users. Handlers translate it to 400.
var ErrEmailExists = errors.New("user already exists")

// ErrSlugExists is returned when a category insert or update violates
// the unique slug constraint. Handlers translate it to 409.
var ErrSlugExists = errors.New("category slug already exists")

// ErrDuplicateReview is returned when a (task, reviewer) pair already
// has a review. Handlers translate it to 400.
var ErrDuplicateReview = errors.New("task already reviewed by this user")

// ErrOrderExists is returned when a payment insert reuses an external
// order id. Handlers translate it to 409.
var ErrOrderExists = errors.New("order id already exists")

// ErrTaskNotOpen is returned when an offer acceptance races the task
// out of its open state. Handlers translate it to 409.
var ErrTaskNotOpen = errors.New("task is no longer open")

// ErrOfferNotPending is returned when acceptance targets an offer
// that is not pending anymore. Handlers translate it to 409.
var ErrOfferNotPending = errors.New("offer is not pending")
