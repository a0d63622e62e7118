// Package checkout tracks how far a session has progressed towards a
// booking and validates the checkout state before one is placed.
package checkout

import (
	"fmt"

	"rental-storefront/internal/model"
)

// Stage is a checkout's progress towards a booking.
type Stage string

const (
	StageEmpty           Stage = "EMPTY"
	StageItemsSelected   Stage = "ITEMS_SELECTED"
	StageDateSelected    Stage = "DATE_SELECTED"
	StageAddressSelected Stage = "ADDRESS_SELECTED"
	StageReadyToBook     Stage = "READY_TO_BOOK"
	StageBooked          Stage = "BOOKED"
)

// Step is a page of the storefront flow.
type Step string

const (
	StepInventory Step = "inventory"
	StepCalendar  Step = "calendar"
	StepAddress   Step = "address"
	StepReview    Step = "review"
)

var stepOrder = []Step{StepInventory, StepCalendar, StepAddress, StepReview}

// StageOf derives the stage of a session's cart and checkout. A checkout
// with an address is ADDRESS_SELECTED until Validate accepts it.
func StageOf(cart model.Cart, co model.Checkout, dateCount int, today string) Stage {
	if len(cart.Compact()) == 0 {
		return StageEmpty
	}
	if !DatesSelected(co, dateCount) {
		return StageItemsSelected
	}
	if co.Address == "" {
		return StageDateSelected
	}
	if Validate(cart, co, dateCount, today) != nil {
		return StageAddressSelected
	}
	return StageReadyToBook
}

// DatesSelected reports whether every required date and time pair is set.
// Annual plans need dateCount dates, each with a complete time pair.
func DatesSelected(co model.Checkout, dateCount int) bool {
	dates := co.SelectedDates()
	if co.Annual {
		if len(co.Dates) != dateCount || len(dates) != dateCount {
			return false
		}
	} else if len(dates) != 1 {
		return false
	}
	for _, d := range dates {
		if !co.Slot(d).Complete() {
			return false
		}
	}
	return true
}

// Gate returns the step a customer at stage may open when asking for step:
// step itself when it is reachable, otherwise the furthest reachable step.
func Gate(stage Stage, step Step) Step {
	limit := furthestStep(stage)
	if indexOf(step) < 0 || indexOf(step) > indexOf(limit) {
		return limit
	}
	return step
}

func furthestStep(stage Stage) Step {
	switch stage {
	case StageItemsSelected:
		return StepCalendar
	case StageDateSelected:
		return StepAddress
	case StageAddressSelected, StageReadyToBook:
		return StepReview
	default:
		return StepInventory
	}
}

func indexOf(step Step) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// Validate checks that cart and co describe a bookable checkout and returns
// a *model.ValidationError listing every problem, or nil.
func Validate(cart model.Cart, co model.Checkout, dateCount int, today string) error {
	problems := &model.ValidationError{}

	if len(cart.Compact()) == 0 {
		problems.Add("cart", "at least one item is required")
	}

	if co.Annual {
		validateAnnual(problems, co, dateCount, today)
	} else {
		validateSingle(problems, co, today)
	}

	if co.Address == "" {
		problems.Add("checkout.address", "a delivery address is required")
	}

	return problems.OrNil()
}

func validateSingle(problems *model.ValidationError, co model.Checkout, today string) {
	if co.Date == "" {
		problems.Add("checkout.date", "a date is required")
		return
	}
	if validateDate(problems, "checkout.date", co.Date, today) {
		validateSlot(problems, co, co.Date)
	}
}

func validateAnnual(problems *model.ValidationError, co model.Checkout, dateCount int, today string) {
	if len(co.Dates) != dateCount {
		problems.Add("checkout.dates", fmt.Sprintf("exactly %d dates are required", dateCount))
	}

	prev := ""
	for i, date := range co.Dates {
		field := fmt.Sprintf("checkout.dates[%d]", i)
		if date == "" {
			problems.Add(field, "a date is required")
			prev = ""
			continue
		}
		if !validateDate(problems, field, date, today) {
			prev = ""
			continue
		}
		if prev != "" {
			window, _ := AnnualWindow(prev)
			if !window.Contains(date) {
				problems.Add(field, fmt.Sprintf("must be between %s and %s", window.Earliest, window.Latest))
			}
		}
		validateSlot(problems, co, date)
		prev = date
	}
}

// validateDate reports whether date is well formed and not in the past.
func validateDate(problems *model.ValidationError, field, date, today string) bool {
	if !ValidDate(date) {
		problems.Add(field, "must use the YYYY-MM-DD format")
		return false
	}
	if today != "" && date < today {
		problems.Add(field, "must not be in the past")
		return false
	}
	return true
}

func validateSlot(problems *model.ValidationError, co model.Checkout, date string) {
	field := "checkout.times[" + date + "]"
	slot := co.Slot(date)
	switch {
	case !slot.Complete():
		problems.Add(field, "delivery and pickup times are required")
	case !ValidTime(slot.Delivery) || !ValidTime(slot.Pickup):
		problems.Add(field, "times must use the HH:MM format")
	}
}
