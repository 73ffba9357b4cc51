package billing

// =============================================================================
// BILLING PERIOD - The date range one payment covers
// =============================================================================

// BillingPeriod is the computed boundary tuple for a single payment: the
// inclusive period range, the due date inside it, and the end of the
// on-time payment window.
type BillingPeriod struct {
	Start     Date
	End       Date
	DueDate   Date
	WindowEnd Date
}

// Contains returns true if the date falls within [Start, End].
func (p BillingPeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p BillingPeriod) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD CALCULATOR
// =============================================================================

// NextPeriod returns the first billing period of the schedule whose end falls
// on or after the given date.
//
// Periods are anchored at the schedule's start date and advance by the
// frequency's month count; each period ends the day before the next one
// starts. The due date is the schedule's due day applied to the period-start
// month, and the window end is due date + window days.
//
// The walk from the start date is O(periods elapsed); schedules are
// long-lived but periods are coarse (months), so this stays cheap. Calling
// twice with the same inputs yields identical output.
func NextPeriod(s Schedule, after Date) BillingPeriod {
	months := s.Frequency.Months()

	start := s.StartDate
	for {
		end := start.AddMonths(months).AddDays(-1)
		if end.AfterOrEqual(after) {
			due := start.WithDay(s.DueDay)
			return BillingPeriod{
				Start:     start,
				End:       end,
				DueDate:   due,
				WindowEnd: due.AddDays(s.WindowDays),
			}
		}
		start = start.AddMonths(months)
	}
}
