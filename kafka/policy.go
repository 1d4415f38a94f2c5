package kafka

// OffsetAction is the commit decision for one delivery of a record.
type OffsetAction int

const (
	// HoldOffset leaves the committed offset untouched; the record is
	// redelivered on the next cycle.
	HoldOffset OffsetAction = iota
	// AdvanceOffset moves the committed offset past the record; it is
	// never delivered again.
	AdvanceOffset
)

func (a OffsetAction) String() string {
	if a == AdvanceOffset {
		return "advance"
	}
	return "hold"
}

// CommitPolicy maps handler verdicts onto the partition's committed offset.
//
// Consume and Reject advance the offset. Skip holds it. A handler or
// transform error holds it too, but only MaxRedeliveries times: a record
// that keeps failing would otherwise starve its partition forever, so the
// policy escalates it to an advance once the bound is reached. A negative
// MaxRedeliveries disables the bound. The bound applies to the error path
// only; a deliberate Skip verdict is never capped.
type CommitPolicy struct {
	MaxRedeliveries int
}

// Decide returns the offset action for the attempt-th delivery of a record.
// attempt starts at 1. Verdicts outside the known set advance the offset so
// a buggy handler cannot wedge its partition.
func (p CommitPolicy) Decide(action MessageAction, err error, attempt int) OffsetAction {
	if err != nil {
		if p.MaxRedeliveries >= 0 && attempt > p.MaxRedeliveries {
			return AdvanceOffset
		}
		return HoldOffset
	}
	switch action {
	case ActionConsume, ActionReject:
		return AdvanceOffset
	case ActionSkip:
		return HoldOffset
	default:
		return AdvanceOffset
	}
}
