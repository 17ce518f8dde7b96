package domain

// DeliveryFailure records one destination that could not be reached.
type DeliveryFailure struct {
	Destination string
	Err         error
}

// DispatchReport summarizes one fanout.
type DispatchReport struct {
	Delivered []string
	Failed    []DeliveryFailure
}

// Attempted is the number of destinations tried.
func (r DispatchReport) Attempted() int {
	return len(r.Delivered) + len(r.Failed)
}
