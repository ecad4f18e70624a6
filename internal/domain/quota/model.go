package quota

// KindSlides is the resource kind counting slides a user owns.
const KindSlides = "slides"

// Quota is one (used, limit) counter pair in a user's ledger.
type Quota struct {
	User  string `json:"user"`
	Kind  string `json:"kind"`
	Used  int64  `json:"used"`
	Limit int64  `json:"limit"`
}

// Remaining returns how many more units the user may consume.
func (q Quota) Remaining() int64 {
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}
