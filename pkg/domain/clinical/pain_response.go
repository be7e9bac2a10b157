package clinical

// PainResponse is the traffic-light classification of a session's pain
// monitoring (NPRS 0-10 during the session, change 24h later).
type PainResponse string

const (
	PainGreen PainResponse = "green"
	PainAmber PainResponse = "amber"
	PainRed   PainResponse = "red"
)

// ClassifyPainResponse returns red for NPRS >= 8 or a 24h increase >= 4,
// amber for NPRS 6-7 or an increase of 2-3, green otherwise.
func ClassifyPainResponse(nprsDuring, delta24h int) PainResponse {
	switch {
	case nprsDuring >= 8 || delta24h >= 4:
		return PainRed
	case nprsDuring >= 6 || delta24h >= 2:
		return PainAmber
	default:
		return PainGreen
	}
}
