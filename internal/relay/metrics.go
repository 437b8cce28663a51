package relay

// Metrics receives relay counters. The HTTP layer implements it with
// Prometheus collectors.
type Metrics interface {
	SetPlayers(n int)
	EventRelayed(event string, recipients int)
	SendFailed()
	MessageDropped(reason string)
}

type nopMetrics struct{}

func (nopMetrics) SetPlayers(int)           {}
func (nopMetrics) EventRelayed(string, int) {}
func (nopMetrics) SendFailed()              {}
func (nopMetrics) MessageDropped(string)    {}
