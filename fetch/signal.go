package fetch

// Signal is raised when a fetch starts and settled when it finishes,
// once per top-level call regardless of retries.
type Signal interface {
	Start()
	Settle()
}

// SignalFuncs adapts a pair of callbacks to a Signal. Nil callbacks are skipped.
type SignalFuncs struct {
	OnStart  func()
	OnSettle func()
}

// Start calls OnStart
func (s SignalFuncs) Start() {
	if s.OnStart != nil {
		s.OnStart()
	}
}

// Settle calls OnSettle
func (s SignalFuncs) Settle() {
	if s.OnSettle != nil {
		s.OnSettle()
	}
}

type nopSignal struct{}

func (nopSignal) Start()  {}
func (nopSignal) Settle() {}
