// Package vault implements the local PIN gate that fronts the application.
// The gate is a pure state machine; persistence of the secret is injected so
// the store stays the only writer of durable state.
//
// Contract: nothing behind the gate (engine operations, scheduled or
// on-demand generation) may run until the gate reports StateReady. Callers
// enforce this by constructing their post-gate wiring only on the Ready
// transition.
package vault

// State is the coarse gate state.
type State int

const (
	// StateSplash is the initial boot state with the fixed-duration
	// progress animation. The splash owner calls FinishSplash when done.
	StateSplash State = iota
	// StatePinEntry awaits the existing 4-digit secret.
	StatePinEntry
	// StatePinSetup provisions a new secret via two-step confirmation.
	StatePinSetup
	// StateReady unlocks the application.
	StateReady
)

// SetupStep is the sub-state of StatePinSetup.
type SetupStep int

const (
	StepFirstEntry SetupStep = iota + 1
	StepConfirm
)

const pinLength = 4

// Gate is the PIN state machine. Not safe for concurrent use; it is driven
// from a single UI event loop.
type Gate struct {
	state     State
	buffer    string
	candidate string
	step      SetupStep
	pinErr    bool
	stored    string
	persist   func(pin string) error
}

// New returns a gate in StateSplash. stored is the secret loaded from the
// store ("" when none exists — first run). persist is invoked exactly once,
// when setup confirms a new secret.
func New(stored string, persist func(pin string) error) *Gate {
	return &Gate{
		state:   StateSplash,
		step:    StepFirstEntry,
		stored:  stored,
		persist: persist,
	}
}

// FinishSplash leaves the splash screen: PIN entry when a secret exists,
// otherwise setup. No-op outside StateSplash.
func (g *Gate) FinishSplash() {
	if g.state != StateSplash {
		return
	}
	if g.stored != "" {
		g.state = StatePinEntry
	} else {
		g.state = StatePinSetup
		g.step = StepFirstEntry
	}
}

// Press feeds one digit into the buffer. Input is rejected while four
// digits are already buffered or outside the entry/setup states. The fourth
// digit triggers verification (entry) or the setup step logic.
func (g *Gate) Press(digit rune) {
	if g.state != StatePinEntry && g.state != StatePinSetup {
		return
	}
	if digit < '0' || digit > '9' {
		return
	}
	if len(g.buffer) >= pinLength {
		return
	}

	g.buffer += string(digit)
	g.pinErr = false
	if len(g.buffer) < pinLength {
		return
	}

	if g.state == StatePinEntry {
		g.verify()
		return
	}
	g.advanceSetup()
}

func (g *Gate) verify() {
	if g.buffer == g.stored {
		g.state = StateReady
		g.buffer = ""
		return
	}
	// Wrong PIN: flag the error and leave the buffer for the caller to
	// clear after its short render delay.
	g.pinErr = true
}

func (g *Gate) advanceSetup() {
	if g.step == StepFirstEntry {
		g.candidate = g.buffer
		g.step = StepConfirm
		g.buffer = ""
		return
	}

	if g.buffer == g.candidate {
		if g.persist != nil {
			// Persist failures leave no secret behind; the gate still
			// opens for this session so a disk hiccup cannot lock the
			// user out of their own device.
			_ = g.persist(g.buffer)
		}
		g.stored = g.buffer
		g.buffer = ""
		g.candidate = ""
		g.state = StateReady
		return
	}

	// Mismatch: back to step one, nothing persisted.
	g.pinErr = true
	g.step = StepFirstEntry
	g.buffer = ""
	g.candidate = ""
}

// Reset clears the current buffer without changing state. Bound to the
// keypad reset action.
func (g *Gate) Reset() {
	g.buffer = ""
}

// ClearBuffer is called by the UI after the wrong-PIN error has been
// visible for its fixed delay.
func (g *Gate) ClearBuffer() {
	g.buffer = ""
}

// State returns the coarse gate state.
func (g *Gate) State() State { return g.state }

// Step returns the setup sub-state.
func (g *Gate) Step() SetupStep { return g.step }

// BufferLen returns how many digits are currently entered, for the dot row.
func (g *Gate) BufferLen() int { return len(g.buffer) }

// Err reports the mismatch flag. Cleared on the next digit press.
func (g *Gate) Err() bool { return g.pinErr }

// HasSecret reports whether a secret exists (stored or just provisioned).
func (g *Gate) HasSecret() bool { return g.stored != "" }
