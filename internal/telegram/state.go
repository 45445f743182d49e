package telegram

import (
	"errors"
	"sync"

	"github.com/suspectuso/clip-review-bot/internal/payment"
)

// WizardState is a step of the payout method wizard
type WizardState string

const (
	StateAwaitingMethod      WizardState = "awaiting_method"
	StateAwaitingCardDigits  WizardState = "awaiting_card_digits"
	StateAwaitingUsdtAddress WizardState = "awaiting_usdt_address"
	StateDone                WizardState = "done"
)

// WizardEvent moves the wizard between states
type WizardEvent string

const (
	EventChooseSite      WizardEvent = "choose_site"
	EventChooseCard      WizardEvent = "choose_card"
	EventChooseUSDT      WizardEvent = "choose_usdt"
	EventDetailsAccepted WizardEvent = "details_accepted"
	EventRestart         WizardEvent = "restart"
)

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrNoSession         = errors.New("no active wizard session")
)

var transitions = map[WizardState]map[WizardEvent]WizardState{
	StateAwaitingMethod: {
		EventChooseSite: StateDone,
		EventChooseCard: StateAwaitingCardDigits,
		EventChooseUSDT: StateAwaitingUsdtAddress,
	},
	StateAwaitingCardDigits: {
		EventDetailsAccepted: StateDone,
		EventRestart:         StateAwaitingMethod,
	},
	StateAwaitingUsdtAddress: {
		EventDetailsAccepted: StateDone,
		EventRestart:         StateAwaitingMethod,
	},
	StateDone: {
		EventRestart: StateAwaitingMethod,
	},
}

// Transition looks up the next state in the transition table
func Transition(from WizardState, ev WizardEvent) (WizardState, error) {
	next, ok := transitions[from][ev]
	if !ok {
		return from, ErrInvalidTransition
	}
	return next, nil
}

func chooseEvent(m payment.Method) WizardEvent {
	switch m {
	case payment.MethodCard:
		return EventChooseCard
	case payment.MethodUSDT:
		return EventChooseUSDT
	}
	return EventChooseSite
}

// Session is one chat's progress through the wizard
type Session struct {
	State  WizardState
	Method payment.Method
}

// AwaitingDetails reports whether free text belongs to the wizard
func (s Session) AwaitingDetails() bool {
	return s.State == StateAwaitingCardDigits || s.State == StateAwaitingUsdtAddress
}

// StateManager keeps wizard sessions keyed by chat id
type StateManager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStateManager creates a new state manager
func NewStateManager() *StateManager {
	return &StateManager{
		sessions: make(map[int64]*Session),
	}
}

// Begin starts (or restarts) the wizard for a chat
func (sm *StateManager) Begin(chatID int64) Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s := &Session{State: StateAwaitingMethod}
	sm.sessions[chatID] = s
	return *s
}

// Choose records the selected method. Choosing again from a details step
// restarts the wizard first.
func (sm *StateManager) Choose(chatID int64, m payment.Method) (Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[chatID]
	if !ok {
		s = &Session{State: StateAwaitingMethod}
		sm.sessions[chatID] = s
	}

	if s.State != StateAwaitingMethod {
		next, err := Transition(s.State, EventRestart)
		if err != nil {
			return *s, err
		}
		s.State = next
	}

	next, err := Transition(s.State, chooseEvent(m))
	if err != nil {
		return *s, err
	}
	s.State = next
	s.Method = m
	return *s, nil
}

// Fire applies ev to the chat's session
func (sm *StateManager) Fire(chatID int64, ev WizardEvent) (Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[chatID]
	if !ok {
		return Session{}, ErrNoSession
	}

	next, err := Transition(s.State, ev)
	if err != nil {
		return *s, err
	}
	s.State = next
	return *s, nil
}

// Get returns a chat's session
func (sm *StateManager) Get(chatID int64) (Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Clear removes a chat's session
func (sm *StateManager) Clear(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, chatID)
}
