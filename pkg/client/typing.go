package client

import (
	"sync"
	"time"
)

// DefaultTypingWindow is how long after the last keystroke a chat stays in
// the typing state before the coordinator emits stop typing on its own.
const DefaultTypingWindow = 3000 * time.Millisecond

// TypingEmitter sends typing signals for a chat. Conn satisfies this through
// SendTyping and SendStopTyping.
type TypingEmitter interface {
	SendTyping(chatID string) error
	SendStopTyping(chatID string) error
}

type typingState struct {
	typing       bool
	lastActivity time.Time
	timer        *time.Timer
}

// TypingCoordinator debounces typing signals per chat. The first keystroke
// emits typing; renewed keystrokes only refresh the activity timestamp. Stop
// typing goes out either explicitly or when the window elapses with no new
// activity. The expiry timer reads the latest activity timestamp when it
// fires, so a keystroke after scheduling pushes the expiry out instead of
// racing it.
type TypingCoordinator struct {
	emitter TypingEmitter
	window  time.Duration

	mu    sync.Mutex
	chats map[string]*typingState

	now func() time.Time // for tests
}

// NewTypingCoordinator creates a coordinator. window <= 0 selects
// DefaultTypingWindow.
func NewTypingCoordinator(emitter TypingEmitter, window time.Duration) *TypingCoordinator {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	return &TypingCoordinator{
		emitter: emitter,
		window:  window,
		chats:   make(map[string]*typingState),
		now:     time.Now,
	}
}

// Keystroke records typing activity in a chat. The typing signal goes out
// synchronously, so a stop that follows in the same goroutine can never
// reach the wire first.
func (t *TypingCoordinator) Keystroke(chatID string) {
	t.mu.Lock()
	st, ok := t.chats[chatID]
	if !ok {
		st = &typingState{}
		t.chats[chatID] = st
	}

	st.lastActivity = t.now()
	if st.typing {
		t.mu.Unlock()
		return
	}

	st.typing = true
	st.timer = time.AfterFunc(t.window, func() { t.expire(chatID) })
	t.mu.Unlock()

	t.emitter.SendTyping(chatID)
}

// Stop ends the typing state for a chat immediately.
func (t *TypingCoordinator) Stop(chatID string) {
	t.mu.Lock()
	st, ok := t.chats[chatID]
	if !ok || !st.typing {
		t.mu.Unlock()
		return
	}
	t.reset(st)
	t.mu.Unlock()

	t.emitter.SendStopTyping(chatID)
}

// MessageSent ends the typing state when the user sends their message.
func (t *TypingCoordinator) MessageSent(chatID string) {
	t.Stop(chatID)
}

// IsTyping reports whether a chat is currently in the typing state.
func (t *TypingCoordinator) IsTyping(chatID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.chats[chatID]
	return ok && st.typing
}

// expire fires when the window elapses. If activity arrived after the timer
// was scheduled, it reschedules for the remaining time instead of stopping.
func (t *TypingCoordinator) expire(chatID string) {
	t.mu.Lock()
	st, ok := t.chats[chatID]
	if !ok || !st.typing {
		t.mu.Unlock()
		return
	}

	elapsed := t.now().Sub(st.lastActivity)
	if elapsed < t.window {
		st.timer = time.AfterFunc(t.window-elapsed, func() { t.expire(chatID) })
		t.mu.Unlock()
		return
	}

	t.reset(st)
	t.mu.Unlock()

	t.emitter.SendStopTyping(chatID)
}

// reset clears the typing state and kills any pending timer. Caller holds the
// lock.
func (t *TypingCoordinator) reset(st *typingState) {
	st.typing = false
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}
