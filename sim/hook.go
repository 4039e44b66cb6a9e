package sim

// HookPos defines the enum of possible hooking positions
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Now    Time
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// HookPosBeforeEvent triggers before the dispatcher routes an event.
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent triggers after the dispatcher has routed an event.
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// HookPosPadSend triggers when a payload is enqueued onto a peer's buffer.
var HookPosPadSend = &HookPos{Name: "PadSend"}

// HookPosPadReceive triggers when a payload is dequeued from a pad's buffer,
// either by an immediate try_receive or by waking a waiter.
var HookPosPadReceive = &HookPos{Name: "PadReceive"}

// HookPosActivityStateChange triggers whenever an Activity's lifecycle state
// changes.
var HookPosActivityStateChange = &HookPos{Name: "ActivityStateChange"}

// HookPosDispatchDropped triggers when an event is dropped instead of
// dispatched (kind 4 of the error taxonomy: missing instance, unbound pad,
// cancelled resume).
var HookPosDispatchDropped = &HookPos{Name: "DispatchDropped"}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook register a hook
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the register Hooks
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}

// NumHooks returns the number of hooks registered, so callers can skip
// building a HookCtx on the hot path when nothing is listening.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}
