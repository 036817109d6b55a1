package fsm

// Event identifies an input to the user state machine. The string values
// appear in logs and diagnostics.
type Event string

const (
	EventStart               Event = "onStart"
	EventIdle                Event = "onIdle"
	EventRevoke              Event = "onRevoke"
	EventPrivateMode         Event = "onPrivateMode"
	EventShuffle             Event = "onShuffle"
	EventStartConfirmation   Event = "onStartConfirmation"
	EventStartRejection      Event = "onStartRejection"
	EventRevokeConfirmation  Event = "onRevokeConfirmation"
	EventRevokeRejection     Event = "onRevokeRejection"
	EventPrivateModeEnabled  Event = "onPrivateModeEnabled"
	EventPrivateModeDisabled Event = "onPrivateModeDisabled"
	EventShuffleEnabled      Event = "onShuffleEnabled"
	EventShuffleDisabled     Event = "onShuffleDisabled"
)

// Events lists every event the machine accepts.
var Events = []Event{
	EventStart,
	EventIdle,
	EventRevoke,
	EventPrivateMode,
	EventShuffle,
	EventStartConfirmation,
	EventStartRejection,
	EventRevokeConfirmation,
	EventRevokeRejection,
	EventPrivateModeEnabled,
	EventPrivateModeDisabled,
	EventShuffleEnabled,
	EventShuffleDisabled,
}
