package enums

import "fmt"

// Command enumerates every mutation the escrow engine accepts.
type Command string

const (
	CommandCreateRequest  Command = "create_request"
	CommandAcceptRequest  Command = "accept_request"
	CommandMarkPickedUp   Command = "mark_picked_up"
	CommandMarkDelivered  Command = "mark_delivered"
	CommandComplete       Command = "verify_otp_and_complete"
	CommandCancel         Command = "cancel"
	CommandRaiseDispute   Command = "raise_dispute"
	CommandResolveDispute Command = "resolve_dispute"
	CommandAdjustWallet   Command = "adjust_wallet"
)

var validCommands = []Command{
	CommandCreateRequest,
	CommandAcceptRequest,
	CommandMarkPickedUp,
	CommandMarkDelivered,
	CommandComplete,
	CommandCancel,
	CommandRaiseDispute,
	CommandResolveDispute,
	CommandAdjustWallet,
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Command.
func (c Command) IsValid() bool {
	for _, candidate := range validCommands {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommand converts raw input into a Command.
func ParseCommand(value string) (Command, error) {
	for _, candidate := range validCommands {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid command %q", value)
}
