package model

type Side string
type Action string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

const (
	ActionHold  Action = "hold"
	ActionEnter Action = "enter"
	ActionExit  Action = "exit"
)

// Opposite : long <-> short
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// Signal : SignalSource 가 봉마다 내놓는 결정. Side 는 Enter 일 때만 의미가 있다
type Signal struct {
	Action Action `json:"action"`
	Side   Side   `json:"side,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func HoldSignal() Signal {
	return Signal{Action: ActionHold}
}

func EnterLong(reason string) Signal {
	return Signal{Action: ActionEnter, Side: SideLong, Reason: reason}
}

func EnterShort(reason string) Signal {
	return Signal{Action: ActionEnter, Side: SideShort, Reason: reason}
}

func ExitSignal(reason string) Signal {
	return Signal{Action: ActionExit, Reason: reason}
}

func (s Signal) IsEnter() bool { return s.Action == ActionEnter }
func (s Signal) IsExit() bool  { return s.Action == ActionExit }
