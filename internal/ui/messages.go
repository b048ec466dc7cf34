package ui

import "speedwatch/internal/progress"

type stateMsg struct {
	E progress.Event
}

type startResultMsg struct {
	Err error
}

type stoppedMsg struct{}

type allDoneMsg struct{}
