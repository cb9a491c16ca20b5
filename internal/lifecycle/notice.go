package lifecycle

import (
	"todosync/internal/syncer"
)

// Level is the severity of a notice.
type Level int

const (
	Info Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "info"
}

// Notice is a transient, user-visible message.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives notices. It may be called from any goroutine.
type Notifier func(Notice)

// Messages shown to the user.
const (
	MsgListAdded      = "New List Added"
	MsgListAddFailed  = "Error Adding list"
	MsgNeedOneList    = "Must Have At Least One List"
	MsgSyncFailedLead = "Sync failed: "
)

// FailureNotice is the notice reported for a failed mutation.
func FailureNotice(m *syncer.Mutation) Notice {
	if m.Op == syncer.OpCreateList {
		return Notice{Level: Error, Message: MsgListAddFailed}
	}
	msg := MsgSyncFailedLead + string(m.Op)
	if err := m.Err(); err != nil {
		msg = MsgSyncFailedLead + err.Error()
	}
	return Notice{Level: Error, Message: msg}
}
