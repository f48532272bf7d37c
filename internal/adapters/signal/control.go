package signal

import (
	"encoding/json"

	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
)

func (ctl *Controller) handleHeartbeat(sid core.SessionID) {
	// Activity is read lazily on snapshots; a heartbeat never broadcasts.
	ctl.GW.Heartbeat(sid)
}

func (ctl *Controller) handleStatus(sid core.SessionID, conn *WsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reject(conn, core.ReasonBadPayload)
		return
	}

	info := ctl.GW.Status(sid, domain.RoomID(p.Room))
	ctl.sendEvent(conn, core.NewStatusChanged(info.Room, info.IsLive, info.ViewerCount))
}
