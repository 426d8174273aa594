package moonraker

import (
	"encoding/json"
	"fmt"
)

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int64       `json:"id"`
}

// message is response or notification, ID==0 means notification
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int64           `json:"id,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return fmt.Sprintf("moonraker error code=%d %s", e.Code, e.Message) }

const (
	methodIdentify    = "server.connection.identify"
	methodServerInfo  = "server.info"
	methodSubscribe   = "printer.objects.subscribe"
	methodFilesList   = "server.files.list"
	notifyStatus      = "notify_status_update"
	notifyReady       = "notify_klippy_ready"
	notifyShutdown    = "notify_klippy_shutdown"
	notifyDisconnect  = "notify_klippy_disconnected"
	notifyFileChanged = "notify_filelist_changed"
)

type serverInfo struct {
	KlippyConnected bool   `json:"klippy_connected"`
	KlippyState     string `json:"klippy_state"`
}

type subscribeResult struct {
	EventTime float64                `json:"eventtime"`
	Status    map[string]interface{} `json:"status"`
}
