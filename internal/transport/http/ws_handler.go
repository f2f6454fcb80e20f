package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quiz-client/internal/app"
	"quiz-client/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// MachineFactory builds the attempt machine owned by one websocket connection.
type MachineFactory func(r *http.Request) *app.AttemptMachine

type WSHandler struct {
	newMachine MachineFactory
	log        logrus.FieldLogger
	upgrader   websocket.Upgrader
}

func NewWSHandler(newMachine MachineFactory, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		newMachine: newMachine,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectQuizPayload struct {
	QuizID int64 `json:"quizId"`
}

type togglePayload struct {
	OptionID int64 `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

const writeTimeout = 10 * time.Second

// ServeWS upgrades the request and gives the connection its own attempt
// machine. Commands run one at a time on an owner goroutine; when the socket
// closes the machine is torn down so late backend answers are dropped.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	machine := h.newMachine(r)
	// Backend calls are not cancelled on disconnect, only their effect is.
	ctx := context.WithoutCancel(r.Context())

	inbound := make(chan inboundMessage, 16)
	ownerDone := make(chan struct{})

	go func() {
		defer close(ownerDone)
		h.apply(ctx, conn, machine, inboundMessage{Type: "authenticate"})
		for msg := range inbound {
			h.apply(ctx, conn, machine, msg)
		}
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		inbound <- msg
	}

	machine.Teardown()
	close(inbound)
	<-ownerDone
}

// apply runs one command against the machine and pushes the resulting state.
func (h *WSHandler) apply(ctx context.Context, conn *websocket.Conn, machine *app.AttemptMachine, msg inboundMessage) {
	var err error
	switch msg.Type {
	case "authenticate":
		err = machine.Authenticate(ctx)
	case "selectQuiz":
		var payload selectQuizPayload
		if jsonErr := json.Unmarshal(msg.Payload, &payload); jsonErr != nil || payload.QuizID == 0 {
			h.write(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid selectQuiz payload"}})
			return
		}
		err = machine.SelectQuiz(ctx, payload.QuizID)
	case "toggle":
		var payload togglePayload
		if jsonErr := json.Unmarshal(msg.Payload, &payload); jsonErr != nil {
			h.write(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid toggle payload"}})
			return
		}
		machine.ToggleOption(payload.OptionID)
	case "clear":
		machine.ClearCurrent()
	case "next":
		err = machine.Next(ctx)
	case "reload":
		err = machine.ReloadQuizzes(ctx)
	case "back":
		err = machine.BackToSelection(ctx)
	case "logout":
		err = machine.Logout(ctx)
	case "state":
	default:
		h.write(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		return
	}
	if errors.Is(err, domain.ErrTornDown) {
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("command", msg.Type).Debug("command failed")
	}
	h.write(conn, outboundMessage[app.Snapshot]{Type: "state", Payload: machine.Snapshot()})
}

func (h *WSHandler) write(conn *websocket.Conn, msg any) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.WithError(err).Debug("ws write error")
	}
}
