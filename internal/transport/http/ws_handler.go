package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/domain"
)

type WSHandler struct {
	service  *app.TutorService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.TutorService) *WSHandler {
	return &WSHandler{
		service: service,
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

type quizPayload struct {
	SectionID  string `json:"sectionId"`
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets. The server pushes a "state"
// message after every committed transition; clients drive navigation, quizzes
// and the theme through inbound messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if reply, err := h.dispatch(r, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		} else if reply != nil {
			send <- *reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

type payloadError string

func (e payloadError) Error() string { return string(e) }

// dispatch runs one inbound command. State changes reach the client through
// the subscription; only quiz commands produce a direct reply.
func (h *WSHandler) dispatch(r *http.Request, inbound inboundMessage) (*outboundMessage[any], error) {
	ctx := r.Context()
	switch inbound.Type {
	case "select":
		var payload selectRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return nil, payloadError("invalid select payload")
		}
		_, err := h.service.Select(ctx, payload.SectionID, payload.StepID)
		return nil, err
	case "next":
		_, err := h.service.GoNext(ctx)
		return nil, err
	case "previous":
		_, err := h.service.GoPrevious(ctx)
		return nil, err
	case "toggle":
		var payload quizPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return nil, payloadError("invalid toggle payload")
		}
		answers, err := h.service.ToggleAnswer(ctx, payload.SectionID, payload.QuestionID, payload.OptionID)
		if err != nil {
			return nil, err
		}
		return &outboundMessage[any]{Type: "answers", Payload: answersResponse{SectionID: payload.SectionID, Answers: answers}}, nil
	case "submit":
		var payload quizPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return nil, payloadError("invalid submit payload")
		}
		result, err := h.service.SubmitQuiz(ctx, payload.SectionID)
		if err != nil {
			return nil, err
		}
		return &outboundMessage[any]{Type: "quizResult", Payload: result}, nil
	case "theme":
		var payload themeRequest
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return nil, payloadError("invalid theme payload")
			}
		}
		var err error
		if payload.Theme == "" {
			_, err = h.service.ToggleTheme(ctx)
		} else {
			_, err = h.service.SetTheme(ctx, domain.Theme(payload.Theme))
		}
		return nil, err
	}
	return nil, payloadError("unsupported message type")
}
