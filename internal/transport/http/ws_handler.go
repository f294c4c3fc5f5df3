package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"provincie-quiz-service/internal/domain"
	"provincie-quiz-service/internal/quiz"
)

type WSHandler struct {
	service  *quiz.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *quiz.QuizService) *WSHandler {
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

type clickPayload struct {
	ID string `json:"id"`
}

type dropPayload struct {
	Kind  domain.SlotKind `json:"kind"`
	Row   int             `json:"row"`
	Value string          `json:"value"`
}

type soundPayload struct {
	Enabled bool `json:"enabled"`
}

type speakPayload struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

// speechLocale is the voice clients should use for spoken prompts.
const speechLocale = "nl-BE"

type joinedPayload struct {
	State    quiz.Snapshot   `json:"state"`
	Geometry json.RawMessage `json:"geometry"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz
// use cases. One connection serves one session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	state, geo, err := h.service.Join(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.service.Leave(r.Context(), sessionID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
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
				var out outboundMessage[any]
				switch update.Kind {
				case quiz.EventSpeak:
					out = outboundMessage[any]{Type: "speak", Payload: speakPayload{Text: update.Text, Locale: speechLocale}}
				default:
					out = outboundMessage[any]{Type: "state", Payload: update.State}
				}
				select {
				case send <- out:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{State: state, Geometry: geo}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "click":
			var payload clickPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid click payload"}}
				continue
			}
			res, consumed, err := h.service.Click(r.Context(), sessionID, payload.ID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			if consumed {
				send <- outboundMessage[any]{Type: "answer", Payload: res}
			}
		case "drop":
			var payload dropPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid drop payload"}}
				continue
			}
			if _, err := h.service.Drop(r.Context(), sessionID, payload.Kind, payload.Row, payload.Value); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "fillin":
			var payload domain.FillInSubmission
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid fillin payload"}}
				continue
			}
			score, err := h.service.SubmitFillIn(r.Context(), sessionID, payload)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "fillinResult", Payload: score}
		case "next":
			if err := h.service.Next(r.Context(), sessionID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "restart":
			if err := h.service.Restart(r.Context(), sessionID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "sound":
			var payload soundPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid sound payload"}}
				continue
			}
			if err := h.service.SetSound(r.Context(), sessionID, payload.Enabled); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
