package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-nimitta/internal/app"
	diag "github.com/coreman2200/funtimes-nimitta/internal/diagnostics"
	"github.com/coreman2200/funtimes-nimitta/internal/metrics"
	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

const (
	writeWait  = 200 * time.Millisecond
	sendBuffer = 16
)

// client is one /ws subscriber. Frames are queued on send and written by the
// client's own goroutine.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer)}
}

// queue never blocks; a client that is sendBuffer frames behind misses frames.
func (c *client) queue(b []byte) bool {
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *client) writeLoop() {
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
			// unblocks the read loop, which unregisters the client
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Server exposes a Conductor over HTTP and websockets.
type Server struct {
	mu        sync.RWMutex
	cond      *app.Conductor
	hub       *diag.Hub
	met       *metrics.Metrics
	clients   map[*client]struct{}
	startTime time.Time

	minGap   time.Duration
	lastSent time.Time
	lastMsg  FrameMsg
	frameID  uint64

	up websocket.Upgrader
}

// NewServer streams at most broadcastHz frames per second. Frames that change
// the phase or carry the terminal cue are always sent.
func NewServer(c *app.Conductor, hub *diag.Hub, met *metrics.Metrics, broadcastHz int) *Server {
	if broadcastHz <= 0 {
		broadcastHz = 15
	}
	return &Server{
		cond:      c,
		hub:       hub,
		met:       met,
		clients:   map[*client]struct{}{},
		startTime: time.Now(),
		minGap:    time.Second / time.Duration(broadcastHz),
		up:        websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.HandleFramesWS)
	r.Get("/diag", s.HandleDiagWS)
	r.Get("/control", s.HandleControlWS)
	r.Post("/control", s.HandleControl)
	r.Get("/health", s.HandleHealth)
	r.Get("/state", s.HandleState)
	r.Get("/stages", s.HandleStages)
	if s.met != nil {
		r.Handle("/metrics", s.met.Handler())
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FrameMsg is the per-frame summary streamed on /ws.
type FrameMsg struct {
	FrameID         uint64         `json:"frame_id"`
	Stage           int            `json:"stage"`
	Previous        int            `json:"previous"`
	Category        string         `json:"category"`
	Title           string         `json:"title"`
	Pali            string         `json:"pali,omitempty"`
	Desc            string         `json:"desc"`
	Factors         []string       `json:"factors,omitempty"`
	Mode            string         `json:"mode"`
	Phase           string         `json:"phase"`
	Blend           float64        `json:"blend"`
	SessionProgress float64        `json:"session_progress"`
	StageProgress   float64        `json:"stage_progress"`
	Clock           string         `json:"clock"`
	Paused          bool           `json:"paused"`
	AwaitingChoice  bool           `json:"awaiting_choice"`
	TerminalReached bool           `json:"terminal_reached,omitempty"`
	Breath          float64        `json:"breath"`
	Params          stage.ParamBag `json:"params"`
}

func frameMsg(id uint64, f sequence.Frame) FrameMsg {
	return FrameMsg{
		FrameID:         id,
		Stage:           f.Stage.Index,
		Previous:        f.Previous.Index,
		Category:        f.Stage.Category,
		Title:           f.Stage.Title,
		Pali:            f.Stage.Pali,
		Desc:            f.Stage.Desc,
		Factors:         f.Stage.Factors,
		Mode:            string(f.Stage.Mode),
		Phase:           string(f.Phase),
		Blend:           f.Blend,
		SessionProgress: f.SessionProgress,
		StageProgress:   f.StageProgress,
		Clock:           sequence.FormatClock(f.ElapsedSessionS),
		Paused:          f.Paused,
		AwaitingChoice:  f.AwaitingChoice,
		TerminalReached: f.TerminalReached,
		Breath:          f.Breath,
		Params:          f.Params,
	}
}

// Broadcast is an app.FrameListener. It only queues, so a slow client never
// holds up the frame loop.
func (s *Server) Broadcast(f sequence.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameID++
	msg := frameMsg(s.frameID, f)
	now := time.Now()
	urgent := msg.TerminalReached || msg.Phase != s.lastMsg.Phase || msg.Stage != s.lastMsg.Stage
	if !urgent && now.Sub(s.lastSent) < s.minGap {
		return
	}
	s.lastSent = now
	s.lastMsg = msg
	if len(s.clients) == 0 {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("marshal frame")
		return
	}
	for c := range s.clients {
		if !c.queue(b) {
			log.Debug().Uint64("frame", msg.FrameID).Msg("client behind, frame dropped")
		}
	}
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	cl := newClient(conn)
	// the first message is the current frame, queued before any broadcast
	s.mu.Lock()
	hello := frameMsg(s.frameID, s.cond.Last())
	b, _ := json.Marshal(hello)
	cl.queue(b)
	s.clients[cl] = struct{}{}
	s.mu.Unlock()

	go cl.writeLoop()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, cl)
			close(cl.send)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "diagnostics disabled", http.StatusNotFound)
		return
	}
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	events, cancel := s.hub.Subscribe(32)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()
	go func() {
		defer conn.Close()
		for _, d := range s.hub.Recent() {
			if writeJSON(conn, d) != nil {
				cancel()
				return
			}
		}
		for d := range events {
			if writeJSON(conn, d) != nil {
				cancel()
				return
			}
		}
	}()
}

// ControlReply answers a control message.
type ControlReply struct {
	OK      bool           `json:"ok"`
	Applied bool           `json:"applied"`
	Error   string         `json:"error,omitempty"`
	State   sequence.State `json:"state"`
}

func (s *Server) control(raw map[string]any) ControlReply {
	cmd, err := app.DecodeCommand(raw)
	if err != nil {
		return ControlReply{Error: err.Error(), State: s.cond.Snapshot()}
	}
	applied, err := s.cond.Apply(cmd)
	rep := ControlReply{OK: err == nil, Applied: applied, State: s.cond.Snapshot()}
	if err != nil {
		rep.Error = err.Error()
	}
	log.Debug().Str("cmd", cmd.Cmd).Bool("applied", applied).Msg("control")
	return rep
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = writeJSON(conn, ControlReply{Error: "invalid json"})
			continue
		}
		if err := writeJSON(conn, s.control(msg)); err != nil {
			return
		}
	}
}

func (s *Server) HandleControl(w http.ResponseWriter, r *http.Request) {
	var msg map[string]any
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	rep := s.control(msg)
	status := http.StatusOK
	if !rep.OK {
		status = http.StatusBadRequest
	}
	respond(w, status, rep)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.cond.Snapshot()
	respond(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"frames":   s.cond.Frames(),
		"uptime_s": time.Since(s.startTime).Seconds(),
		"fps":      s.cond.FPS(),
		"stage":    st.CurrentIndex,
		"phase":    st.Phase,
	})
}

func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, s.cond.Snapshot())
}

func (s *Server) HandleStages(w http.ResponseWriter, r *http.Request) {
	t := s.cond.Table()
	respond(w, http.StatusOK, map[string]any{
		"stages":           t,
		"branch":           t.BranchIndex(),
		"skip_target":      t.SkipTargetIndex(),
		"total_duration_s": t.TotalDuration(),
	})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("encode response")
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
