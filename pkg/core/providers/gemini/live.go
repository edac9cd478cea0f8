package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neochat-ai/neochat/pkg/core"
)

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// liveConn is a duplex websocket session against the Gemini live API.
type liveConn struct {
	conn   *websocket.Conn
	events chan core.LiveEvent

	inputRate int

	writeMu sync.Mutex
	closed  atomic.Bool
	cancel  context.CancelFunc
	ctx     context.Context
}

// Live opens a duplex audio session.
func (g *Gateway) Live(ctx context.Context, cfg *core.LiveConfig) (core.LiveConn, error) {
	def := core.DefaultLiveConfig()
	if cfg.InputSampleRate == 0 {
		cfg.InputSampleRate = def.InputSampleRate
	}
	if cfg.OutputSampleRate == 0 {
		cfg.OutputSampleRate = def.OutputSampleRate
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = def.LanguageCode
	}

	u, err := url.Parse(liveEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse live URL: %w", err)
	}
	q := u.Query()
	q.Set("key", cfg.APIKey)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), http.Header{})
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return nil, core.NewNetworkError(fmt.Sprintf("live connect (status %d): %s", resp.StatusCode, body), err)
			}
		}
		return nil, core.NewNetworkError("live connect", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	lc := &liveConn{
		conn:      conn,
		events:    make(chan core.LiveEvent, 100),
		inputRate: cfg.InputSampleRate,
		ctx:       ctx,
		cancel:    cancel,
	}

	if err := lc.sendSetup(cfg); err != nil {
		lc.Close()
		return nil, core.NewNetworkError("live setup", err)
	}

	go lc.readLoop()

	g.logger.Info("live session open", "model", cfg.Model, "language", cfg.LanguageCode)
	return lc, nil
}

// Wire format for the BidiGenerateContent protocol.

type livePart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *liveBlobJSON `json:"inlineData,omitempty"`
}

type liveBlobJSON struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type liveContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []livePart `json:"parts"`
}

type liveSetup struct {
	Model            string          `json:"model"`
	GenerationConfig *liveGenConfig  `json:"generationConfig,omitempty"`
	SystemInstr      *liveContent    `json:"systemInstruction,omitempty"`
	Tools            []liveTool      `json:"tools,omitempty"`
	InputTranscribe  *struct{}       `json:"inputAudioTranscription,omitempty"`
	OutputTranscribe *struct{}       `json:"outputAudioTranscription,omitempty"`
	SafetySettings   []liveSafetyCfg `json:"safetySettings,omitempty"`
}

type liveGenConfig struct {
	ResponseModalities []string        `json:"responseModalities"`
	SpeechConfig       *liveSpeechConf `json:"speechConfig,omitempty"`
}

type liveSpeechConf struct {
	LanguageCode string `json:"languageCode,omitempty"`
}

type liveTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type liveSafetyCfg struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type clientMessage struct {
	Setup         *liveSetup         `json:"setup,omitempty"`
	RealtimeInput *liveRealtimeInput `json:"realtimeInput,omitempty"`
	ClientContent *liveClientContent `json:"clientContent,omitempty"`
}

type liveRealtimeInput struct {
	MediaChunks []liveBlobJSON `json:"mediaChunks"`
}

type liveClientContent struct {
	Turns        []liveContent `json:"turns"`
	TurnComplete bool          `json:"turnComplete"`
}

type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete,omitempty"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []livePart `json:"parts"`
		} `json:"modelTurn,omitempty"`
		TurnComplete bool `json:"turnComplete,omitempty"`
		Interrupted  bool `json:"interrupted,omitempty"`

		InputTranscription *struct {
			Text string `json:"text"`
		} `json:"inputTranscription,omitempty"`
		OutputTranscription *struct {
			Text string `json:"text"`
		} `json:"outputTranscription,omitempty"`
	} `json:"serverContent,omitempty"`
}

func (lc *liveConn) sendSetup(cfg *core.LiveConfig) error {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash-live-001"
	}

	setup := &liveSetup{
		Model: "models/" + model,
		GenerationConfig: &liveGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig:       &liveSpeechConf{LanguageCode: cfg.LanguageCode},
		},
		InputTranscribe:  &struct{}{},
		OutputTranscribe: &struct{}{},
	}
	if cfg.System != "" {
		setup.SystemInstr = &liveContent{
			Parts: []livePart{{Text: cfg.System}},
		}
	}
	if cfg.WebSearch {
		setup.Tools = []liveTool{{GoogleSearch: &struct{}{}}}
	}
	if cfg.Unrestricted {
		for _, cat := range []string{
			"HARM_CATEGORY_HARASSMENT",
			"HARM_CATEGORY_HATE_SPEECH",
			"HARM_CATEGORY_SEXUALLY_EXPLICIT",
			"HARM_CATEGORY_DANGEROUS_CONTENT",
		} {
			setup.SafetySettings = append(setup.SafetySettings, liveSafetyCfg{
				Category:  cat,
				Threshold: "BLOCK_NONE",
			})
		}
	}

	return lc.writeJSON(clientMessage{Setup: setup})
}

// SendAudio forwards one frame of mic audio.
func (lc *liveConn) SendAudio(pcm []byte) error {
	return lc.sendMedia(liveBlobJSON{
		MIMEType: fmt.Sprintf("audio/pcm;rate=%d", lc.inputRate),
		Data:     base64.StdEncoding.EncodeToString(pcm),
	})
}

// SendVideoFrame forwards one JPEG-encoded frame.
func (lc *liveConn) SendVideoFrame(jpeg []byte) error {
	return lc.sendMedia(liveBlobJSON{
		MIMEType: "image/jpeg",
		Data:     base64.StdEncoding.EncodeToString(jpeg),
	})
}

// SendText injects a text turn into the session.
func (lc *liveConn) SendText(text string) error {
	return lc.writeJSON(clientMessage{
		ClientContent: &liveClientContent{
			Turns: []liveContent{
				{Role: "user", Parts: []livePart{{Text: text}}},
			},
			TurnComplete: true,
		},
	})
}

func (lc *liveConn) sendMedia(blob liveBlobJSON) error {
	return lc.writeJSON(clientMessage{
		RealtimeInput: &liveRealtimeInput{MediaChunks: []liveBlobJSON{blob}},
	})
}

func (lc *liveConn) writeJSON(msg clientMessage) error {
	if lc.closed.Load() {
		return fmt.Errorf("live session closed")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	lc.writeMu.Lock()
	defer lc.writeMu.Unlock()
	return lc.conn.WriteMessage(websocket.TextMessage, data)
}

// Events returns the server event stream. Closed when the session ends.
func (lc *liveConn) Events() <-chan core.LiveEvent {
	return lc.events
}

func (lc *liveConn) readLoop() {
	defer close(lc.events)

	for {
		select {
		case <-lc.ctx.Done():
			return
		default:
		}

		_, data, err := lc.conn.ReadMessage()
		if err != nil {
			if lc.closed.Load() {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				lc.emit(core.LiveEvent{Kind: core.LiveEventError, Err: core.NewNetworkError("live read", err)})
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		sc := msg.ServerContent
		if sc == nil {
			continue
		}

		if sc.Interrupted {
			lc.emit(core.LiveEvent{Kind: core.LiveEventInterrupted})
			continue
		}
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			lc.emit(core.LiveEvent{Kind: core.LiveEventInputTranscript, Text: sc.InputTranscription.Text})
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			lc.emit(core.LiveEvent{Kind: core.LiveEventOutputText, Text: sc.OutputTranscription.Text})
		}
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.Text != "" {
					lc.emit(core.LiveEvent{Kind: core.LiveEventOutputText, Text: part.Text})
				}
				if part.InlineData != nil {
					audio, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
					if err != nil || len(audio) == 0 {
						continue
					}
					lc.emit(core.LiveEvent{Kind: core.LiveEventAudio, Audio: audio})
				}
			}
		}
		if sc.TurnComplete {
			lc.emit(core.LiveEvent{Kind: core.LiveEventTurnComplete})
		}
	}
}

func (lc *liveConn) emit(ev core.LiveEvent) {
	select {
	case lc.events <- ev:
	case <-lc.ctx.Done():
	}
}

// Close tears the session down. Safe to call more than once.
func (lc *liveConn) Close() error {
	if lc.closed.Swap(true) {
		return nil
	}
	lc.cancel()

	lc.writeMu.Lock()
	lc.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	lc.writeMu.Unlock()

	return lc.conn.Close()
}
