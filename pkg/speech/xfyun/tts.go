package xfyun

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ywqqqq/xuedong-ai/pkg/speech"
)

const (
	ttsHost = "tts-api.xfyun.cn"
	ttsPath = "/v2/tts"
)

// TTSClient synthesizes speech through the iFlytek tts endpoint. The
// whole text goes up in a single frame; audio comes back in base64
// chunks until status 2.
type TTSClient struct {
	AppID     string
	APIKey    string
	APISecret string
	Voice     string
	Dialer    *websocket.Dialer
}

var _ speech.Synthesizer = &TTSClient{}

func NewTTSClient(appID, apiKey, apiSecret string) *TTSClient {
	return &TTSClient{
		AppID:     appID,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Voice:     "xiaoyan",
		Dialer:    websocket.DefaultDialer,
	}
}

type ttsRequest struct {
	Common   ttsCommon   `json:"common"`
	Business ttsBusiness `json:"business"`
	Data     ttsData     `json:"data"`
}

type ttsCommon struct {
	AppID string `json:"app_id"`
}

type ttsBusiness struct {
	Aue string `json:"aue"`
	Auf string `json:"auf"`
	Vcn string `json:"vcn"`
	Tte string `json:"tte"`
}

type ttsData struct {
	Status int    `json:"status"`
	Text   string `json:"text"`
}

type ttsResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Audio  string `json:"audio"`
		Status int    `json:"status"`
	} `json:"data"`
}

func (c *TTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	wsURL := buildWsURL(ttsHost, ttsPath, c.APIKey, c.APISecret, time.Now())

	conn, _, err := c.Dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial tts endpoint: %w", err)
	}
	defer conn.Close()

	req := ttsRequest{
		Common: ttsCommon{AppID: c.AppID},
		Business: ttsBusiness{
			Aue: "raw",
			Auf: "audio/L16;rate=16000",
			Vcn: c.Voice,
			Tte: "utf8",
		},
		Data: ttsData{
			Status: statusLastFrame,
			Text:   base64.StdEncoding.EncodeToString([]byte(text)),
		},
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil, fmt.Errorf("send tts request: %w", err)
	}

	var audio bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetReadDeadline(deadline)
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read tts message: %w", err)
		}

		var resp ttsResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			return nil, fmt.Errorf("decode tts message: %w", err)
		}
		if resp.Code != 0 {
			return nil, fmt.Errorf("tts error %d: %s", resp.Code, resp.Message)
		}

		chunk, err := base64.StdEncoding.DecodeString(resp.Data.Audio)
		if err != nil {
			return nil, fmt.Errorf("decode tts audio: %w", err)
		}
		audio.Write(chunk)

		if resp.Data.Status == statusLastFrame {
			break
		}
	}

	return audio.Bytes(), nil
}
