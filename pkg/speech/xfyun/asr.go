package xfyun

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ywqqqq/xuedong-ai/pkg/speech"
)

const (
	asrHost = "ws-api.xfyun.cn"
	asrPath = "/v2/iat"

	statusFirstFrame    = 0
	statusContinueFrame = 1
	statusLastFrame     = 2

	frameSize     = 8000
	frameInterval = 40 * time.Millisecond
)

// ASRClient streams PCM audio to the iFlytek iat endpoint and collects
// the recognized text.
type ASRClient struct {
	AppID     string
	APIKey    string
	APISecret string
	Dialer    *websocket.Dialer
}

var _ speech.Recognizer = &ASRClient{}

func NewASRClient(appID, apiKey, apiSecret string) *ASRClient {
	return &ASRClient{
		AppID:     appID,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Dialer:    websocket.DefaultDialer,
	}
}

type asrFrame struct {
	Common   *asrCommon   `json:"common,omitempty"`
	Business *asrBusiness `json:"business,omitempty"`
	Data     asrData      `json:"data"`
}

type asrCommon struct {
	AppID string `json:"app_id"`
}

type asrBusiness struct {
	Domain   string `json:"domain"`
	Language string `json:"language"`
	Accent   string `json:"accent"`
	Vinfo    int    `json:"vinfo"`
	VadEos   int    `json:"vad_eos"`
}

type asrData struct {
	Status   int    `json:"status"`
	Format   string `json:"format"`
	Audio    string `json:"audio"`
	Encoding string `json:"encoding"`
}

type asrResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
		Result struct {
			Ws []struct {
				Cw []struct {
					W string `json:"w"`
				} `json:"cw"`
			} `json:"ws"`
		} `json:"result"`
	} `json:"data"`
}

func (c *ASRClient) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	wsURL := buildWsURL(asrHost, asrPath, c.APIKey, c.APISecret, time.Now())

	conn, _, err := c.Dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return "", fmt.Errorf("dial asr endpoint: %w", err)
	}
	defer conn.Close()

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- c.sendFrames(ctx, conn, pcm)
	}()

	var result strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetReadDeadline(deadline)
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			// Server closes the socket after the final segment.
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			return "", fmt.Errorf("read asr message: %w", err)
		}

		var resp asrResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			return "", fmt.Errorf("decode asr message: %w", err)
		}
		if resp.Code != 0 {
			return "", fmt.Errorf("asr error %d: %s", resp.Code, resp.Message)
		}

		for _, ws := range resp.Data.Result.Ws {
			for _, cw := range ws.Cw {
				result.WriteString(cw.W)
			}
		}

		if resp.Data.Status == statusLastFrame {
			break
		}
	}

	if err := <-sendErr; err != nil {
		return "", err
	}
	return result.String(), nil
}

// sendFrames pushes the audio in 8000-byte frames every 40ms, tagging
// the first and last frames so the server can segment the stream.
func (c *ASRClient) sendFrames(ctx context.Context, conn *websocket.Conn, pcm []byte) error {
	status := statusFirstFrame
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for offset := 0; ; offset += frameSize {
		end := offset + frameSize
		if end > len(pcm) {
			end = len(pcm)
		}
		chunk := pcm[offset:end]
		if len(chunk) == 0 {
			status = statusLastFrame
		}

		frame := asrFrame{
			Data: asrData{
				Status:   status,
				Format:   "audio/L16;rate=16000",
				Audio:    base64.StdEncoding.EncodeToString(chunk),
				Encoding: "raw",
			},
		}
		if status == statusFirstFrame {
			frame.Common = &asrCommon{AppID: c.AppID}
			frame.Business = &asrBusiness{
				Domain:   "iat",
				Language: "zh_cn",
				Accent:   "mandarin",
				Vinfo:    1,
				VadEos:   10000,
			}
			frame.Data.Status = statusFirstFrame
		}

		payload, err := json.Marshal(frame)
		if err != nil {
			return fmt.Errorf("marshal asr frame: %w", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return fmt.Errorf("send asr frame: %w", err)
		}

		if status == statusLastFrame {
			return nil
		}
		status = statusContinueFrame

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
