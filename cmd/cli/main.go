package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Interactive console client for the tutoring API. Keeps one session
// alive across turns so retrieval over earlier turns can be exercised
// by hand.
//
// Commands:
//
//	image:<path>      attach a local image to the next question
//	generate:<points> generate a practice problem (、-separated points)
//	clear             start a fresh session
//	quit / exit       leave
var baseURL = "http://localhost:8001/api"

func main() {
	if v := os.Getenv("TUTOR_API_URL"); v != "" {
		baseURL = v
	}
	userID := os.Getenv("TUTOR_USER_ID")
	if userID == "" {
		userID = "cli-user"
	}

	color.Cyan("🚀 数学辅导小助手 (type 'quit' to exit, 'clear' for a new session)\n")

	var sessionID string
	var pendingImage string
	scanner := bufio.NewScanner(os.Stdin)

	for {
		color.Set(color.FgYellow)
		fmt.Print("你> ")
		color.Unset()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "quit" || line == "exit":
			return
		case line == "clear":
			sessionID = ""
			pendingImage = ""
			color.Green("Session cleared.")
			continue
		case strings.HasPrefix(line, "image:"):
			pendingImage = strings.TrimSpace(strings.TrimPrefix(line, "image:"))
			color.Green("Image attached: %s (will be sent with the next question)", pendingImage)
			continue
		case strings.HasPrefix(line, "generate:"):
			points := strings.TrimSpace(strings.TrimPrefix(line, "generate:"))
			generateProblem(points)
			continue
		}

		resp, err := submitTurn(sessionID, userID, line, pendingImage)
		pendingImage = ""
		if err != nil {
			color.Red("Failed: %v", err)
			continue
		}

		if sid, ok := resp["session_id"].(string); ok && sid != "" {
			sessionID = sid
		}
		if answer, ok := resp["response"].(string); ok {
			color.Set(color.FgCyan)
			fmt.Println("\n老师> " + answer)
			color.Unset()
		}
		if saved, ok := resp["saved"].(bool); ok && !saved {
			color.Red("(warning: this turn was not persisted)")
		}
		if followUps, ok := resp["follow_up_questions"].([]interface{}); ok && len(followUps) > 0 {
			color.Magenta("\n你可能还想问：")
			for i, q := range followUps {
				color.Magenta("  %d. %v", i+1, q)
			}
		}
		fmt.Println()
	}
}

func submitTurn(sessionID, userID, message, imagePath string) (map[string]interface{}, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("session_id", sessionID)
	_ = w.WriteField("user_id", userID)
	_ = w.WriteField("message", message)

	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return nil, fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		part, err := w.CreateFormFile("image", filepath.Base(imagePath))
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", baseURL+"/chat/v1/turn", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return doRequest(req)
}

func generateProblem(points string) {
	body, _ := json.Marshal(map[string]interface{}{
		"knowledge_points": strings.Split(points, "、"),
	})
	req, err := http.NewRequest("POST", baseURL+"/knowledge/v1/generate", bytes.NewReader(body))
	if err != nil {
		color.Red("Failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := doRequest(req)
	if err != nil {
		color.Red("Failed: %v", err)
		return
	}

	if question, ok := data["question"].(string); ok {
		color.Cyan("\n📝 题目：%s", question)
	}
	if analysis, ok := data["analysis"].(string); ok {
		color.Cyan("💡 解析：%s", analysis)
	}
	if answer, ok := data["answer"].(string); ok {
		color.Cyan("🎯 答案：%s\n", answer)
	}
}

func doRequest(req *http.Request) (map[string]interface{}, error) {
	client := &http.Client{} // generation can take a while, no timeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected response: %s", string(respBody))
	}
	if !envelope.Success {
		return nil, fmt.Errorf("%s", envelope.Message)
	}
	return envelope.Data, nil
}
